package coordinator

import (
	"ZoomMandelbrot/mandelbrot"
	"ZoomMandelbrot/misc"
	"ZoomMandelbrot/output"
	"ZoomMandelbrot/rpc"
	"ZoomMandelbrot/task"
	"ZoomMandelbrot/worker"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/BrugadaSyndrome/bslogger"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

// frameAssembly collects the bands of one frame until every task of the frame is back.
type frameAssembly struct {
	budget    int
	failed    bool
	field     *mandelbrot.Field
	tasksLeft int
}

var errUnregistered = errors.New("worker is not registered")

type frameView struct {
	budget int
	view   mandelbrot.View
}

type Coordinator struct {
	completed           map[uint]bool
	done                chan struct{}
	err                 error
	frameCompletedCount atomic.Uint64
	frames              map[uint]*frameAssembly
	lastSeen            map[string]time.Time
	logFile             *os.File
	logger              bslogger.Logger
	mutex               sync.Mutex
	printer             *message.Printer
	remoteWorkers       map[string]bool
	renderer            *mandelbrot.Renderer
	runPath             string
	sampledHeight       int
	sampledWidth        int
	settings            Settings
	taskCount           uint64
	taskGeneratedCount  atomic.Uint64
	taskIngestedCount   atomic.Uint64
	tasksDone           chan task.Result
	tasksHandedOut      map[string]map[uint]task.Task // keep track of all tasks workers have
	tasksPerFrame       int
	tasksTodo           chan task.Task
	views               []frameView

	Server rpc.Server
}

func NewCoordinator(settings Settings) (*Coordinator, error) {
	if err := settings.Verify(); err != nil {
		return nil, err
	}

	renderer, err := mandelbrot.NewRenderer(settings.MandelbrotSettings)
	if err != nil {
		return nil, err
	}

	coordinator := &Coordinator{
		completed:      make(map[uint]bool),
		done:           make(chan struct{}),
		frames:         make(map[uint]*frameAssembly),
		lastSeen:       make(map[string]time.Time),
		logger:         bslogger.NewLogger("Coordinator", bslogger.Normal, nil),
		printer:        message.NewPrinter(language.English),
		remoteWorkers:  make(map[string]bool),
		renderer:       renderer,
		runPath:        filepath.Join(settings.SavePath, settings.RunName),
		sampledHeight:  int(settings.MandelbrotSettings.Height) * renderer.SuperSampling(),
		sampledWidth:   int(settings.MandelbrotSettings.Width) * renderer.SuperSampling(),
		settings:       settings,
		tasksDone:      make(chan task.Result, 1000),
		tasksHandedOut: make(map[string]map[uint]task.Task),
		tasksTodo:      make(chan task.Task, 1000),
	}

	// Every frame of every transition, in order
	aspectRatio := settings.MandelbrotSettings.AspectRatio()
	for i := 0; i < len(settings.TransitionSettings); i++ {
		for _, view := range settings.TransitionSettings[i].Views(aspectRatio) {
			coordinator.views = append(coordinator.views, frameView{
				budget: settings.MandelbrotSettings.Budget(view.Span),
				view:   view,
			})
		}
	}

	// Determine the number of tasks that will be generated so the coordinator knows when to shut down
	switch settings.TaskGeneration {
	case task.Row:
		coordinator.tasksPerFrame = (coordinator.sampledHeight + settings.RowsPerTask - 1) / settings.RowsPerTask
	case task.Frame:
		coordinator.tasksPerFrame = 1
	default:
		return nil, fmt.Errorf("unknown generation type: %d", settings.TaskGeneration)
	}
	coordinator.taskCount = uint64(coordinator.tasksPerFrame * len(coordinator.views))

	// Create directory to store files for this run
	if err := os.MkdirAll(coordinator.runPath, os.ModePerm); err != nil {
		return nil, fmt.Errorf("unable to create folder: %w", err)
	}

	// Copy the settings to the directory so the run can be duplicated in the future
	settingsBytes, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding settings: %w", err)
	}
	if _, err := misc.WriteFile(filepath.Join(coordinator.runPath, "settings.json"), settingsBytes); err != nil {
		return nil, fmt.Errorf("unable to make a backup copy of the settings: %w", err)
	}

	// Create a log file to record the run
	logFile, err := os.Create(filepath.Join(coordinator.runPath, "coordinator.log"))
	if !misc.CheckError(err, coordinator.logger, misc.Warning) {
		coordinator.logFile = logFile
		coordinator.logger = bslogger.NewLogger("Coordinator", bslogger.Normal, logFile)
	}

	// Start up the rpc server to allow remote workers to communicate with the coordinator
	if settings.ServerAddress != "" {
		server, err := rpc.NewServer(settings.Transport, coordinator, settings.ServerAddress, "CoordinatorServer")
		if err != nil {
			coordinator.closeLog()
			return nil, err
		}
		if err := server.Run(); err != nil {
			coordinator.closeLog()
			return nil, err
		}
		coordinator.Server = server
	}

	coordinator.logger.Debug(settings.String())
	return coordinator, nil
}

// Address is where remote workers reach the coordinator, or "" without a server.
func (c *Coordinator) Address() string {
	if c.Server == nil {
		return ""
	}
	return c.Server.Address()
}

func (c *Coordinator) FrameCount() int {
	return len(c.views)
}

// RunPath is the directory frames, the settings backup and the log are written to.
func (c *Coordinator) RunPath() string {
	return c.runPath
}

// Run renders every frame and blocks until they are all written. The returned error is the
// first frame failure, if any.
func (c *Coordinator) Run() error {
	c.logger.Infof("Rendering %d frames as %d tasks", len(c.views), c.taskCount)
	startTime := time.Now()

	var background sync.WaitGroup
	background.Add(2)
	go func() {
		defer background.Done()
		c.tickers()
	}()
	go func() {
		defer background.Done()
		c.generateTasks()
	}()

	var local sync.WaitGroup
	for i := 0; i < c.settings.LocalWorkers; i++ {
		local.Add(1)
		go func(i int) {
			defer local.Done()
			name := fmt.Sprintf("local-%d", i)
			logger := bslogger.NewLogger(fmt.Sprintf("Worker %s", name), bslogger.Normal, nil)
			completed, err := worker.ProcessTasks(name, c, c.renderer, logger)
			misc.CheckError(err, c.logger, misc.Error)
			c.logger.Debugf("Local worker %s completed %d tasks", name, completed)
		}(i)
	}

	c.ingestTasks()
	local.Wait()
	background.Wait()
	c.waitForWorkers()

	if c.Server != nil {
		misc.CheckError(c.Server.Stop(), c.logger, misc.Warning)
	}

	err := c.Err()
	if err == nil && c.settings.GenerateMovie {
		c.logger.Info("Generating movie")
		movie, movieErr := output.MakeMovie(context.Background(), c.runPath, c.settings.ImageFormat, c.settings.MovieFramerate, c.settings.RunName)
		if movieErr != nil {
			err = movieErr
		} else {
			c.logger.Infof("Saved movie to %s", movie)
		}
	}

	c.logger.Info(c.printer.Sprintf("Done rendering %d frames in %s", c.frameCompletedCount.Load(), time.Since(startTime)))
	c.closeLog()
	return err
}

// Err is the first frame failure recorded so far.
func (c *Coordinator) Err() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.err
}

func (c *Coordinator) closeLog() {
	if c.logFile == nil {
		return
	}
	misc.CheckError(c.logFile.Close(), bslogger.NewLogger("Coordinator", bslogger.Normal, nil), misc.Warning)
	c.logFile = nil
}

func (c *Coordinator) tickers() {
	heartBeat := time.NewTicker(time.Duration(c.settings.HeartbeatInterval))
	defer heartBeat.Stop()
	rollCall := time.NewTicker(c.rollCallInterval())
	defer rollCall.Stop()

	for {
		select {
		case <-c.done:
			return
		case now := <-rollCall.C:
			c.logger.Debug("Roll call ticker")
			c.dropSilentWorkers(now)
		case <-heartBeat.C:
			c.logger.Debug("Heart beat ticker")
			completed := c.frameCompletedCount.Load()
			c.logger.Info(c.printer.Sprintf("Tasks [Generated: %d] [Ingested: %d/%d] | Frames [Completed: %d] [Todo: %d]",
				c.taskGeneratedCount.Load(), c.taskIngestedCount.Load(), c.taskCount, completed, uint64(len(c.views))-completed))
		}
	}
}

// rollCallInterval checks twice per WorkerTimeout, never less than a nanosecond apart.
func (c *Coordinator) rollCallInterval() time.Duration {
	interval := time.Duration(c.settings.WorkerTimeout) / 2
	if interval <= 0 {
		return time.Nanosecond
	}
	return interval
}

// dropSilentWorkers forgets remote workers that have not been heard from within WorkerTimeout
// and queues their outstanding tasks again.
func (c *Coordinator) dropSilentWorkers(now time.Time) {
	timeout := time.Duration(c.settings.WorkerTimeout)
	var stale []task.Task

	c.mutex.Lock()
	for address := range c.remoteWorkers {
		if now.Sub(c.lastSeen[address]) <= timeout {
			continue
		}
		c.logger.Warningf("Worker %s missed roll call", address)
		stale = append(stale, c.forgetWorker(address)...)
	}
	c.mutex.Unlock()

	c.requeue(stale)
}

// forgetWorker must be called with the mutex held.
func (c *Coordinator) forgetWorker(address string) []task.Task {
	var outstanding []task.Task
	for _, t := range c.tasksHandedOut[address] {
		outstanding = append(outstanding, t)
	}
	delete(c.tasksHandedOut, address)
	delete(c.lastSeen, address)
	delete(c.remoteWorkers, address)
	return outstanding
}

func (c *Coordinator) requeue(tasks []task.Task) {
	if len(tasks) == 0 {
		return
	}
	c.logger.Infof("Queueing %d unfinished tasks again", len(tasks))
	go func() {
		for _, t := range tasks {
			t.WorkerAddress = ""
			select {
			case c.tasksTodo <- t:
			case <-c.done:
				return
			}
		}
	}()
}

func (c *Coordinator) waitForWorkers() {
	deadline := time.Now().Add(time.Duration(c.settings.WorkerTimeout))
	for {
		c.mutex.Lock()
		remaining := len(c.remoteWorkers)
		c.mutex.Unlock()
		if remaining == 0 {
			return
		}
		if time.Now().After(deadline) {
			c.logger.Warningf("Gave up waiting for %d workers to disconnect", remaining)
			return
		}
		c.logger.Debugf("Waiting for %d workers to disconnect", remaining)
		time.Sleep(100 * time.Millisecond)
	}
}

func (c *Coordinator) generateTasks() {
	c.logger.Info("Generating tasks")
	startTime := time.Now()

	var id uint
	for frameNumber, fv := range c.views {
		frameTask := task.NewTask(id, uint(frameNumber), fv.view, fv.budget, c.sampledWidth, c.sampledHeight)

		tasks := []task.Task{frameTask}
		if c.settings.TaskGeneration == task.Row {
			tasks = frameTask.Split(id, c.settings.RowsPerTask)
		}

		for _, t := range tasks {
			select {
			case c.tasksTodo <- t:
				c.taskGeneratedCount.Add(1)
			case <-c.done:
				c.logger.Debug("Stopped generating tasks early")
				return
			}
		}
		id += uint(len(tasks))
	}

	c.logger.Debugf("Done generating %d tasks in %s", c.taskGeneratedCount.Load(), time.Since(startTime))
}

func (c *Coordinator) ingestTasks() {
	c.logger.Info("Ingesting tasks")
	startTime := time.Now()

	for c.taskIngestedCount.Load() < c.taskCount {
		result := <-c.tasksDone

		c.mutex.Lock()
		// A requeued task may be held by a different worker than the one returning it
		for _, handed := range c.tasksHandedOut {
			delete(handed, result.TaskID)
		}
		duplicate := c.completed[result.TaskID]
		c.completed[result.TaskID] = true
		c.mutex.Unlock()

		if duplicate {
			c.logger.Debugf("Ignoring duplicate result for task %d from %s", result.TaskID, result.WorkerAddress)
			continue
		}
		c.taskIngestedCount.Add(1)

		if err := c.ingest(result); err != nil {
			c.logger.Errorf("%s", err)
			c.mutex.Lock()
			if c.err == nil {
				c.err = err
			}
			c.mutex.Unlock()
			if !c.settings.SkipFailedFrames {
				c.logger.Warning("Aborting the run")
				break
			}
		}
	}

	close(c.done)
	c.logger.Debugf("Done ingesting %d tasks in %s", c.taskIngestedCount.Load(), time.Since(startTime))
}

func (c *Coordinator) ingest(result task.Result) error {
	assembly, ok := c.frames[result.FrameNumber]
	if !ok {
		// Need to create a field to collect the incoming bands
		field, err := mandelbrot.NewField(c.sampledWidth, c.sampledHeight)
		if err != nil {
			return err
		}
		assembly = &frameAssembly{
			budget:    result.Budget,
			field:     field,
			tasksLeft: c.tasksPerFrame,
		}
		c.frames[result.FrameNumber] = assembly
	}

	var failure error
	switch {
	case result.Error != "":
		failure = fmt.Errorf("frame %d: worker %s: %s", result.FrameNumber, result.WorkerAddress, result.Error)
	case result.Field == nil:
		failure = fmt.Errorf("frame %d: worker %s returned task %d without a field", result.FrameNumber, result.WorkerAddress, result.TaskID)
	default:
		if err := assembly.field.Paste(result.Row, result.Field); err != nil {
			failure = fmt.Errorf("frame %d: %w", result.FrameNumber, err)
		}
	}
	if failure != nil {
		assembly.failed = true
	}

	assembly.tasksLeft--
	if assembly.tasksLeft > 0 {
		return failure
	}

	// Remove the frame to conserve memory
	delete(c.frames, result.FrameNumber)
	if assembly.failed {
		c.logger.Warningf("Skipping frame %d", result.FrameNumber)
		return failure
	}
	return c.saveFrame(result.FrameNumber, assembly)
}

func (c *Coordinator) saveFrame(frameNumber uint, assembly *frameAssembly) error {
	frame, err := c.renderer.Finish(assembly.field, assembly.budget)
	if err != nil {
		return fmt.Errorf("frame %d: %w", frameNumber, err)
	}

	path := filepath.Join(c.runPath, fmt.Sprintf("%d.%s", frameNumber, output.Extension(c.settings.ImageFormat)))
	if err := output.WriteImage(path, frame, c.settings.ImageFormat); err != nil {
		return fmt.Errorf("frame %d: %w", frameNumber, err)
	}
	c.logger.Infof("Saved frame to %s", path)
	c.frameCompletedCount.Add(1)
	return nil
}

func (c *Coordinator) RegisterWorker(workerAddress string, reply *misc.Nothing) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	select {
	case <-c.done:
		return task.ErrNoMoreTasks
	default:
	}
	if c.remoteWorkers[workerAddress] {
		return fmt.Errorf("a worker named %s is already registered", workerAddress)
	}

	// Track all tasks this worker checks out
	c.remoteWorkers[workerAddress] = true
	c.tasksHandedOut[workerAddress] = make(map[uint]task.Task)
	c.lastSeen[workerAddress] = time.Now()

	c.logger.Infof("Worker joined: %s", workerAddress)
	return nil
}

func (c *Coordinator) DeRegisterWorker(workerAddress string, reply *misc.Nothing) error {
	c.mutex.Lock()
	if !c.remoteWorkers[workerAddress] {
		c.mutex.Unlock()
		return fmt.Errorf("%w: %s", errUnregistered, workerAddress)
	}
	// Put tasks this worker has not returned yet back into the tasksTodo pool
	outstanding := c.forgetWorker(workerAddress)
	c.mutex.Unlock()

	c.requeue(outstanding)
	c.logger.Infof("Worker left: %s", workerAddress)
	return nil
}

func (c *Coordinator) RollCall(workerAddress string, present *bool) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if !c.remoteWorkers[workerAddress] {
		return fmt.Errorf("%w: %s", errUnregistered, workerAddress)
	}
	c.lastSeen[workerAddress] = time.Now()
	*present = true
	return nil
}

// GetTask blocks until a task is available or every task has been ingested.
func (c *Coordinator) GetTask(workerAddress string, t *task.Task) error {
	select {
	case <-c.done:
		c.logger.Debugf("Telling worker %s that all tasks are handed out", workerAddress)
		return task.ErrNoMoreTasks
	case todo := <-c.tasksTodo:
		c.mutex.Lock()
		todo.WorkerAddress = workerAddress
		// Only remote workers can vanish, so only their tasks are tracked for requeueing
		if handed, ok := c.tasksHandedOut[workerAddress]; ok {
			handed[todo.ID] = todo
			c.lastSeen[workerAddress] = time.Now()
		}
		c.mutex.Unlock()
		*t = todo
		return nil
	}
}

func (c *Coordinator) ReturnTask(result task.Result, nothing *misc.Nothing) error {
	c.mutex.Lock()
	if c.remoteWorkers[result.WorkerAddress] {
		c.lastSeen[result.WorkerAddress] = time.Now()
	}
	c.mutex.Unlock()

	select {
	case c.tasksDone <- result:
	case <-c.done:
		// Late results after an abort are dropped
	}
	return nil
}

func (c *Coordinator) GetMandelbrotSettings(nothing misc.Nothing, settings *mandelbrot.Settings) error {
	*settings = c.settings.MandelbrotSettings
	return nil
}
