package worker

import (
	"ZoomMandelbrot/mandelbrot"
	"ZoomMandelbrot/misc"
	"ZoomMandelbrot/rpc"
	"ZoomMandelbrot/task"
	"errors"
	"fmt"
	"github.com/BrugadaSyndrome/bslogger"
	"sync"
	"time"
)

// TaskSource hands out tasks and takes back their results. The coordinator implements it
// directly for in-process workers; remote workers reach it through rpc.
type TaskSource interface {
	GetTask(workerAddress string, t *task.Task) error
	ReturnTask(result task.Result, nothing *misc.Nothing) error
}

// ProcessTasks renders tasks from source until it runs out of them and returns how many were
// completed.
func ProcessTasks(name string, source TaskSource, renderer *mandelbrot.Renderer, logger bslogger.Logger) (int, error) {
	var nothing misc.Nothing
	completed := 0

	for {
		var todo task.Task
		err := source.GetTask(name, &todo)
		if err != nil {
			// This is an expected error. No more work to do
			if task.IsNoMoreTasks(err) {
				return completed, nil
			}
			return completed, fmt.Errorf("unable to get a task: %w", err)
		}

		result, err := todo.Render(renderer)
		misc.CheckError(err, logger, misc.Error)
		result.WorkerAddress = name

		if err := source.ReturnTask(result, &nothing); err != nil {
			return completed, fmt.Errorf("unable to return %s: %w", todo.String(), err)
		}
		logger.Debugf("Returned %s", result.String())
		completed++
	}
}

type remoteSource struct {
	client *rpc.Client
}

func (rs remoteSource) GetTask(workerAddress string, t *task.Task) error {
	return rs.client.Call("Coordinator.GetTask", workerAddress, t)
}

func (rs remoteSource) ReturnTask(result task.Result, nothing *misc.Nothing) error {
	return rs.client.Call("Coordinator.ReturnTask", result, nothing)
}

// Worker renders tasks for a coordinator on another machine.
type Worker struct {
	client         *rpc.Client
	done           chan struct{}
	logger         bslogger.Logger
	mutex          sync.Mutex
	myAddress      string
	renderer       *mandelbrot.Renderer
	settings       Settings
	tasksCompleted int
}

func NewWorker(settings Settings) (*Worker, error) {
	if err := settings.Verify(); err != nil {
		return nil, err
	}

	worker := &Worker{
		done:      make(chan struct{}),
		logger:    bslogger.NewLogger(fmt.Sprintf("Worker %s", settings.Name), bslogger.Normal, nil),
		myAddress: settings.Name,
		settings:  settings,
	}

	client, err := rpc.NewClient(settings.Transport, settings.CoordinatorAddress, "CoordinatorClient")
	if err != nil {
		return nil, err
	}
	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to coordinator at %s: %w", settings.CoordinatorAddress, err)
	}
	worker.client = client

	// Register with the coordinator
	var nothing misc.Nothing
	if err := client.Call("Coordinator.RegisterWorker", worker.myAddress, &nothing); err != nil {
		misc.CheckError(client.Disconnect(), worker.logger, misc.Warning)
		return nil, fmt.Errorf("registering with coordinator: %w", err)
	}

	// Get Mandelbrot settings from the coordinator
	var mandelbrotSettings mandelbrot.Settings
	if err := client.Call("Coordinator.GetMandelbrotSettings", nothing, &mandelbrotSettings); err != nil {
		worker.deRegister()
		return nil, fmt.Errorf("fetching mandelbrot settings: %w", err)
	}
	worker.renderer, err = mandelbrot.NewRenderer(mandelbrotSettings)
	if err != nil {
		worker.deRegister()
		return nil, err
	}

	return worker, nil
}

// Run processes tasks on WorkerCount goroutines until the coordinator has none left.
func (w *Worker) Run() error {
	w.logger.Infof("Processing tasks on %d goroutines", w.settings.WorkerCount)
	startTime := time.Now()
	go w.tickers()

	var wg sync.WaitGroup
	errs := make([]error, w.settings.WorkerCount)
	for i := 0; i < w.settings.WorkerCount; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			completed, err := ProcessTasks(w.myAddress, remoteSource{client: w.client}, w.renderer, w.logger)
			w.mutex.Lock()
			w.tasksCompleted += completed
			w.mutex.Unlock()
			errs[i] = err
		}(i)
	}
	wg.Wait()
	close(w.done)

	w.logger.Info("Done processing tasks")
	w.logger.Debugf("Processed %d tasks in %s", w.TasksCompleted(), time.Since(startTime))

	w.logger.Info("Shutting down")
	w.deRegister()
	return errors.Join(errs...)
}

func (w *Worker) TasksCompleted() int {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.tasksCompleted
}

func (w *Worker) deRegister() {
	var nothing misc.Nothing
	misc.CheckError(w.client.Call("Coordinator.DeRegisterWorker", w.myAddress, &nothing), w.logger, misc.Warning)
	misc.CheckError(w.client.Disconnect(), w.logger, misc.Warning)
}

func (w *Worker) tickers() {
	heartBeat := time.NewTicker(time.Duration(w.settings.HeartbeatInterval))
	defer heartBeat.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-heartBeat.C:
			var present bool
			err := w.client.Call("Coordinator.RollCall", w.myAddress, &present)
			if err != nil {
				w.logger.Warningf("Coordinator missed roll call: %s", err)
				continue
			}
			w.logger.Infof("Tasks [Completed: %d]", w.TasksCompleted())
		}
	}
}
