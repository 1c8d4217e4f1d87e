package coordinator

import (
	"ZoomMandelbrot/mandelbrot"
	"ZoomMandelbrot/misc"
	"ZoomMandelbrot/output"
	"ZoomMandelbrot/rpc"
	"ZoomMandelbrot/task"
	"ZoomMandelbrot/worker"
	"encoding/json"
	"fmt"
	"github.com/BrugadaSyndrome/bslogger"
	"os"
	"runtime"
	"time"
)

// Settings configure a run. LocalWorkers is the number of in-process workers: 0 means one per
// CPU and a negative count means none. An empty ServerAddress renders with local workers only.
type Settings struct {
	logger bslogger.Logger

	GenerateMovie      bool
	HeartbeatInterval  worker.Duration
	ImageFormat        string
	LocalWorkers       int
	MandelbrotSettings mandelbrot.Settings
	MovieFramerate     int
	RowsPerTask        int
	RunName            string
	SavePath           string
	ServerAddress      string
	SkipFailedFrames   bool
	TaskGeneration     task.Generation
	TransitionSettings []TransitionSettings
	Transport          string
	WorkerTimeout      worker.Duration
}

func LoadSettings(settingsFile string) (Settings, error) {
	s := Settings{}
	fileBytes, err := misc.ReadFile(settingsFile)
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(fileBytes, &s); err != nil {
		return s, fmt.Errorf("parsing %s: %w", settingsFile, err)
	}
	if err := s.Verify(); err != nil {
		return s, err
	}
	s.logger.Debug(s.String())
	return s, nil
}

func (s *Settings) String() string {
	output := "\nCoordinator settings\n"
	output += fmt.Sprintf("Image Format: %s\n", s.ImageFormat)
	output += fmt.Sprintf("Local Workers: %d\n", s.LocalWorkers)
	output += fmt.Sprintf("Mandelbrot: %s\n", s.MandelbrotSettings.String())
	output += fmt.Sprintf("Run Name: %s\n", s.RunName)
	output += fmt.Sprintf("Save Path: %s\n", s.SavePath)
	output += fmt.Sprintf("Server Address: %s (%s)\n", s.ServerAddress, s.Transport)
	output += fmt.Sprintf("Task Generation: %s\n", s.TaskGeneration)
	output += fmt.Sprintf("Transitions: %d\n", len(s.TransitionSettings))
	return output
}

func (s *Settings) Verify() error {
	s.logger = bslogger.NewLogger("CoordinatorSettings", bslogger.Normal, nil)

	if err := s.MandelbrotSettings.Verify(); err != nil {
		return err
	}
	if s.HeartbeatInterval <= 0 {
		s.HeartbeatInterval = worker.Duration(30 * time.Second)
	}
	format, err := output.NormalizeFormat(s.ImageFormat)
	if err != nil {
		return err
	}
	s.ImageFormat = format
	if s.LocalWorkers == 0 {
		s.LocalWorkers = runtime.NumCPU()
	}
	if s.MovieFramerate <= 0 {
		s.MovieFramerate = 25
	}
	if s.RowsPerTask <= 0 {
		s.RowsPerTask = 16
	}
	if s.RunName == "" {
		s.RunName = "run_" + time.Now().Format("2006_01_02-03_04_05")
	}
	if s.SavePath == "" {
		s.SavePath, _ = os.Getwd()
	}
	if s.TaskGeneration < task.Row || s.TaskGeneration > task.Frame {
		s.TaskGeneration = task.Row
	}
	if len(s.TransitionSettings) == 0 {
		s.TransitionSettings = []TransitionSettings{
			{
				StartX: 0.2766433120,
				StartY: 0.0091976760,
			},
		}
	}
	for i := 0; i < len(s.TransitionSettings); i++ {
		misc.CheckError(s.TransitionSettings[i].Verify(), s.logger, misc.Warning)
	}
	switch s.Transport {
	case "":
		s.Transport = rpc.TransportTcp
	case rpc.TransportTcp, rpc.TransportWebsocket:
	default:
		return fmt.Errorf("unknown transport %q", s.Transport)
	}
	if s.LocalWorkers < 0 && s.ServerAddress == "" {
		return fmt.Errorf("no local workers and no server address: nothing would render the frames")
	}
	if s.WorkerTimeout <= 0 {
		s.WorkerTimeout = worker.Duration(2 * time.Minute)
	}

	// If generate movie is set to true, verify ffmpeg is setup
	if s.GenerateMovie && !output.FfmpegAvailable() {
		s.GenerateMovie = false
		s.logger.Info("Ffmpeg is not installed. Disabling GenerateMovie.")
	}

	return nil
}
