package worker

import (
	"ZoomMandelbrot/misc"
	"ZoomMandelbrot/rpc"
	"encoding/json"
	"fmt"
	"github.com/BrugadaSyndrome/bslogger"
	"os"
	"runtime"
	"time"
)

// Settings configure a remote worker. HeartbeatInterval is how often it answers roll call and
// reads as a duration string such as "30s".
type Settings struct {
	logger bslogger.Logger

	CoordinatorAddress string
	HeartbeatInterval  Duration
	Name               string
	Transport          string
	WorkerCount        int
}

func LoadSettings(settingsFile string) (Settings, error) {
	s := Settings{}
	bytes, err := misc.ReadFile(settingsFile)
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(bytes, &s); err != nil {
		return s, fmt.Errorf("parsing %s: %w", settingsFile, err)
	}
	if err := s.Verify(); err != nil {
		return s, err
	}
	s.logger.Debug(s.String())
	return s, nil
}

func (s *Settings) String() string {
	output := "\nWorker settings\n"
	output += fmt.Sprintf("Coordinator Address: %s\n", s.CoordinatorAddress)
	output += fmt.Sprintf("Heartbeat Interval: %s\n", time.Duration(s.HeartbeatInterval))
	output += fmt.Sprintf("Name: %s\n", s.Name)
	output += fmt.Sprintf("Transport: %s\n", s.Transport)
	output += fmt.Sprintf("Worker Count: %d\n", s.WorkerCount)
	return output
}

func (s *Settings) Verify() error {
	s.logger = bslogger.NewLogger("WorkerSettings", bslogger.Normal, nil)

	if s.CoordinatorAddress == "" {
		address, err := misc.GetLocalAddress()
		if misc.CheckError(err, s.logger, misc.Warning) {
			address = "127.0.0.1"
		}
		s.CoordinatorAddress = fmt.Sprintf("%s:%s", address, "51000")
	}
	if s.HeartbeatInterval <= 0 {
		s.HeartbeatInterval = Duration(30 * time.Second)
	}
	if s.Name == "" {
		host, err := misc.GetLocalAddress()
		if err != nil {
			host, _ = os.Hostname()
		}
		s.Name = fmt.Sprintf("%s-%d", host, os.Getpid())
	}
	switch s.Transport {
	case "":
		s.Transport = rpc.TransportTcp
	case rpc.TransportTcp, rpc.TransportWebsocket:
	default:
		return fmt.Errorf("unknown transport %q", s.Transport)
	}
	if s.WorkerCount < 1 {
		s.WorkerCount = runtime.NumCPU()
	}
	return nil
}

// Duration reads "30s" style strings from json.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}
