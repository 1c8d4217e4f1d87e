package coordinator

import (
	"ZoomMandelbrot/mandelbrot"
	"ZoomMandelbrot/misc"
	"ZoomMandelbrot/output"
	"ZoomMandelbrot/rpc"
	"ZoomMandelbrot/task"
	"encoding/json"
	"math"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestLoadSettings(t *testing.T) {
	name := filepath.Join(t.TempDir(), "coordinator.json")
	_, err := misc.WriteFile(name, []byte(`{
		"ImageFormat": "png",
		"MandelbrotSettings": {"Width": 320, "Height": 180, "ColorPolicy": "clamp", "SuperSampling": 2},
		"RowsPerTask": 8,
		"RunName": "deep",
		"SavePath": "/tmp",
		"ServerAddress": "127.0.0.1:51000",
		"TaskGeneration": "Frame",
		"Transport": "websocket",
		"TransitionSettings": [{"StartX": -0.75, "StartY": 0.1, "FrameCount": 10}],
		"WorkerTimeout": "45s"
	}`))
	if err != nil {
		t.Fatal(err)
	}

	settings, err := LoadSettings(name)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if settings.ImageFormat != output.FormatPng || settings.RowsPerTask != 8 || settings.TaskGeneration != task.Frame {
		t.Errorf("settings = %s", settings.String())
	}
	if settings.Transport != rpc.TransportWebsocket || time.Duration(settings.WorkerTimeout) != 45*time.Second {
		t.Errorf("transport = %s, worker timeout = %s", settings.Transport, time.Duration(settings.WorkerTimeout))
	}
	ms := settings.MandelbrotSettings
	if ms.Width != 320 || ms.ColorPolicy != mandelbrot.Clamp || ms.SuperSampling != 2 {
		t.Errorf("mandelbrot settings = %s", ms.String())
	}
	ts := settings.TransitionSettings[0]
	if endX, endY := ts.End(); endX != -0.75 || endY != 0.1 || ts.SpanStart != 3 || ts.SpanDecay != 0.9 {
		t.Errorf("transition = %+v", ts)
	}

	if _, err := LoadSettings(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("LoadSettings() of a missing file succeeded")
	}
}

func TestSettingsVerify(t *testing.T) {
	settings := Settings{}
	if err := settings.Verify(); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if settings.LocalWorkers != runtime.NumCPU() || settings.ImageFormat != output.FormatPpm || settings.Transport != rpc.TransportTcp {
		t.Errorf("defaults = %s", settings.String())
	}
	if len(settings.TransitionSettings) != 1 || settings.TransitionSettings[0].FrameCount != 100 {
		t.Errorf("default transitions = %+v", settings.TransitionSettings)
	}
	if settings.RunName == "" || settings.SavePath == "" || settings.RowsPerTask != 16 {
		t.Errorf("defaults = %s", settings.String())
	}

	tests := []struct {
		name     string
		settings Settings
	}{
		{name: "unknown transport", settings: Settings{Transport: "smoke signals"}},
		{name: "unknown image format", settings: Settings{ImageFormat: "webp"}},
		{name: "nobody to render", settings: Settings{LocalWorkers: -1}},
		{name: "bad palette", settings: Settings{MandelbrotSettings: mandelbrot.Settings{PaletteStops: []mandelbrot.Stop{{Position: 1}, {Position: 0}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.settings.Verify(); err == nil {
				t.Error("Verify() succeeded")
			}
		})
	}
}

func TestTransitionViews(t *testing.T) {
	ts := TransitionSettings{StartX: -0.5, StartY: 0, EndX: float64p(-0.75), EndY: float64p(0.1), FrameCount: 5, SpanStart: 3, SpanDecay: 0.5}
	views := ts.Views(0.5)
	if len(views) != 5 {
		t.Fatalf("Views() made %d views, want 5", len(views))
	}

	span := 3.0
	for i, view := range views {
		if math.Abs(view.Span-span) > 1e-12 || view.AspectRatio != 0.5 {
			t.Errorf("view %d = %s, want span %g", i, view, span)
		}
		span *= 0.5
	}
	if views[0].CenterX != -0.5 || views[0].CenterY != 0 {
		t.Errorf("first view = %s, want the start point", views[0])
	}
	if views[4].CenterX != -0.75 || views[4].CenterY != 0.1 {
		t.Errorf("last view = %s, want the end point", views[4])
	}
	// Zooming in pans early
	if math.Abs(views[1].CenterX-(-0.75)) > math.Abs(views[1].CenterX-(-0.5)) {
		t.Errorf("second view %s has not moved most of the way", views[1])
	}

	out := TransitionSettings{StartX: -0.5, EndX: float64p(-0.75), FrameCount: 5, SpanStart: 0.01, SpanDecay: 2}
	outViews := out.Views(1)
	if outViews[4].Span <= outViews[0].Span {
		t.Errorf("zooming out shrank the span: %s to %s", outViews[0], outViews[4])
	}
	// Zooming out pans late
	if math.Abs(outViews[3].CenterX-(-0.5)) > math.Abs(outViews[3].CenterX-(-0.75)) {
		t.Errorf("fourth view %s moved most of the way early", outViews[3])
	}

	single := TransitionSettings{StartX: 0.3, FrameCount: 1}
	if err := single.Verify(); err != nil {
		t.Fatal(err)
	}
	if v := single.Views(1); len(v) != 1 || v[0].CenterX != 0.3 || v[0].Span != 3 {
		t.Errorf("single frame views = %v", v)
	}
}

func TestTransitionEnd(t *testing.T) {
	tests := []struct {
		name     string
		settings string
		wantX    float64
		wantY    float64
	}{
		{name: "into the start point", settings: `{"StartX": -1.5, "StartY": 0.5, "FrameCount": 3}`, wantX: -1.5, wantY: 0.5},
		{name: "origin", settings: `{"StartX": -1.5, "StartY": 0.5, "EndX": 0, "EndY": 0, "FrameCount": 3}`, wantX: 0, wantY: 0},
		{name: "one axis", settings: `{"StartX": -1.5, "StartY": 0.5, "EndY": 0, "FrameCount": 3}`, wantX: -1.5, wantY: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts TransitionSettings
			if err := json.Unmarshal([]byte(tt.settings), &ts); err != nil {
				t.Fatal(err)
			}
			if err := ts.Verify(); err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			views := ts.Views(1)
			if len(views) != 3 || views[0].CenterX != -1.5 || views[0].CenterY != 0.5 {
				t.Fatalf("Views() = %v", views)
			}
			if last := views[2]; last.CenterX != tt.wantX || last.CenterY != tt.wantY {
				t.Errorf("last view = %s, want centre (%g, %g)", last, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestTransitionVerifyOutOfRange(t *testing.T) {
	tests := []struct {
		name     string
		settings TransitionSettings
		wantErr  string
		check    func(ts TransitionSettings) bool
	}{
		{
			name:     "in range",
			settings: TransitionSettings{StartX: -2, StartY: 1, EndX: float64p(4), EndY: float64p(-4)},
			check: func(ts TransitionSettings) bool {
				return ts.StartX == -2 && ts.StartY == 1 && *ts.EndX == 4 && *ts.EndY == -4
			},
		},
		{
			name:     "start",
			settings: TransitionSettings{StartX: -7, StartY: 1},
			wantErr:  "StartX -7",
			check:    func(ts TransitionSettings) bool { return ts.StartX == 0 && ts.StartY == 1 },
		},
		{
			name:     "end",
			settings: TransitionSettings{StartX: 1, EndX: float64p(0.5), EndY: float64p(12)},
			wantErr:  "EndY 12",
			check:    func(ts TransitionSettings) bool { return *ts.EndX == 0.5 && *ts.EndY == 0 },
		},
		{
			name:     "not a number",
			settings: TransitionSettings{StartY: math.NaN()},
			wantErr:  "StartY NaN",
			check:    func(ts TransitionSettings) bool { return ts.StartY == 0 },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.settings.Verify()
			switch {
			case tt.wantErr == "" && err != nil:
				t.Errorf("Verify() error = %v", err)
			case tt.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErr)):
				t.Errorf("Verify() error = %v, want one naming %q", err, tt.wantErr)
			}
			if !tt.check(tt.settings) {
				t.Errorf("settings after Verify() = %+v", tt.settings)
			}
		})
	}
}
