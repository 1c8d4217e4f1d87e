package mandelbrot

import (
	"math"
	"testing"
)

func TestViewState(t *testing.T) {
	state := ViewState{CenterX: -0.5}
	if got := state.Span(); got != 4 {
		t.Errorf("Span() at zoom 0 = %g, want 4", got)
	}

	state.Pan(2, -1)
	if math.Abs(state.CenterX-(-0.4)) > 1e-12 || math.Abs(state.CenterY-(-0.05)) > 1e-12 {
		t.Errorf("after Pan(2, -1) centre = (%g, %g), want (-0.4, -0.05)", state.CenterX, state.CenterY)
	}

	state.Zoom(2)
	if got := state.Span(); math.Abs(got-4*0.81) > 1e-12 {
		t.Errorf("Span() at zoom 2 = %g, want %g", got, 4*0.81)
	}
	before := state.CenterX
	state.Pan(1, 0)
	if step := state.CenterX - before; math.Abs(step-0.05*0.81) > 1e-12 {
		t.Errorf("pan step at zoom 2 = %g, want %g", step, 0.05*0.81)
	}

	view := state.View(200, 100)
	if view.AspectRatio != 0.5 || view.Span != state.Span() || view.CenterX != state.CenterX {
		t.Errorf("View() = %s", view)
	}
}

func TestViewStateBudget(t *testing.T) {
	settings := Settings{}
	if err := settings.Verify(); err != nil {
		t.Fatal(err)
	}

	state := ViewState{}
	if got, want := state.Budget(settings), Budget(4, 100, 3); got != want {
		t.Errorf("derived Budget() = %d, want %d", got, want)
	}

	state.AdjustBudget(3)
	if got := state.Budget(settings); got != 30 {
		t.Errorf("pinned Budget() = %d, want 30", got)
	}
	state.AdjustBudget(-10)
	if got := state.Budget(settings); got != 1 {
		t.Errorf("Budget() after dropping below zero = %d, want 1", got)
	}
}

func TestSettingsVerify(t *testing.T) {
	settings := Settings{}
	if err := settings.Verify(); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if settings.Width != 1920 || settings.Height != 1080 || settings.SuperSampling != 1 {
		t.Errorf("defaults = %s", settings.String())
	}
	if settings.ColorPolicy != Wrap || len(settings.PaletteStops) != len(DefaultStops) {
		t.Errorf("colour defaults = %s with %d stops", settings.ColorPolicy, len(settings.PaletteStops))
	}
	if got := settings.Budget(3); got != 100 {
		t.Errorf("Budget(3) = %d, want 100", got)
	}

	settings.MaxIterations = 500
	if got := settings.Budget(1e-9); got != 500 {
		t.Errorf("pinned Budget() = %d, want 500", got)
	}

	bad := Settings{PaletteStops: []Stop{{Position: 0.5}}}
	if err := bad.Verify(); err == nil {
		t.Error("Verify() accepted a single stop palette")
	}
}
