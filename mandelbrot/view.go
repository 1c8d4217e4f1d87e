package mandelbrot

import "math"

const (
	// zoomFactor is the span multiplier for one zoom level.
	zoomFactor = 0.9
	// baseSpan is the span at zoom level 0.
	baseSpan = 4.0
	// panStep is the distance moved per pan at zoom level 0.
	panStep = 0.05
	// budgetStep is the change in iterations per budget adjustment.
	budgetStep = 10
)

// ViewState is the view an interactive frontend steers. The frontend owns it and passes it to
// each render, so nothing about the current view lives in package state.
type ViewState struct {
	CenterX       float64
	CenterY       float64
	ZoomLevel     int
	MaxIterations int
}

// Pan moves the centre by whole steps; steps shrink as the zoom level grows.
func (vs *ViewState) Pan(dx int, dy int) {
	step := panStep * math.Pow(zoomFactor, float64(vs.ZoomLevel))
	vs.CenterX += float64(dx) * step
	vs.CenterY += float64(dy) * step
}

func (vs *ViewState) Zoom(levels int) {
	vs.ZoomLevel += levels
}

// AdjustBudget changes a pinned budget by whole steps. It never drops below 1.
func (vs *ViewState) AdjustBudget(steps int) {
	vs.MaxIterations += steps * budgetStep
	if vs.MaxIterations < 1 {
		vs.MaxIterations = 1
	}
}

func (vs *ViewState) Span() float64 {
	return baseSpan * math.Pow(zoomFactor, float64(vs.ZoomLevel))
}

func (vs *ViewState) View(width int, height int) View {
	return View{
		CenterX:     vs.CenterX,
		CenterY:     vs.CenterY,
		Span:        vs.Span(),
		AspectRatio: float64(height) / float64(width),
	}
}

// Budget uses the pinned budget when one is set and the span policy of settings otherwise.
func (vs *ViewState) Budget(settings Settings) int {
	if vs.MaxIterations > 0 {
		return vs.MaxIterations
	}
	return Budget(vs.Span(), settings.BudgetBase, settings.BudgetReferenceSpan)
}
