package coordinator

import (
	"ZoomMandelbrot/mandelbrot"
	"ZoomMandelbrot/misc"
	"errors"
	"fmt"
	"math"
)

// TransitionSettings describes one zoom: FrameCount frames whose span shrinks (or grows, for a
// SpanDecay above 1) geometrically while the centre eases from Start to End. An end coordinate
// left out of the settings stays at its start coordinate, so a transition without an end point
// zooms straight into its start point.
type TransitionSettings struct {
	EndX       *float64
	EndY       *float64
	FrameCount uint
	SpanDecay  float64
	SpanStart  float64
	StartX     float64
	StartY     float64
}

// planeLimit bounds start and end coordinates; the whole set lies well inside it.
const planeLimit = 4

// Verify fills defaults. Coordinates outside the plane are replaced by 0 and reported in the
// returned error; the settings are usable either way.
func (ts *TransitionSettings) Verify() error {
	var replaced []error
	clamp := func(name string, v *float64) {
		if *v < -planeLimit || *v > planeLimit || math.IsNaN(*v) {
			replaced = append(replaced, fmt.Errorf("transition %s %g is outside [-%d, %d], using 0", name, *v, planeLimit, planeLimit))
			*v = 0
		}
	}
	clamp("StartX", &ts.StartX)
	clamp("StartY", &ts.StartY)
	if ts.EndX != nil {
		clamp("EndX", ts.EndX)
	}
	if ts.EndY != nil {
		clamp("EndY", ts.EndY)
	}

	if ts.FrameCount == 0 {
		ts.FrameCount = 100
	}
	if ts.SpanDecay <= 0 {
		ts.SpanDecay = 0.9
	}
	if ts.SpanStart <= 0 {
		ts.SpanStart = 3
	}
	return errors.Join(replaced...)
}

// End is the centre of the last frame.
func (ts *TransitionSettings) End() (float64, float64) {
	x, y := ts.StartX, ts.StartY
	if ts.EndX != nil {
		x = *ts.EndX
	}
	if ts.EndY != nil {
		y = *ts.EndY
	}
	return x, y
}

// Views returns the view of every frame in the transition. Frame i spans SpanStart*SpanDecay^i.
func (ts *TransitionSettings) Views(aspectRatio float64) []mandelbrot.View {
	views := make([]mandelbrot.View, ts.FrameCount)
	endX, endY := ts.End()
	span := ts.SpanStart
	for i := range views {
		t := 0.0
		if ts.FrameCount > 1 {
			t = float64(i) / float64(ts.FrameCount-1)
		}

		// Pan early while zooming in, late while zooming out, so the detail in view moves slowly
		ease := misc.EaseOutExpo(t)
		if ts.SpanDecay > 1 {
			ease = misc.EaseInExpo(t)
		}

		views[i] = mandelbrot.View{
			CenterX:     misc.LerpFloat64(ts.StartX, endX, ease),
			CenterY:     misc.LerpFloat64(ts.StartY, endY, ease),
			Span:        span,
			AspectRatio: aspectRatio,
		}
		span *= ts.SpanDecay
	}
	return views
}
