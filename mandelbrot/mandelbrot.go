package mandelbrot

import (
	"errors"
	"fmt"
	"math"
)

// LaneWidth is the number of points advanced together by the batched kernel.
const LaneWidth = 4

// escapeRadius bounds each axis of z; a point has escaped once either component leaves [-2, 2].
const escapeRadius = 2.0

var ErrInvalidView = errors.New("invalid view")

type Point struct {
	Re float64
	Im float64
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.Re, p.Im)
}

// View describes which rectangle of the complex plane a frame covers. Span is the extent of the
// imaginary axis and AspectRatio is height/width, so the real axis covers Span/AspectRatio.
type View struct {
	CenterX     float64
	CenterY     float64
	Span        float64
	AspectRatio float64
}

func (v View) Verify() error {
	if !(v.Span > 0) || math.IsInf(v.Span, 0) {
		return fmt.Errorf("%w: span %g", ErrInvalidView, v.Span)
	}
	if !(v.AspectRatio > 0) || math.IsInf(v.AspectRatio, 0) {
		return fmt.Errorf("%w: aspect ratio %g", ErrInvalidView, v.AspectRatio)
	}
	return nil
}

func (v View) String() string {
	output := "{View "
	output += fmt.Sprintf("CenterX: %g ", v.CenterX)
	output += fmt.Sprintf("CenterY: %g ", v.CenterY)
	output += fmt.Sprintf("Span: %g ", v.Span)
	output += fmt.Sprintf("AspectRatio: %g}", v.AspectRatio)
	return output
}

// MapPixel converts the (column, row) pixel of a width x height frame to its sample point.
// Row 0 is the top of the frame and maps to the most positive imaginary value.
func MapPixel(x int, y int, width int, height int, view View) Point {
	realExtent := view.Span / view.AspectRatio
	return Point{
		Re: view.CenterX - realExtent/2 + (float64(x)/float64(width))*realExtent,
		Im: view.CenterY + view.Span/2 - (float64(y)/float64(height))*view.Span,
	}
}

func escaped(zr float64, zi float64) bool {
	return math.Abs(zr) > escapeRadius || math.Abs(zi) > escapeRadius
}

// EscapeTime is the sequential reference for the escape time of c. It returns the number of
// iterates that stayed bounded before the first escaping one, or budget if none escaped.
func EscapeTime(c Point, budget int) int {
	return complete(0, 0, c.Re, c.Im, 0, budget)
}

// complete continues the recurrence from z after n bounded iterates.
func complete(zr float64, zi float64, cr float64, ci float64, n int, budget int) int {
	for n < budget {
		zr, zi = zr*zr-zi*zi+cr, 2*zr*zi+ci
		if escaped(zr, zi) {
			return n
		}
		n++
	}
	return budget
}

// EscapeTimeBatch evaluates every point and returns one escape time per point, in order.
func EscapeTimeBatch(points []Point, budget int) []int {
	iterations := make([]int, len(points))
	EscapeTimeInto(iterations, points, budget)
	return iterations
}

// EscapeTimeInto writes the escape time of points[i] to dst[i]. dst must be at least as long as
// points. Full lanes run batched; the remainder runs through the scalar path.
func EscapeTimeInto(dst []int, points []Point, budget int) {
	if len(dst) < len(points) {
		panic(fmt.Sprintf("mandelbrot: destination holds %d values, need %d", len(dst), len(points)))
	}

	var l lane
	full := len(points) - len(points)%LaneWidth
	for i := 0; i < full; i += LaneWidth {
		l.load(points[i : i+LaneWidth])
		l.evaluate(dst[i:i+LaneWidth], budget)
	}
	for i := full; i < len(points); i++ {
		dst[i] = EscapeTime(points[i], budget)
	}
}

type lane struct {
	cr [LaneWidth]float64
	ci [LaneWidth]float64
	zr [LaneWidth]float64
	zi [LaneWidth]float64
}

func (l *lane) load(points []Point) {
	for k := 0; k < LaneWidth; k++ {
		l.cr[k] = points[k].Re
		l.ci[k] = points[k].Im
		l.zr[k] = 0
		l.zi[k] = 0
	}
}

// evaluate advances all members together until one escapes or the budget runs out, then
// finishes the members that are still bounded one at a time from their current z and count.
func (l *lane) evaluate(dst []int, budget int) {
	n := 0
	for n < budget {
		stop := false
		for k := 0; k < LaneWidth; k++ {
			zr, zi := l.zr[k], l.zi[k]
			l.zr[k] = zr*zr - zi*zi + l.cr[k]
			l.zi[k] = 2*zr*zi + l.ci[k]
			if escaped(l.zr[k], l.zi[k]) {
				stop = true
			}
		}
		if stop {
			break
		}
		n++
	}

	if n == budget {
		for k := 0; k < LaneWidth; k++ {
			dst[k] = budget
		}
		return
	}

	// The batch halted on iterate n+1: members that escaped there report n, the rest have
	// n+1 bounded iterates behind them.
	for k := 0; k < LaneWidth; k++ {
		if escaped(l.zr[k], l.zi[k]) {
			dst[k] = n
			continue
		}
		dst[k] = complete(l.zr[k], l.zi[k], l.cr[k], l.ci[k], n+1, budget)
	}
}

// Budget returns the iteration budget for a frame of the given span. Narrower spans need more
// iterations to resolve detail, so the budget grows with 1/sqrt(span).
func Budget(span float64, base float64, referenceSpan float64) int {
	budget := math.Ceil(base * math.Sqrt(referenceSpan/span))
	if !(budget >= 1) {
		return 1
	}
	if budget > MaxBudget {
		return MaxBudget
	}
	return int(budget)
}

// MaxBudget keeps iteration counts representable in a serialized Field.
const MaxBudget = math.MaxInt32
