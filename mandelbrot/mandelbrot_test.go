package mandelbrot

import (
	"errors"
	"math"
	"testing"
)

func TestEscapeTime(t *testing.T) {
	tests := []struct {
		name   string
		c      Point
		budget int
		want   int
	}{
		{name: "origin never escapes", c: Point{0, 0}, budget: 50, want: 50},
		{name: "real part beyond 2 escapes on the first iterate", c: Point{3, 0}, budget: 50, want: 0},
		{name: "imaginary part beyond 2 escapes on the first iterate", c: Point{0, 3}, budget: 50, want: 0},
		{name: "corner of the [-2,2] square survives one iterate", c: Point{-2, 2}, budget: 50, want: 1},
		{name: "period two cycle", c: Point{-1, 0}, budget: 80, want: 80},
		{name: "cusp stays bounded", c: Point{0.25, 0}, budget: 100, want: 100},
		{name: "one escapes after two bounded iterates", c: Point{1, 0}, budget: 50, want: 2},
		{name: "one half escapes after four bounded iterates", c: Point{0.5, 0}, budget: 50, want: 4},
		{name: "budget of one", c: Point{0, 0}, budget: 1, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeTime(tt.c, tt.budget); got != tt.want {
				t.Errorf("EscapeTime(%s, %d) = %d, want %d", tt.c, tt.budget, got, tt.want)
			}
		})
	}
}

func gridPoints(columns int, rows int) []Point {
	points := make([]Point, 0, columns*rows)
	for y := 0; y < rows; y++ {
		for x := 0; x < columns; x++ {
			points = append(points, Point{
				Re: -2.5 + 3.5*float64(x)/float64(columns-1),
				Im: -1.5 + 3.0*float64(y)/float64(rows-1),
			})
		}
	}
	return points
}

func TestEscapeTimeBatchMatchesReference(t *testing.T) {
	points := gridPoints(37, 29)
	for _, budget := range []int{1, 2, 7, 64, 255} {
		// Every length from empty through a few lanes plus a tail
		for length := 0; length <= 3*LaneWidth+3; length++ {
			got := EscapeTimeBatch(points[:length], budget)
			if len(got) != length {
				t.Fatalf("budget %d: got %d values for %d points", budget, len(got), length)
			}
			for i, c := range points[:length] {
				if want := EscapeTime(c, budget); got[i] != want {
					t.Errorf("budget %d, length %d: point %d %s = %d, want %d", budget, length, i, c, got[i], want)
				}
			}
		}

		got := EscapeTimeBatch(points, budget)
		for i, c := range points {
			if want := EscapeTime(c, budget); got[i] != want {
				t.Errorf("budget %d: point %d %s = %d, want %d", budget, i, c, got[i], want)
			}
		}
	}
}

func TestEscapeTimeBatchHaltingLane(t *testing.T) {
	tests := []struct {
		name   string
		points []Point
		budget int
		want   []int
	}{
		{
			name:   "one member escapes at once, the others never do",
			points: []Point{{3, 0}, {0, 0}, {0.25, 0}, {-1, 0}},
			budget: 100,
			want:   []int{0, 100, 100, 100},
		},
		{
			name:   "members continue from where the batch stopped",
			points: []Point{{1, 0}, {0.5, 0}, {0, 0}, {3, 0}},
			budget: 50,
			want:   []int{2, 4, 50, 0},
		},
		{
			name:   "several members escape on the halting iterate",
			points: []Point{{0, 3}, {3, 0}, {-3, 0}, {0.5, 0}},
			budget: 50,
			want:   []int{0, 0, 0, 4},
		},
		{
			name:   "no member escapes",
			points: []Point{{0, 0}, {-1, 0}, {0.25, 0}, {-0.5, 0.5}},
			budget: 30,
			want:   []int{30, 30, 30, 30},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EscapeTimeBatch(tt.points, tt.budget)
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("point %d %s = %d, want %d", i, tt.points[i], got[i], tt.want[i])
				}
			}
		})
	}
}

func TestEscapeTimeBudgetInvariance(t *testing.T) {
	points := gridPoints(23, 19)
	small := EscapeTimeBatch(points, 40)
	large := EscapeTimeBatch(points, 400)
	for i, c := range points {
		if small[i] < 40 && large[i] != small[i] {
			t.Errorf("point %s escaped after %d with budget 40 but %d with budget 400", c, small[i], large[i])
		}
		if small[i] > 40 || large[i] > 400 {
			t.Errorf("point %s exceeds its budget: %d, %d", c, small[i], large[i])
		}
	}
}

func TestEscapeTimeIntoShortDestination(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic for a destination shorter than the points")
		}
	}()
	EscapeTimeInto(make([]int, 3), gridPoints(2, 2), 10)
}

func TestMapPixel(t *testing.T) {
	view := View{CenterX: 0, CenterY: 0, Span: 4, AspectRatio: 1}
	tests := []struct {
		x, y int
		want Point
	}{
		{x: 0, y: 0, want: Point{-2, 2}},
		{x: 2, y: 2, want: Point{0, 0}},
		{x: 3, y: 0, want: Point{1, 2}},
		// The last pixel lands one pitch short of the far corner
		{x: 3, y: 3, want: Point{1, -1}},
	}
	for _, tt := range tests {
		if got := MapPixel(tt.x, tt.y, 4, 4, view); got != tt.want {
			t.Errorf("MapPixel(%d, %d) = %s, want %s", tt.x, tt.y, got, tt.want)
		}
	}

	// A wide frame covers more of the real axis than the imaginary one
	wide := View{CenterX: -0.5, CenterY: 0.25, Span: 2, AspectRatio: 0.5}
	if got := MapPixel(0, 0, 8, 4, wide); got != (Point{-2.5, 1.25}) {
		t.Errorf("wide top-left = %s, want (-2.5, 1.25)", got)
	}
}

func TestViewVerify(t *testing.T) {
	tests := []struct {
		name    string
		view    View
		wantErr bool
	}{
		{name: "valid", view: View{Span: 3, AspectRatio: 0.5625}},
		{name: "zero span", view: View{Span: 0, AspectRatio: 1}, wantErr: true},
		{name: "negative span", view: View{Span: -1, AspectRatio: 1}, wantErr: true},
		{name: "NaN span", view: View{Span: math.NaN(), AspectRatio: 1}, wantErr: true},
		{name: "infinite aspect ratio", view: View{Span: 1, AspectRatio: math.Inf(1)}, wantErr: true},
		{name: "zero aspect ratio", view: View{Span: 1}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.view.Verify()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Verify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidView) {
				t.Errorf("Verify() error = %v, want ErrInvalidView", err)
			}
		})
	}
}

func TestBudget(t *testing.T) {
	tests := []struct {
		name string
		span float64
		want int
	}{
		{name: "reference span", span: 3, want: 100},
		{name: "quarter span doubles the budget", span: 0.75, want: 200},
		{name: "wide span", span: 12, want: 50},
		{name: "enormous span floors at one", span: 1e30, want: 1},
		{name: "zero span caps", span: 0, want: MaxBudget},
		{name: "negative span", span: -1, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Budget(tt.span, 100, 3); got != tt.want {
				t.Errorf("Budget(%g) = %d, want %d", tt.span, got, tt.want)
			}
		})
	}

	// Narrower spans never get fewer iterations
	previous := 0
	span := 3.0
	for i := 0; i < 200; i++ {
		budget := Budget(span, 100, 3)
		if budget < previous {
			t.Fatalf("budget dropped from %d to %d at span %g", previous, budget, span)
		}
		previous = budget
		span *= 0.9
	}
}
