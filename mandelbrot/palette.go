package mandelbrot

import (
	"ZoomMandelbrot/misc"
	"errors"
	"fmt"
	"image/color"
	"sort"
	"strings"
)

// PaletteSize is the number of entries in a Palette.
const PaletteSize = 256

var ErrInvalidPalette = errors.New("invalid palette")

// Stop anchors a palette colour at a position in [0, 1].
type Stop struct {
	Position float64
	Color    color.RGBA
}

// DefaultStops is the blue, white, orange, black gradient used for zoom sequences.
var DefaultStops = []Stop{
	{Position: 0.0, Color: color.RGBA{R: 0, G: 7, B: 100, A: 255}},
	{Position: 0.16, Color: color.RGBA{R: 32, G: 107, B: 203, A: 255}},
	{Position: 0.42, Color: color.RGBA{R: 237, G: 255, B: 255, A: 255}},
	{Position: 0.6425, Color: color.RGBA{R: 255, G: 170, B: 0, A: 255}},
	{Position: 0.8575, Color: color.RGBA{R: 0, G: 2, B: 0, A: 255}},
	{Position: 1.0, Color: color.RGBA{R: 0, G: 0, B: 0, A: 255}},
}

// Palette is built once and only read afterwards, so one Palette can be shared by every frame
// rendered concurrently.
type Palette struct {
	colors [PaletteSize]color.RGBA
}

func NewPalette(stops []Stop) (*Palette, error) {
	if len(stops) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 stops, got %d", ErrInvalidPalette, len(stops))
	}
	for i := 1; i < len(stops); i++ {
		if !(stops[i].Position > stops[i-1].Position) {
			return nil, fmt.Errorf("%w: stop %d at %g does not follow %g", ErrInvalidPalette, i, stops[i].Position, stops[i-1].Position)
		}
	}

	p := &Palette{}
	last := len(stops) - 2
	for i := 0; i < PaletteSize; i++ {
		position := float64(i) / float64(PaletteSize-1)

		// Segment whose start is the last stop at or before position
		segment := sort.Search(len(stops), func(j int) bool { return stops[j].Position > position }) - 1
		if segment < 0 {
			segment = 0
		}
		if segment > last {
			segment = last
		}

		start, end := stops[segment], stops[segment+1]
		fraction := (position - start.Position) / (end.Position - start.Position)
		p.colors[i] = color.RGBA{
			R: misc.LerpUint8(start.Color.R, end.Color.R, fraction),
			G: misc.LerpUint8(start.Color.G, end.Color.G, fraction),
			B: misc.LerpUint8(start.Color.B, end.Color.B, fraction),
			A: 255,
		}
	}
	return p, nil
}

// Lookup returns the colour for index, clamped into the palette.
func (p *Palette) Lookup(index int) color.RGBA {
	if index < 0 {
		index = 0
	}
	if index > PaletteSize-1 {
		index = PaletteSize - 1
	}
	return p.colors[index]
}

// ColorPolicy reduces an escape time to a palette index. The policies band differently once
// escape times pass 255, so each render picks one explicitly.
type ColorPolicy int

const (
	// Wrap cycles through the first 255 entries, for budgets well beyond the palette size.
	Wrap ColorPolicy = iota
	// Clamp uses the escape time as the index; anything past 255 takes the last colour.
	Clamp
	// Scale stretches [0, budget] over the whole palette.
	Scale
)

var colorPolicyNames = []string{"wrap", "clamp", "scale"}

func (cp ColorPolicy) String() string {
	if cp < Wrap || cp > Scale {
		return fmt.Sprintf("ColorPolicy(%d)", int(cp))
	}
	return colorPolicyNames[cp]
}

func (cp ColorPolicy) Index(iterations int, budget int) int {
	switch cp {
	case Wrap:
		return iterations % (PaletteSize - 1)
	case Scale:
		if budget <= 0 {
			return 0
		}
		return int(int64(iterations) * (PaletteSize - 1) / int64(budget))
	default:
		return iterations
	}
}

func (cp ColorPolicy) MarshalText() ([]byte, error) {
	if cp < Wrap || cp > Scale {
		return nil, fmt.Errorf("unknown color policy %d", int(cp))
	}
	return []byte(cp.String()), nil
}

func (cp *ColorPolicy) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for i, n := range colorPolicyNames {
		if n == name {
			*cp = ColorPolicy(i)
			return nil
		}
	}
	return fmt.Errorf("unknown color policy %q", string(text))
}
