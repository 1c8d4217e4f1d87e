package mandelbrot

import (
	"fmt"
	xdraw "golang.org/x/image/draw"
)

// Renderer turns views into fields and fields into frames. It holds no per-frame state, so one
// Renderer serves any number of concurrent renders.
type Renderer struct {
	palette       *Palette
	policy        ColorPolicy
	superSampling int
}

func NewRenderer(settings Settings) (*Renderer, error) {
	palette, err := NewPalette(settings.PaletteStops)
	if err != nil {
		return nil, err
	}
	superSampling := settings.SuperSampling
	if superSampling < 1 {
		superSampling = 1
	}
	return &Renderer{
		palette:       palette,
		policy:        settings.ColorPolicy,
		superSampling: superSampling,
	}, nil
}

func (r *Renderer) Palette() *Palette {
	return r.palette
}

func (r *Renderer) SuperSampling() int {
	return r.superSampling
}

// RenderField evaluates every pixel of a width x height frame.
func (r *Renderer) RenderField(width int, height int, view View, budget int) (*Field, error) {
	return r.RenderRows(width, height, 0, height, view, budget)
}

// RenderRows evaluates rows [row, row+rows) of a width x height frame. The returned field is
// width x rows and its row 0 is frame row `row`.
func (r *Renderer) RenderRows(width int, height int, row int, rows int, view View, budget int) (*Field, error) {
	if err := view.Verify(); err != nil {
		return nil, err
	}
	if budget < 1 {
		return nil, fmt.Errorf("iteration budget %d is below 1", budget)
	}
	if row < 0 || rows <= 0 || row+rows > height {
		return nil, fmt.Errorf("%w: rows [%d, %d) of a frame %d high", ErrInvalidDimensions, row, row+rows, height)
	}

	field, err := NewField(width, rows)
	if err != nil {
		return nil, err
	}

	points := make([]Point, width)
	for y := 0; y < rows; y++ {
		for x := 0; x < width; x++ {
			points[x] = MapPixel(x, row+y, width, height, view)
		}
		EscapeTimeInto(field.Row(y), points, budget)
	}
	return field, nil
}

// Colorize maps every escape time of field through the palette.
func (r *Renderer) Colorize(field *Field, budget int) *Frame {
	frame := &Frame{
		Width:  field.Width,
		Height: field.Height,
		Pix:    make([]uint8, 3*field.Width*field.Height),
	}
	for i, iterations := range field.Values {
		c := r.palette.Lookup(r.policy.Index(iterations, budget))
		frame.Pix[3*i+0] = c.R
		frame.Pix[3*i+1] = c.G
		frame.Pix[3*i+2] = c.B
	}
	return frame
}

// Finish colours a field rendered at the supersampled size and scales it down to the output
// size.
func (r *Renderer) Finish(field *Field, budget int) (*Frame, error) {
	sampled := r.Colorize(field, budget)
	if r.superSampling == 1 {
		return sampled, nil
	}

	frame, err := NewFrame(field.Width/r.superSampling, field.Height/r.superSampling)
	if err != nil {
		return nil, err
	}
	xdraw.CatmullRom.Scale(frame, frame.Bounds(), sampled, sampled.Bounds(), xdraw.Src, nil)
	return frame, nil
}

// RenderFrame renders a complete width x height frame.
func (r *Renderer) RenderFrame(width int, height int, view View, budget int) (*Frame, error) {
	field, err := r.RenderField(width*r.superSampling, height*r.superSampling, view, budget)
	if err != nil {
		return nil, err
	}
	return r.Finish(field, budget)
}
