package mandelbrot

import (
	"fmt"
	"image"
	"image/color"
)

// Frame is the colour buffer of one rendered frame: packed RGB triples, row-major, rows from top
// to bottom. Image writers rely on this order.
type Frame struct {
	Width  int
	Height int
	Pix    []uint8
}

func NewFrame(width int, height int) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return &Frame{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, 3*width*height),
	}, nil
}

func (f *Frame) SetRGBA(x int, y int, c color.RGBA) {
	i := 3 * (y*f.Width + x)
	f.Pix[i+0] = c.R
	f.Pix[i+1] = c.G
	f.Pix[i+2] = c.B
}

func (f *Frame) RGBAAt(x int, y int) color.RGBA {
	if x < 0 || x >= f.Width || y < 0 || y >= f.Height {
		return color.RGBA{}
	}
	i := 3 * (y*f.Width + x)
	return color.RGBA{R: f.Pix[i+0], G: f.Pix[i+1], B: f.Pix[i+2], A: 255}
}

func (f *Frame) ColorModel() color.Model {
	return color.RGBAModel
}

func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

func (f *Frame) At(x int, y int) color.Color {
	return f.RGBAAt(x, y)
}

// Set lets a Frame be the destination of image/draw and x/image/draw operations.
func (f *Frame) Set(x int, y int, c color.Color) {
	if x < 0 || x >= f.Width || y < 0 || y >= f.Height {
		return
	}
	f.SetRGBA(x, y, color.RGBAModel.Convert(c).(color.RGBA))
}
