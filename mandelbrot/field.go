package mandelbrot

import (
	"ZoomMandelbrot/misc"
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrInvalidDimensions = errors.New("invalid dimensions")

// Field holds one escape time per pixel, stored row-major in a single buffer.
type Field struct {
	Width  int
	Height int
	Values []int
}

func NewField(width int, height int) (*Field, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return &Field{
		Width:  width,
		Height: height,
		Values: make([]int, width*height),
	}, nil
}

func (f *Field) At(x int, y int) int {
	return f.Values[y*f.Width+x]
}

func (f *Field) Set(x int, y int, value int) {
	f.Values[y*f.Width+x] = value
}

func (f *Field) Row(y int) []int {
	return f.Values[y*f.Width : (y+1)*f.Width]
}

// Paste copies band into this field starting at row.
func (f *Field) Paste(row int, band *Field) error {
	if band.Width != f.Width || row < 0 || row+band.Height > f.Height {
		return fmt.Errorf("%w: band %dx%d at row %d does not fit %dx%d", ErrInvalidDimensions, band.Width, band.Height, row, f.Width, f.Height)
	}
	copy(f.Values[row*f.Width:], band.Values)
	return nil
}

// MarshalBinary encodes the field as its dimensions followed by little-endian uint32 counts,
// compressed with zstd. Gob uses it when a Field crosses the rpc boundary.
func (f *Field) MarshalBinary() ([]byte, error) {
	raw := make([]byte, 8+4*len(f.Values))
	binary.LittleEndian.PutUint32(raw[0:], uint32(f.Width))
	binary.LittleEndian.PutUint32(raw[4:], uint32(f.Height))
	for i, v := range f.Values {
		binary.LittleEndian.PutUint32(raw[8+4*i:], uint32(v))
	}
	return misc.Compress(raw)
}

func (f *Field) UnmarshalBinary(data []byte) error {
	raw, err := misc.Decompress(data)
	if err != nil {
		return fmt.Errorf("decompressing field: %w", err)
	}
	if len(raw) < 8 {
		return fmt.Errorf("%w: field header is %d bytes", ErrInvalidDimensions, len(raw))
	}

	width := int(binary.LittleEndian.Uint32(raw[0:]))
	height := int(binary.LittleEndian.Uint32(raw[4:]))
	if width <= 0 || height <= 0 || len(raw)-8 != 4*width*height {
		return fmt.Errorf("%w: %dx%d field with %d bytes of counts", ErrInvalidDimensions, width, height, len(raw)-8)
	}

	f.Width = width
	f.Height = height
	f.Values = make([]int, width*height)
	for i := range f.Values {
		f.Values[i] = int(binary.LittleEndian.Uint32(raw[8+4*i:]))
	}
	return nil
}
