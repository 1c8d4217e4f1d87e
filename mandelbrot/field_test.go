package mandelbrot

import (
	"errors"
	"testing"
)

func TestNewFieldInvalid(t *testing.T) {
	for _, dims := range [][2]int{{0, 1}, {1, 0}, {-3, 4}} {
		if _, err := NewField(dims[0], dims[1]); !errors.Is(err, ErrInvalidDimensions) {
			t.Errorf("NewField(%d, %d) error = %v, want ErrInvalidDimensions", dims[0], dims[1], err)
		}
	}
}

func TestFieldPaste(t *testing.T) {
	field, err := NewField(3, 4)
	if err != nil {
		t.Fatal(err)
	}
	band, err := NewField(3, 2)
	if err != nil {
		t.Fatal(err)
	}
	for i := range band.Values {
		band.Values[i] = i + 1
	}

	if err := field.Paste(1, band); err != nil {
		t.Fatalf("Paste() error = %v", err)
	}
	want := []int{0, 0, 0, 1, 2, 3, 4, 5, 6, 0, 0, 0}
	for i, v := range want {
		if field.Values[i] != v {
			t.Errorf("Values[%d] = %d, want %d", i, field.Values[i], v)
		}
	}
	if got := field.At(2, 2); got != 6 {
		t.Errorf("At(2, 2) = %d, want 6", got)
	}

	if err := field.Paste(3, band); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("Paste past the bottom error = %v, want ErrInvalidDimensions", err)
	}
	narrow, _ := NewField(2, 1)
	if err := field.Paste(0, narrow); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("Paste of a narrow band error = %v, want ErrInvalidDimensions", err)
	}
}

func TestFieldBinary(t *testing.T) {
	field, _ := NewField(5, 3)
	for i := range field.Values {
		field.Values[i] = i * 1000
	}
	field.Set(4, 2, MaxBudget)

	data, err := field.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error = %v", err)
	}

	var decoded Field
	if err := decoded.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary() error = %v", err)
	}
	if decoded.Width != 5 || decoded.Height != 3 {
		t.Fatalf("decoded %dx%d, want 5x3", decoded.Width, decoded.Height)
	}
	for i := range field.Values {
		if decoded.Values[i] != field.Values[i] {
			t.Errorf("Values[%d] = %d, want %d", i, decoded.Values[i], field.Values[i])
		}
	}

	if err := decoded.UnmarshalBinary([]byte("not a field")); err == nil {
		t.Error("UnmarshalBinary() of garbage succeeded")
	}
}
