package mandelbrot

import (
	"fmt"
	"github.com/BrugadaSyndrome/bslogger"
)

type Settings struct {
	logger bslogger.Logger

	BudgetBase          float64
	BudgetReferenceSpan float64
	ColorPolicy         ColorPolicy
	Height              uint
	MaxIterations       uint
	PaletteStops        []Stop
	SuperSampling       int
	Width               uint
}

func (s *Settings) Verify() error {
	s.logger = bslogger.NewLogger("MandelbrotSettings", bslogger.Normal, nil)

	if s.BudgetBase <= 0 {
		s.BudgetBase = 100
	}
	if s.BudgetReferenceSpan <= 0 {
		s.BudgetReferenceSpan = 3
	}
	if s.ColorPolicy < Wrap || s.ColorPolicy > Scale {
		s.logger.Warningf("Unknown color policy %d, using %s", int(s.ColorPolicy), Wrap)
		s.ColorPolicy = Wrap
	}
	if s.Height <= 0 {
		s.Height = 1080
	}
	if s.MaxIterations > MaxBudget {
		s.MaxIterations = MaxBudget
	}
	if len(s.PaletteStops) == 0 {
		s.PaletteStops = DefaultStops
	}
	if s.SuperSampling < 1 {
		s.SuperSampling = 1
	}
	if s.Width <= 0 {
		s.Width = 1920
	}

	// The palette is built here once so a bad set of stops fails before any frame is queued
	if _, err := NewPalette(s.PaletteStops); err != nil {
		return err
	}
	return nil
}

func (s *Settings) String() string {
	output := "{MandelbrotSettings "
	output += fmt.Sprintf("Width: %d ", s.Width)
	output += fmt.Sprintf("Height: %d ", s.Height)
	output += fmt.Sprintf("MaxIterations: %d ", s.MaxIterations)
	output += fmt.Sprintf("BudgetBase: %g ", s.BudgetBase)
	output += fmt.Sprintf("BudgetReferenceSpan: %g ", s.BudgetReferenceSpan)
	output += fmt.Sprintf("ColorPolicy: %s ", s.ColorPolicy)
	output += fmt.Sprintf("SuperSampling: %d}", s.SuperSampling)
	return output
}

// AspectRatio is height/width of the output frames.
func (s *Settings) AspectRatio() float64 {
	return float64(s.Height) / float64(s.Width)
}

// Budget is the iteration budget for a frame covering span. A non-zero MaxIterations pins it.
func (s *Settings) Budget(span float64) int {
	if s.MaxIterations > 0 {
		return int(s.MaxIterations)
	}
	return Budget(span, s.BudgetBase, s.BudgetReferenceSpan)
}
