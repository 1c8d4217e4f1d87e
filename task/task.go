package task

import (
	"ZoomMandelbrot/mandelbrot"
	"errors"
	"fmt"
	"strings"
)

const (
	Row Generation = iota
	Frame
)

// Generation decides how much of a frame one task covers.
type Generation int

func (g Generation) String() string {
	if g < Row || g > Frame {
		return fmt.Sprintf("Generation(%d)", int(g))
	}
	return []string{
		"Row", "Frame",
	}[g]
}

func (g Generation) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

func (g *Generation) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "row":
		*g = Row
	case "frame":
		*g = Frame
	default:
		return fmt.Errorf("unknown task generation %q", string(text))
	}
	return nil
}

// ErrNoMoreTasks tells a worker that every task has been handed out.
var ErrNoMoreTasks = errors.New("all tasks handed out")

// IsNoMoreTasks also matches the error after it has crossed the rpc boundary as a string.
func IsNoMoreTasks(err error) bool {
	return err != nil && (errors.Is(err, ErrNoMoreTasks) || err.Error() == ErrNoMoreTasks.Error())
}

// Task asks a worker for rows [Row, Row+Rows) of frame FrameNumber. Width and Height are the
// size the frame is sampled at.
type Task struct {
	Budget        int
	FrameNumber   uint
	Height        int
	ID            uint
	Row           int
	Rows          int
	View          mandelbrot.View
	Width         int
	WorkerAddress string
}

func NewTask(id uint, frameNumber uint, view mandelbrot.View, budget int, width int, height int) Task {
	return Task{
		Budget:      budget,
		FrameNumber: frameNumber,
		Height:      height,
		ID:          id,
		Rows:        height,
		View:        view,
		Width:       width,
	}
}

func (t *Task) String() string {
	output := "{Task "
	output += fmt.Sprintf("ID: %d ", t.ID)
	output += fmt.Sprintf("Frame Number: %d ", t.FrameNumber)
	output += fmt.Sprintf("Rows: [%d, %d) ", t.Row, t.Row+t.Rows)
	output += fmt.Sprintf("Budget: %d}", t.Budget)
	return output
}

// Split cuts the frame of t into tasks of at most rowsPerTask rows, numbering them from
// firstID.
func (t *Task) Split(firstID uint, rowsPerTask int) []Task {
	if rowsPerTask < 1 {
		rowsPerTask = 1
	}
	tasks := make([]Task, 0, (t.Height+rowsPerTask-1)/rowsPerTask)
	id := firstID
	for row := 0; row < t.Height; row += rowsPerTask {
		band := *t
		band.ID = id
		band.Row = row
		band.Rows = rowsPerTask
		if row+rowsPerTask > t.Height {
			band.Rows = t.Height - row
		}
		tasks = append(tasks, band)
		id++
	}
	return tasks
}

// Render evaluates the rows of t with renderer. A failed render still produces a Result, with
// Error set, so the coordinator learns which frame is affected.
func (t *Task) Render(renderer *mandelbrot.Renderer) (Result, error) {
	result := Result{
		Budget:        t.Budget,
		FrameNumber:   t.FrameNumber,
		Row:           t.Row,
		TaskID:        t.ID,
		WorkerAddress: t.WorkerAddress,
	}
	field, err := renderer.RenderRows(t.Width, t.Height, t.Row, t.Rows, t.View, t.Budget)
	if err != nil {
		err = fmt.Errorf("rendering %s: %w", t.String(), err)
		result.Error = err.Error()
		return result, err
	}
	result.Field = field
	return result, nil
}
