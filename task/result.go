package task

import (
	"ZoomMandelbrot/mandelbrot"
	"fmt"
)

// Result carries the escape times of a Task's rows back to the coordinator. Error is set
// instead of Field when the worker could not render the task.
type Result struct {
	Budget        int
	Error         string
	Field         *mandelbrot.Field
	FrameNumber   uint
	Row           int
	TaskID        uint
	WorkerAddress string
}

func (r *Result) String() string {
	output := "{Result "
	output += fmt.Sprintf("Task ID: %d ", r.TaskID)
	output += fmt.Sprintf("Frame Number: %d ", r.FrameNumber)
	output += fmt.Sprintf("Row: %d ", r.Row)
	if r.Field != nil {
		output += fmt.Sprintf("Rows: %d ", r.Field.Height)
	}
	if r.Error != "" {
		output += fmt.Sprintf("Error: %s ", r.Error)
	}
	output += fmt.Sprintf("Worker: %s}", r.WorkerAddress)
	return output
}
