package main

import (
	"context"
	"github.com/spf13/cobra"
	"os"
)

func mainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zoommandelbrot",
		Short: "Render Mandelbrot set frames and zoom sequences",
	}

	cmd.AddCommand(coordinatorCmd(), workerCmd(), frameCmd())
	return cmd
}

func main() {
	ctx := context.Background()

	err := mainCmd().ExecuteContext(ctx)
	if err != nil {
		// At this point the error has already been printed; no need to print again.
		os.Exit(1)
	}
}
