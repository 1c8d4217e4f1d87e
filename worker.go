package main

import (
	"ZoomMandelbrot/worker"
	"github.com/spf13/cobra"
)

func workerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Render tasks for a coordinator on another machine",
		Args:  cobra.ExactArgs(0),
		RunE:  runWorker,
	}

	cmd.Flags().String(settingsKey, "worker.json", "worker settings file")
	return cmd
}

func runWorker(cmd *cobra.Command, _ []string) error {
	// At this point usage information has already been printed if obviously incorrect.
	cmd.SilenceUsage = true

	settingsFile, err := cmd.Flags().GetString(settingsKey)
	if err != nil {
		return err
	}

	settings, err := worker.LoadSettings(settingsFile)
	if err != nil {
		return err
	}

	w, err := worker.NewWorker(settings)
	if err != nil {
		return err
	}
	return w.Run()
}
