package main

import (
	"ZoomMandelbrot/coordinator"
	"github.com/spf13/cobra"
)

func coordinatorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coordinator",
		Short: "Render a zoom sequence, handing tasks to local and remote workers",
		Args:  cobra.ExactArgs(0),
		RunE:  runCoordinator,
	}

	cmd.Flags().String(settingsKey, "coordinator.json", "coordinator settings file")
	return cmd
}

func runCoordinator(cmd *cobra.Command, _ []string) error {
	// At this point usage information has already been printed if obviously incorrect.
	cmd.SilenceUsage = true

	settingsFile, err := cmd.Flags().GetString(settingsKey)
	if err != nil {
		return err
	}

	settings, err := coordinator.LoadSettings(settingsFile)
	if err != nil {
		return err
	}

	c, err := coordinator.NewCoordinator(settings)
	if err != nil {
		return err
	}
	return c.Run()
}
