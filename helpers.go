package main

import (
	"ZoomMandelbrot/mandelbrot"
	"ZoomMandelbrot/output"
	"fmt"
	"github.com/spf13/cobra"
)

const (
	settingsKey = "settings"

	centerXKey       = "center-x"
	centerYKey       = "center-y"
	colorPolicyKey   = "color-policy"
	formatKey        = "format"
	heightKey        = "height"
	maxIterationsKey = "max-iterations"
	outKey           = "out"
	superSamplingKey = "super-sampling"
	widthKey         = "width"
	zoomKey          = "zoom"
)

func frameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "frame",
		Short: "Render a single frame in this process",
		Args:  cobra.ExactArgs(0),
		RunE:  runFrame,
	}

	flags := cmd.Flags()
	flags.Float64(centerXKey, -0.5, "real part of the frame centre")
	flags.Float64(centerYKey, 0, "imaginary part of the frame centre")
	flags.String(colorPolicyKey, mandelbrot.Wrap.String(), "how escape times map to palette entries: wrap, clamp or scale")
	flags.String(formatKey, "", "image format; taken from the output file name when empty")
	flags.Int(heightKey, 1080, "frame height in pixels")
	flags.Int(maxIterationsKey, 0, "iteration budget; 0 derives it from the zoom level")
	flags.String(outKey, "mandelbrot.png", "output file")
	flags.Int(superSamplingKey, 1, "samples per pixel along each axis")
	flags.Int(widthKey, 1920, "frame width in pixels")
	flags.Int(zoomKey, 0, "zoom level; each level shrinks the span by 10%")
	return cmd
}

func runFrame(cmd *cobra.Command, _ []string) error {
	// At this point usage information has already been printed if obviously incorrect.
	cmd.SilenceUsage = true
	flags := cmd.Flags()

	width, _ := flags.GetInt(widthKey)
	height, _ := flags.GetInt(heightKey)
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %d x %d", mandelbrot.ErrInvalidDimensions, width, height)
	}

	var policy mandelbrot.ColorPolicy
	policyName, _ := flags.GetString(colorPolicyKey)
	if err := policy.UnmarshalText([]byte(policyName)); err != nil {
		return err
	}

	superSampling, _ := flags.GetInt(superSamplingKey)
	settings := mandelbrot.Settings{
		ColorPolicy:   policy,
		Height:        uint(height),
		SuperSampling: superSampling,
		Width:         uint(width),
	}
	if err := settings.Verify(); err != nil {
		return err
	}

	state := mandelbrot.ViewState{}
	state.CenterX, _ = flags.GetFloat64(centerXKey)
	state.CenterY, _ = flags.GetFloat64(centerYKey)
	state.ZoomLevel, _ = flags.GetInt(zoomKey)
	state.MaxIterations, _ = flags.GetInt(maxIterationsKey)

	out, _ := flags.GetString(outKey)
	format, _ := flags.GetString(formatKey)
	if format == "" {
		format = output.FormatFromPath(out)
	}
	format, err := output.NormalizeFormat(format)
	if err != nil {
		return err
	}

	renderer, err := mandelbrot.NewRenderer(settings)
	if err != nil {
		return err
	}
	frame, err := renderer.RenderFrame(width, height, state.View(width, height), state.Budget(settings))
	if err != nil {
		return err
	}
	return output.WriteImage(out, frame, format)
}
