package output

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
)

// FfmpegAvailable reports whether an ffmpeg binary is on the PATH.
func FfmpegAvailable() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// MovieArgs are the ffmpeg arguments that join dir/0.<ext>, dir/1.<ext>, ... into dir/name.mp4.
func MovieArgs(dir string, format string, framerate int, name string) []string {
	return []string{
		"-y",
		"-loglevel", "error",
		"-framerate", strconv.Itoa(framerate),
		"-i", filepath.Join(dir, "%d."+Extension(format)),
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		filepath.Join(dir, name+".mp4"),
	}
}

func MakeMovie(ctx context.Context, dir string, format string, framerate int, name string) (string, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg", MovieArgs(dir, format, framerate, name)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	return filepath.Join(dir, name+".mp4"), nil
}
