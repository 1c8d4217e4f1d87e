package output

import (
	"ZoomMandelbrot/mandelbrot"
	"bufio"
	"fmt"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	FormatBmp  = "bmp"
	FormatJpeg = "jpeg"
	FormatPng  = "png"
	FormatPpm  = "ppm"
	FormatTiff = "tiff"
)

var Formats = []string{FormatBmp, FormatJpeg, FormatPng, FormatPpm, FormatTiff}

// NormalizeFormat maps a format name or file extension to one of Formats.
func NormalizeFormat(format string) (string, error) {
	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "bmp":
		return FormatBmp, nil
	case "jpg", "jpeg":
		return FormatJpeg, nil
	case "png":
		return FormatPng, nil
	case "ppm", "":
		return FormatPpm, nil
	case "tif", "tiff":
		return FormatTiff, nil
	}
	return "", fmt.Errorf("unknown image format %q", format)
}

// FormatFromPath guesses the format from the extension of path. Unknown extensions come back
// unchanged so NormalizeFormat reports them.
func FormatFromPath(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// Extension is the file extension written for format.
func Extension(format string) string {
	if format == FormatJpeg {
		return "jpg"
	}
	return format
}

// WritePPM writes frame as a binary pixel map: a three line header followed by the packed RGB
// rows, top to bottom.
func WritePPM(w io.Writer, frame *mandelbrot.Frame) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P6\n%d %d\n255\n", frame.Width, frame.Height); err != nil {
		return err
	}
	if _, err := bw.Write(frame.Pix); err != nil {
		return err
	}
	return bw.Flush()
}

func Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case FormatBmp:
		return bmp.Encode(w, img)
	case FormatJpeg:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	case FormatPng:
		return png.Encode(w, img)
	case FormatTiff:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case FormatPpm:
		frame, ok := img.(*mandelbrot.Frame)
		if !ok {
			return fmt.Errorf("ppm output needs a *mandelbrot.Frame, got %T", img)
		}
		return WritePPM(w, frame)
	}
	return fmt.Errorf("unknown image format %q", format)
}

func WriteImage(path string, img image.Image, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create image %s: %w", path, err)
	}
	if err := Encode(f, img, format); err != nil {
		f.Close()
		return fmt.Errorf("unable to encode image %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("unable to close image %s: %w", path, err)
	}
	return nil
}
