// Package convert invokes ImageMagick to rasterize documents. It is used to
// turn the PDF renditions of the mails into images, for the thumbnails
// shown in the interface and for visual comparisons in tests.
//
// ImageMagick is used because it has the better compromise for speed,
// quality and ease of deployment.
// See https://github.com/fawick/speedtest-resize
package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/mailpaper/mailpaper/pkg/logger"
)

// Options are the rasterization parameters accepted by ImageMagick. The
// zero value of each field means "leave this alone".
type Options struct {
	// Density is the input resolution, in DPI.
	Density int
	// Scale resizes the output, with the ImageMagick geometry syntax
	// (e.g. "500x5000>" to only shrink, never enlarge).
	Scale string
	// RemoveAlpha flattens the alpha channel over a white background.
	RemoveAlpha bool
	// Strip removes the EXIF metadata.
	Strip bool
	// Trim removes the edges that are the background color.
	Trim bool
	// AutoOrient rotates the image according to the EXIF metadata.
	AutoOrient bool

	// InputFile is the path of the file to rasterize. Without a page index
	// suffix (like "[0]"), all pages are converted.
	InputFile string
	// OutputFile is the path of the image to produce. The extension decides
	// the output format (webp, jpg, png...).
	OutputFile string
}

// Runner executes ImageMagick with a configured command path.
type Runner struct {
	convertCmd string
}

// NewRunner instantiates a new [Runner]. An empty command defaults to
// "convert" found in $PATH.
func NewRunner(convertCmd string) *Runner {
	if convertCmd == "" {
		convertCmd = "convert"
	}
	return &Runner{convertCmd}
}

// Run rasterizes opts.InputFile into opts.OutputFile.
func (r *Runner) Run(ctx context.Context, opts Options) error {
	if opts.InputFile == "" || opts.OutputFile == "" {
		return fmt.Errorf("convert: both an input and an output file are required")
	}

	var env []string
	tempDir, err := os.MkdirTemp("", "magick")
	if err == nil {
		defer os.RemoveAll(tempDir)
		env = []string{fmt.Sprintf("MAGICK_TEMPORARY_PATH=%s", tempDir)}
	}

	args := r.args(opts)
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.convertCmd, args...)
	cmd.Env = env
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		logger.WithNamespace("convert").
			WithField("stderr", stderr.String()).
			WithField("input", opts.InputFile).
			Errorf("imagemagick failed: %s", err)
		return fmt.Errorf("convert: failed to run %q: %w", r.convertCmd, err)
	}
	return nil
}

func (r *Runner) args(opts Options) []string {
	args := []string{
		"-limit", "Memory", "2GB",
		"-limit", "Map", "3GB",
	}
	if opts.Density > 0 {
		args = append(args, "-density", fmt.Sprintf("%d", opts.Density))
	}
	args = append(args, opts.InputFile)
	if opts.AutoOrient {
		args = append(args, "-auto-orient")
	}
	if opts.RemoveAlpha {
		args = append(args, "-alpha", "remove")
	}
	if opts.Strip {
		args = append(args, "-strip")
	}
	if opts.Trim {
		args = append(args, "-trim")
	}
	if opts.Scale != "" {
		args = append(args, "-scale", opts.Scale)
	}
	return append(args, opts.OutputFile)
}
