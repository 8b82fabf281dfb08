package convert

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerArgs(t *testing.T) {
	r := NewRunner("")

	t.Run("AllOptions", func(t *testing.T) {
		args := r.args(Options{
			Density:     300,
			Scale:       "500x5000>",
			RemoveAlpha: true,
			Strip:       true,
			AutoOrient:  true,
			InputFile:   "in.pdf",
			OutputFile:  "out.webp",
		})
		assert.Equal(t, []string{
			"-limit", "Memory", "2GB",
			"-limit", "Map", "3GB",
			"-density", "300",
			"in.pdf",
			"-auto-orient",
			"-alpha", "remove",
			"-strip",
			"-scale", "500x5000>",
			"out.webp",
		}, args)
	})

	t.Run("ZeroValuesAreOmitted", func(t *testing.T) {
		args := r.args(Options{InputFile: "in.pdf", OutputFile: "out.jpg"})
		assert.Equal(t, []string{
			"-limit", "Memory", "2GB",
			"-limit", "Map", "3GB",
			"in.pdf",
			"out.jpg",
		}, args)
	})

	t.Run("TrimIsOrderedBeforeScale", func(t *testing.T) {
		args := r.args(Options{Trim: true, Scale: "100x100", InputFile: "a", OutputFile: "b"})
		var trimIdx, scaleIdx int
		for i, a := range args {
			switch a {
			case "-trim":
				trimIdx = i
			case "-scale":
				scaleIdx = i
			}
		}
		assert.Less(t, trimIdx, scaleIdx)
	})
}

func TestRunnerRun(t *testing.T) {
	t.Run("MissingFiles", func(t *testing.T) {
		err := NewRunner("").Run(context.Background(), Options{})
		require.Error(t, err)
	})

	t.Run("DefaultCommand", func(t *testing.T) {
		assert.Equal(t, "convert", NewRunner("").convertCmd)
		assert.Equal(t, "magick", NewRunner("magick").convertCmd)
	})
}
