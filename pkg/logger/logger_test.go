package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	t.Run("NamespaceField", func(t *testing.T) {
		buf := new(bytes.Buffer)
		require.NoError(t, Init(Options{Level: "info", Output: buf}))

		WithNamespace("test-nspace").Info("hello")
		assert.Contains(t, buf.String(), "nspace=test-nspace")
		assert.Contains(t, buf.String(), "hello")
	})

	t.Run("LevelFiltering", func(t *testing.T) {
		buf := new(bytes.Buffer)
		require.NoError(t, Init(Options{Level: "warn", Output: buf}))

		log := WithNamespace("test-nspace")
		log.Info("filtered out")
		log.Warnf("kept: %d", 42)

		assert.NotContains(t, buf.String(), "filtered out")
		assert.Contains(t, buf.String(), "kept: 42")
	})

	t.Run("TruncateLongLines", func(t *testing.T) {
		buf := new(bytes.Buffer)
		require.NoError(t, Init(Options{Level: "info", Output: buf}))

		long := make([]byte, 3*maxLineWidth)
		for i := range long {
			long[i] = 'x'
		}
		WithNamespace("test-nspace").Info(string(long))

		assert.Contains(t, buf.String(), "[TRUNCATED]")
	})

	t.Run("InvalidLevel", func(t *testing.T) {
		assert.Error(t, Init(Options{Level: "nope"}))
	})
}
