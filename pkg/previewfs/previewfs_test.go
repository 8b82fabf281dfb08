package previewfs

import (
	"bytes"
	"testing"

	"github.com/mailpaper/mailpaper/pkg/config/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemCache(t *testing.T) {
	config.UseTestFile(t)
	cache := SystemCache()

	sum := "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"
	_, err := cache.Get(sum)
	require.Error(t, err, "the cache should miss before the first Set")

	content := []byte("RIFF fake webp")
	require.NoError(t, cache.Set(sum, bytes.NewBuffer(content)))

	buf, err := cache.Get(sum)
	require.NoError(t, err)
	assert.Equal(t, content, buf.Bytes())
}
