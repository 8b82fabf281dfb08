package safehttp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultClient(t *testing.T) {
	if testing.Short() {
		t.Skip("an internet access is required for this test: test skipped due to the use of --short flag")
	}

	res, err := DefaultClient.Get("https://github.com/")
	require.NoError(t, err)
	defer res.Body.Close()

	_, err = DefaultClient.Get("http://192.168.0.1/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a public IP address")

	_, err = DefaultClient.Get("http://1.2.3.4:5984/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a safe port")
}

func TestCheckResource(t *testing.T) {
	if testing.Short() {
		t.Skip("an internet access is required for this test: test skipped due to the use of --short flag")
	}

	ctx := context.Background()
	require.NoError(t, CheckResource(ctx, "https://github.com/"))

	err := CheckResource(ctx, "https://github.com/mailpaper/nonexistent-repository-42")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status")
}
