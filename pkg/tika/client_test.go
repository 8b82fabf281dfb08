package tika

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText(t *testing.T) {
	const html = `<html><head><meta http-equiv="content-type" content="text/html; charset=UTF-8"></head><body><p>Some Text</p></body></html>`
	const expected = "\n\n\n\n\n\n\n\n\nSome Text\n"

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/tika", r.URL.Path)
		assert.Equal(t, "text/html", r.Header.Get("Content-Type"))
		assert.Equal(t, "text/plain", r.Header.Get("Accept"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, html, string(body))

		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(expected))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, 5*time.Second)
	text, err := client.Text(context.Background(), []byte(html))
	require.NoError(t, err)

	// Tika keeps the document structure as blank lines: they must not be
	// trimmed away.
	assert.Equal(t, expected, text)
}

func TestTextWithoutEndpoint(t *testing.T) {
	client := NewClient("", time.Second)
	_, err := client.Text(context.Background(), []byte("<html></html>"))
	assert.ErrorIs(t, err, ErrNoEndpoint)
}

func TestTextWithUnreachableServer(t *testing.T) {
	client := NewClient("http://localhost:1", time.Second)
	_, err := client.Text(context.Background(), []byte("<html></html>"))
	require.Error(t, err)
}

func TestTextWithServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "cannot parse", http.StatusUnprocessableEntity)
	}))
	defer ts.Close()

	client := NewClient(ts.URL, 5*time.Second)
	_, err := client.Text(context.Background(), []byte("<html></html>"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot parse")
}

func TestCheckStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/version", r.URL.Path)
		_, _ = w.Write([]byte("Apache Tika 2.9.0"))
	}))
	defer ts.Close()

	client := NewClient(ts.URL, 5*time.Second)
	_, err := client.CheckStatus(context.Background())
	require.NoError(t, err)

	_, err = NewClient("", time.Second).CheckStatus(context.Background())
	assert.ErrorIs(t, err, ErrNoEndpoint)
}
