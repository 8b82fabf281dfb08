// Package tika is a client for an Apache Tika server, used to extract the
// plain text of the HTML body of a mail.
package tika

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrNoEndpoint is returned when the client is created without a server URL.
var ErrNoEndpoint = errors.New("tika: no server configured")

// Client makes requests to a Tika server.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient instantiates a new [Client] for the given server URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Text sends an HTML document to the Tika server and returns its plain-text
// rendition, as-is. Tika keeps the structure of the document as blank
// lines, so the result is not trimmed.
func (c *Client) Text(ctx context.Context, html []byte) (string, error) {
	if c.baseURL == "" {
		return "", ErrNoEndpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		c.baseURL+"/tika", bytes.NewReader(html))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "text/html")
	req.Header.Set("Accept", "text/plain")

	res, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tika: /tika replied with status %s: %s",
			res.Status, bytes.TrimSpace(payload))
	}
	return string(payload), nil
}

// CheckStatus checks that the Tika server is ready, or returns an error.
func (c *Client) CheckStatus(ctx context.Context) (time.Duration, error) {
	if c.baseURL == "" {
		return 0, ErrNoEndpoint
	}

	before := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/version", nil)
	if err != nil {
		return 0, err
	}
	res, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("tika: unexpected status %s", res.Status)
	}
	return time.Since(before), nil
}
