// Package gotenberg is a client for a Gotenberg server. Gotenberg does the
// heavy rendering work for the stack: HTML documents are printed to PDF via
// its embedded Chromium, and PDF documents can be merged into a single one.
package gotenberg

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Asset is a file sent along the index.html, so that it can be referenced by
// it (images mostly).
type Asset struct {
	Name    string
	Content []byte
}

// Client makes requests to a Gotenberg server.
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

// ConvertHTML renders the given index.html (and its assets) to a PDF, with
// an A4 paper size. The assets can be referenced by the HTML with their bare
// file names.
func (c *Client) ConvertHTML(ctx context.Context, index []byte, assets []Asset) ([]byte, error) {
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)

	part, err := w.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(index); err != nil {
		return nil, err
	}
	for _, asset := range assets {
		part, err := w.CreateFormFile("files", asset.Name)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(asset.Content); err != nil {
			return nil, err
		}
	}

	// A4, with small margins, and no scaling surprises
	fields := map[string]string{
		"paperWidth":        "8.27",
		"paperHeight":       "11.7",
		"marginTop":         "0.1",
		"marginBottom":      "0.1",
		"marginLeft":        "0.1",
		"marginRight":       "0.1",
		"preferCssPageSize": "false",
		"scale":             "1.0",
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return c.post(ctx, "/forms/chromium/convert/html", w.FormDataContentType(), body)
}

// Merge concatenates the given PDF documents into a single PDF, in the order
// they are given.
func (c *Client) Merge(ctx context.Context, pdfs ...[]byte) ([]byte, error) {
	if len(pdfs) == 0 {
		return nil, fmt.Errorf("gotenberg: no pdf to merge")
	}
	if len(pdfs) == 1 {
		return pdfs[0], nil
	}

	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	for i, pdf := range pdfs {
		// Gotenberg merges the files in the alphanumeric order of their
		// names, so the position is encoded in the name.
		part, err := w.CreateFormFile("files", fmt.Sprintf("%03d.pdf", i+1))
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(pdf); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return c.post(ctx, "/forms/pdfengines/merge", w.FormDataContentType(), body)
}

// CheckStatus checks that the Gotenberg server is ready, or returns an
// error.
func (c *Client) CheckStatus(ctx context.Context) (time.Duration, error) {
	before := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return 0, err
	}
	res, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("gotenberg: unexpected status %s", res.Status)
	}
	return time.Since(before), nil
}

func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gotenberg: %s replied with status %s: %s",
			path, res.Status, bytes.TrimSpace(payload))
	}
	return payload, nil
}
