// Package documents is the API to transform an uploaded mail into its
// archival artifacts: PDF rendition, WEBP thumbnail, and plain text.
package documents

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mailpaper/mailpaper/model/maildoc"
	"github.com/mailpaper/mailpaper/pkg/config/config"
	"github.com/mailpaper/mailpaper/pkg/convert"
	"github.com/mailpaper/mailpaper/pkg/gotenberg"
	"github.com/mailpaper/mailpaper/pkg/metrics"
	"github.com/mailpaper/mailpaper/pkg/previewfs"
	"github.com/mailpaper/mailpaper/pkg/tika"
)

// thumbnailTTL is how long a generated thumbnail stays in the cache. The
// cache key includes the digest of the source mail, so a stale entry can
// only be a re-upload of the very same message.
const thumbnailTTL = 24 * time.Hour

// PDF returns the PDF rendition of the uploaded mail.
func PDF(c echo.Context) error {
	parser, err := newParser()
	if err != nil {
		return err
	}
	defer func() { _ = parser.Cleanup() }()

	path, _, err := saveUpload(c, parser)
	if err != nil {
		return err
	}

	var rendition string
	err = observe("pdf", func() error {
		var err error
		rendition, err = parser.GeneratePDF(c.Request().Context(), path)
		return err
	})
	if err != nil {
		return err
	}
	return c.File(rendition)
}

// Thumbnail returns a WEBP thumbnail of the uploaded mail. The thumbnails
// are cached, keyed by the sha256 of the source message.
func Thumbnail(c echo.Context) error {
	parser, err := newParser()
	if err != nil {
		return err
	}
	defer func() { _ = parser.Cleanup() }()

	path, sum, err := saveUpload(c, parser)
	if err != nil {
		return err
	}

	cache := config.GetConfig().CacheStorage
	key := "thumbnail:" + sum
	if data, ok := cache.Get(key); ok {
		return c.Blob(http.StatusOK, "image/webp", data)
	}
	previews := previewfs.SystemCache()
	if buf, err := previews.Get(sum); err == nil {
		cache.Set(key, buf.Bytes(), thumbnailTTL)
		return c.Blob(http.StatusOK, "image/webp", buf.Bytes())
	}

	var thumb string
	err = observe("thumbnail", func() error {
		var err error
		thumb, err = parser.Thumbnail(c.Request().Context(), path)
		return err
	})
	if err != nil {
		return err
	}

	data, err := os.ReadFile(thumb)
	if err != nil {
		return err
	}
	if err := previews.Set(sum, bytes.NewBuffer(data)); err != nil {
		return err
	}
	cache.Set(key, data, thumbnailTTL)
	return c.Blob(http.StatusOK, "image/webp", data)
}

// Text returns the extracted plain text of the uploaded mail.
func Text(c echo.Context) error {
	parser, err := newParser()
	if err != nil {
		return err
	}
	defer func() { _ = parser.Cleanup() }()

	path, _, err := saveUpload(c, parser)
	if err != nil {
		return err
	}

	m, err := maildoc.ReadFile(path)
	if err != nil {
		return err
	}

	var text string
	err = observe("text", func() error {
		var err error
		text, err = parser.ExtractText(c.Request().Context(), m)
		return err
	})
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, []byte(text))
}

// Routes sets the routing for the documents service
func Routes(router *echo.Group) {
	router.POST("/pdf", PDF)
	router.POST("/thumbnail", Thumbnail)
	router.POST("/text", Text)
}

func newParser() (*maildoc.Parser, error) {
	cfg := config.GetConfig()
	return maildoc.NewParser(
		tika.NewClient(cfg.Tika.URL, cfg.Tika.Timeout),
		gotenberg.NewClient(cfg.Gotenberg.URL, cfg.Gotenberg.Timeout),
		convert.NewRunner(cfg.Convert.ImageMagickCmd),
	)
}

// saveUpload writes the file part of the request inside the parser temp dir,
// and returns its path and its sha256.
func saveUpload(c echo.Context, parser *maildoc.Parser) (string, string, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return "", "", echo.NewHTTPError(http.StatusBadRequest, "a file part is required")
	}
	src, err := header.Open()
	if err != nil {
		return "", "", err
	}
	defer src.Close()

	path := filepath.Join(parser.TempDir(), "upload.eml")
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640)
	if err != nil {
		return "", "", err
	}
	defer dst.Close()

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(dst, h), src); err != nil {
		return "", "", err
	}
	return path, hex.EncodeToString(h.Sum(nil)), nil
}

func observe(artifact string, fn func() error) error {
	start := time.Now()
	err := fn()
	result := "ok"
	if err != nil {
		result = "ko"
	}
	metrics.ConversionsExecDurations.
		WithLabelValues(artifact, result).
		Observe(time.Since(start).Seconds())
	metrics.ConversionsExecCounter.WithLabelValues(artifact, result).Inc()
	return err
}
