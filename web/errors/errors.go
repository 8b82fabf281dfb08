// Package errors is the echo error handler: every error that escapes a
// handler goes through it and is turned into a JSON response.
package errors

import (
	"errors"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"

	"github.com/mailpaper/mailpaper/model/maildoc"
	"github.com/mailpaper/mailpaper/pkg/logger"
)

// ErrorHandler is the default error handler of our HTTP server. It always
// writes a JSON response, with some context (method, uri) on the logs for
// the unexpected errors.
func ErrorHandler(err error, c echo.Context) {
	var he *echo.HTTPError
	var status int
	var detail string

	switch {
	case errors.As(err, &he):
		status = he.Code
		detail = http.StatusText(status)
		if m, ok := he.Message.(string); ok {
			detail = m
		}
	case errors.Is(err, maildoc.ErrParse):
		status = http.StatusUnprocessableEntity
		detail = err.Error()
	case errors.Is(err, os.ErrNotExist):
		status = http.StatusNotFound
		detail = err.Error()
	default:
		status = http.StatusInternalServerError
		detail = err.Error()
	}

	if status >= http.StatusInternalServerError {
		logger.WithNamespace("http").
			WithField("method", c.Request().Method).
			WithField("uri", c.Request().RequestURI).
			Errorf("%s", err)
	}

	if c.Response().Committed {
		return
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, echo.Map{
		"status": status,
		"error":  detail,
	})
}
