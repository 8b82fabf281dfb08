package status

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gavv/httpexpect/v2"
	"github.com/labstack/echo/v4"

	"github.com/mailpaper/mailpaper/pkg/config/config"
	"github.com/mailpaper/mailpaper/web/errors"
)

func TestStatus(t *testing.T) {
	config.UseTestFile(t)

	gotenbergServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(gotenbergServer.Close)
	tikaServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Apache Tika 2.9.0"))
	}))
	t.Cleanup(tikaServer.Close)

	cfg := config.GetConfig()
	cfg.Gotenberg.URL = gotenbergServer.URL
	cfg.Tika.URL = tikaServer.URL

	handler := echo.New()
	handler.HTTPErrorHandler = errors.ErrorHandler
	Routes(handler.Group("/status"))

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	e := httpexpect.Default(t, ts.URL)

	t.Run("AllServicesHealthy", func(t *testing.T) {
		obj := e.GET("/status").
			Expect().Status(200).
			JSON().Object()
		obj.ValueEqual("status", "OK")
		obj.ValueEqual("cache", "healthy")
		obj.ValueEqual("gotenberg", "healthy")
		obj.ValueEqual("tika", "healthy")
	})

	t.Run("TikaIsDown", func(t *testing.T) {
		cfg.Tika.URL = ""
		defer func() { cfg.Tika.URL = tikaServer.URL }()

		obj := e.GET("/status").
			Expect().Status(502).
			JSON().Object()
		obj.ValueEqual("status", "KO")
		obj.ValueEqual("gotenberg", "healthy")
		obj.Value("tika").String().NotEqual("healthy")
	})
}
