// Package web is the HTTP surface of mailpaper. It exposes the artifact
// generation under /documents, a health check under /status, and the
// prometheus metrics under /metrics.
package web

import (
	"context"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	build "github.com/mailpaper/mailpaper/pkg/config"
	"github.com/mailpaper/mailpaper/pkg/config/config"
	"github.com/mailpaper/mailpaper/pkg/logger"
	"github.com/mailpaper/mailpaper/pkg/metrics"
	"github.com/mailpaper/mailpaper/pkg/utils"
	"github.com/mailpaper/mailpaper/web/documents"
	"github.com/mailpaper/mailpaper/web/errors"
	"github.com/mailpaper/mailpaper/web/status"
)

// CreateRouter returns the echo router with all the routes and middlewares
// of the stack.
func CreateRouter() *echo.Echo {
	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.HTTPErrorHandler = errors.ErrorHandler

	router.Use(timersMiddleware)
	router.Use(middleware.Recover())
	if build.IsDevRelease() {
		router.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
			Format: "time=${time_rfc3339}\tstatus=${status}\tmethod=${method}\thost=${host}\turi=${uri}\tbytes_out=${bytes_out}\n",
		}))
	}

	status.Routes(router.Group("/status"))
	documents.Routes(router.Group("/documents"))
	metrics.Routes(router.Group("/metrics"))
	router.GET("/version", Version)
	return router
}

// Version responds with the git commit used at the build
func Version(c echo.Context) error {
	return c.JSON(200, echo.Map{
		"version":    build.Version,
		"build_mode": build.BuildMode,
		"build_time": build.BuildTime,
	})
}

func timersMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
			status := strconv.Itoa(c.Response().Status)
			metrics.HTTPTotalDurations.
				WithLabelValues(c.Request().Method, status).
				Observe(v)
		}))
		defer timer.ObserveDuration()
		return next(c)
	}
}

type server struct {
	router *echo.Echo
}

func (s *server) Shutdown(ctx context.Context) error {
	logger.WithNamespace("web").Infof("Shutting down the HTTP server...")
	return s.router.Shutdown(ctx)
}

// ListenAndServe creates and setups all the necessary http endpoints and
// starts them, returning a shutdowner for a graceful stop.
func ListenAndServe() (utils.Shutdowner, error) {
	router := CreateRouter()
	addr := config.ServerAddr()
	errs := make(chan error, 1)
	go func() { errs <- router.Start(addr) }()
	select {
	case err := <-errs:
		return nil, err
	default:
	}
	logger.WithNamespace("web").Infof("Listening on %s", addr)
	return &server{router}, nil
}
