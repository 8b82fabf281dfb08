// Package status is here just to say that the API is up and that it can
// reach the services it delegates to, for debugging and monitoring purposes.
package status

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mailpaper/mailpaper/pkg/config/config"
	"github.com/mailpaper/mailpaper/pkg/gotenberg"
	"github.com/mailpaper/mailpaper/pkg/tika"
)

// Status responds with the status of the service
func Status(c echo.Context) error {
	cacheStatus := "healthy"
	gotenbergStatus := "healthy"
	tikaStatus := "healthy"

	cfg := config.GetConfig()
	ctx := c.Request().Context()

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		if _, err := cfg.CacheStorage.CheckStatus(ctx); err != nil {
			cacheStatus = err.Error()
		}
		wg.Done()
	}()

	go func() {
		client := gotenberg.NewClient(cfg.Gotenberg.URL, 10*time.Second)
		if _, err := client.CheckStatus(ctx); err != nil {
			gotenbergStatus = err.Error()
		}
		wg.Done()
	}()

	go func() {
		client := tika.NewClient(cfg.Tika.URL, 10*time.Second)
		if _, err := client.CheckStatus(ctx); err != nil {
			tikaStatus = err.Error()
		}
		wg.Done()
	}()

	wg.Wait()
	code := http.StatusOK
	status := "OK"
	if cacheStatus != "healthy" || gotenbergStatus != "healthy" || tikaStatus != "healthy" {
		code = http.StatusBadGateway
		status = "KO"
	}

	return c.JSON(code, echo.Map{
		"cache":     cacheStatus,
		"gotenberg": gotenbergStatus,
		"tika":      tikaStatus,
		"status":    status,
	})
}

// Routes sets the routing for the status service
func Routes(router *echo.Group) {
	router.GET("", Status)
	router.HEAD("", Status)
	router.GET("/", Status)
	router.HEAD("/", Status)
}
