package bot

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/piumal/stingraybot/internal/logger"
)

// NewServer creates and configures the webhook HTTP server.
func NewServer(log *slog.Logger, handler *WebhookHandler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(logger.EchoMiddleware(log))

	handler.RegisterRoutes(e)

	e.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	return e
}
