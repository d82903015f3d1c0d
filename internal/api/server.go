package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// ServerConfig carries the HTTP-surface settings.
type ServerConfig struct {
	Debug        bool
	AllowOrigins []string
}

// New builds the Echo instance with middleware and routes applied.
// Middleware order: panic recovery, request IDs, request logging, CORS,
// security headers.
func New(cfg ServerConfig, h *Handler) *echo.Echo {
	e := echo.New()

	e.Debug = cfg.Debug
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(RequestLogger())
	if len(cfg.AllowOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.AllowOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost},
		}))
	}
	e.Use(middleware.Secure())

	v1 := e.Group("/api/v1")
	v1.POST("/teas/import", h.importTea)
	v1.GET("/health", h.health)

	return e
}
