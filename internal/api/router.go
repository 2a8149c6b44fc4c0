package api

import (
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"imgrab/internal/api/controllers"
	"imgrab/internal/app"
)

func RegisterRoutes(e *echo.Echo, appCtx *app.Context) {

	// Middleware: Request Logger
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c *echo.Context, v middleware.RequestLoggerValues) error {
			appCtx.Logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))

	statsCtrl := &controllers.StatsController{App: appCtx}

	// Live run progress
	e.GET("/stats", statsCtrl.Handle)

	// Recorded outcomes, when the history store is enabled
	e.GET("/downloads", statsCtrl.HandleDownloads)
}
