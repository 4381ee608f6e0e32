package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Checker-Finance/loan-pricer/internal/rate"
	"github.com/Checker-Finance/loan-pricer/pkg/config"
)

// NewApp creates the fiber app with the configured limits and timeouts.
func NewApp(cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.ServiceName,
		ReadTimeout:           cfg.HTTPReadTimeout,
		WriteTimeout:          cfg.HTTPWriteTimeout,
		IdleTimeout:           cfg.HTTPIdleTimeout,
		BodyLimit:             cfg.HTTPBodyLimit,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	return app
}

func RegisterRoutes(app *fiber.App, h *Handler, hh *HealthHandler, limiter *rate.Manager) {
	app.Get("/health", hh.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/api/v1")
	if limiter != nil {
		v1.Use(RateLimit(limiter, h.Logger))
	}
	v1.Get("/price", h.PriceQuery)
	v1.Post("/price", h.PriceBody)
}
