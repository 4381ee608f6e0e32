package api

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Checker-Finance/loan-pricer/internal/metrics"
	"github.com/Checker-Finance/loan-pricer/internal/rate"
	"github.com/Checker-Finance/loan-pricer/pkg/model"
)

// RateLimit rejects callers, keyed by IP, that exhaust their token bucket.
func RateLimit(m *rate.Manager, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.IP()
		if m.Allow(ip) {
			return c.Next()
		}
		metrics.RateLimitedTotal.Inc()
		logger.Debug("api.rate_limited", zap.String("ip", ip), zap.String("path", c.Path()))
		return c.Status(http.StatusTooManyRequests).JSON(model.Response{
			StatusCode: http.StatusTooManyRequests,
			Body:       "Too many requests, please retry later",
		})
	}
}
