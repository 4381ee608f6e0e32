package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Checker-Finance/loan-pricer/internal/audit"
	"github.com/Checker-Finance/loan-pricer/internal/tables"
)

// HealthHandler probes the reference tables and, when it supports it, the audit backend.
type HealthHandler struct {
	Logger  *zap.Logger
	Tables  tables.Provider
	Audit   audit.Logger
	Timeout time.Duration
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
	defer cancel()

	res := healthResponse{Status: "ok", Checks: map[string]string{}}

	if _, err := h.Tables.GetTable(ctx, tables.ProductSpecifications); err != nil {
		h.Logger.Warn("api.health.tables_failed", zap.Error(err))
		res.Status = "degraded"
		res.Checks["tables"] = err.Error()
	} else {
		res.Checks["tables"] = "ok"
	}

	if hc, ok := h.Audit.(audit.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			h.Logger.Warn("api.health.audit_failed", zap.Error(err))
			res.Status = "degraded"
			res.Checks["audit"] = err.Error()
		} else {
			res.Checks["audit"] = "ok"
		}
	}

	status := http.StatusOK
	if res.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	return c.Status(status).JSON(res)
}
