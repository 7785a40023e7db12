package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/securebank/bank-portal/internal/observability"
	"github.com/securebank/bank-portal/internal/persistence"
	"github.com/securebank/bank-portal/internal/service"
)

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	postgres    *persistence.Postgres
	redis       *persistence.Redis
	metrics     *observability.Metrics
	audit       *service.AuditService
}

// NewHealthHandler returns a new handler instance. postgres and redis are
// optional; a nil dependency is reported as disabled.
func NewHealthHandler(serviceName, version string, postgres *persistence.Postgres, redis *persistence.Redis, metrics *observability.Metrics) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, postgres: postgres, redis: redis, metrics: metrics}
}

// WithAudit adds the audit queue's dropped count to the metrics.
func (h *HealthHandler) WithAudit(audit *service.AuditService) *HealthHandler {
	h.audit = audit
	return h
}

// Live reports service liveness.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": h.serviceName,
		"version": h.version,
	})
}

// Ready reports service readiness by checking dependencies.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true

	switch {
	case !h.postgres.Enabled():
		depStatus["postgres"] = "disabled"
	case h.postgres.Ping(ctx) != nil:
		depStatus["postgres"] = "unreachable"
		ready = false
	default:
		depStatus["postgres"] = "ok"
	}

	if h.redis == nil {
		depStatus["redis"] = "disabled"
	} else if err := h.redis.Ping(ctx); err != nil {
		depStatus["redis"] = err.Error()
		ready = false
	} else {
		depStatus["redis"] = "ok"
	}

	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}

// Metrics exposes the in-memory counters, including navigation outcomes
// per route.
func (h *HealthHandler) Metrics(c *fiber.Ctx) error {
	data := fiber.Map{}
	for k, v := range h.metrics.Snapshot() {
		data[k] = v
	}
	if h.audit != nil {
		data["audit_dropped"] = h.audit.Dropped()
	}
	return c.JSON(fiber.Map{"data": data})
}
