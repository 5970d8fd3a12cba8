package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// DependencyCheck probes one backing service.
type DependencyCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// HealthHandler responds to liveness and readiness probes.
type HealthHandler struct {
	serviceName string
	version     string
	storage     string
	checks      []DependencyCheck
	now         func() time.Time
}

// NewHealthHandler returns a new handler instance. storage names the complaint store
// ("postgres" or "memory") reported by /api/health.
func NewHealthHandler(serviceName, version, storage string, checks ...DependencyCheck) *HealthHandler {
	return &HealthHandler{serviceName: serviceName, version: version, storage: storage, checks: checks, now: time.Now}
}

// Health GET /api/health.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	deps, ready := h.probe(c.UserContext())
	database := "connected"
	if status, checked := deps[h.storage]; checked && status != "ok" {
		database = "disconnected"
	}
	if h.storage == "memory" {
		database = "in-memory"
	}
	status := "OK"
	if !ready {
		status = "DEGRADED"
	}
	return c.JSON(fiber.Map{
		"status":    status,
		"service":   h.serviceName,
		"version":   h.version,
		"timestamp": h.now().UTC(),
		"database":  database,
	})
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
	depStatus, ready := h.probe(c.UserContext())
	if ready {
		return c.JSON(fiber.Map{
			"status":       "ready",
			"dependencies": depStatus,
		})
	}

	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"success": false,
		"error": fiber.Map{
			"code":    "DEPENDENCY_UNAVAILABLE",
			"message": "one or more dependencies unavailable",
			"details": depStatus,
		},
	})
}

func (h *HealthHandler) probe(parent context.Context) (fiber.Map, bool) {
	ctx, cancel := context.WithTimeout(parent, 2*time.Second)
	defer cancel()

	depStatus := fiber.Map{}
	ready := true
	for _, check := range h.checks {
		if err := check.Ping(ctx); err != nil {
			depStatus[check.Name] = err.Error()
			ready = false
			continue
		}
		depStatus[check.Name] = "ok"
	}
	return depStatus, ready
}
