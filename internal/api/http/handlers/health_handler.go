package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/api/dto"
	"github.com/debudebuye/Role-Based-Ticketing-System-sub001/internal/persistence"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	pg    *persistence.Postgres
	redis *persistence.Redis
}

// NewHealthHandler constructs handler.
func NewHealthHandler(pg *persistence.Postgres, redis *persistence.Redis) *HealthHandler {
	return &HealthHandler{pg: pg, redis: redis}
}

// Live GET /health/live.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(dto.OK("alive", nil))
}

// Ready GET /health/ready.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	checks := fiber.Map{"postgres": "ok", "redis": "ok"}
	healthy := true

	if h.pg == nil || h.pg.Pool == nil {
		checks["postgres"] = "not configured"
	} else if err := h.pg.Pool.Ping(c.Context()); err != nil {
		checks["postgres"] = err.Error()
		healthy = false
	}
	if err := h.redis.Ping(c.Context()); err != nil {
		checks["redis"] = err.Error()
	}

	if !healthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Success: false,
			Message: "not ready",
		})
	}
	return c.JSON(dto.OK("ready", checks))
}
