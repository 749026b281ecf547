package rest

import (
	"github.com/AzielCF/az-apod/pkg/fillworker"
	"github.com/gofiber/fiber/v2"
)

var fillPool *fillworker.Pool

// SetFillPool registers the pool reported by GetFillPoolStats.
func SetFillPool(pool *fillworker.Pool) {
	fillPool = pool
}

// GetFillPoolStats returns real-time fill pool statistics
func GetFillPoolStats(c *fiber.Ctx) error {
	if fillPool == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Fill worker pool not initialized",
		})
	}

	return c.JSON(fillPool.GetStats())
}
