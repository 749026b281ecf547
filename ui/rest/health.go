package rest

import (
	"github.com/AzielCF/az-apod/domains/health"
	"github.com/AzielCF/az-apod/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Health struct {
	Service health.IHealthUsecase
}

func InitRestHealth(app fiber.Router, service health.IHealthUsecase) Health {
	handler := Health{Service: service}

	group := app.Group("/health")
	group.Get("/status", handler.GetStatus)
	group.Post("/check", handler.CheckAll)

	return handler
}

func (h *Health) respond(c *fiber.Ctx, records []health.HealthRecord) error {
	status, code := fiber.StatusOK, "SUCCESS"
	if !h.Service.Healthy(c.UserContext()) {
		status, code = fiber.StatusServiceUnavailable, "UNHEALTHY"
	}
	return c.Status(status).JSON(utils.ResponseData{
		Status:  status,
		Code:    code,
		Message: "Health status retrieved",
		Results: records,
	})
}

func (h *Health) GetStatus(c *fiber.Ctx) error {
	return h.respond(c, h.Service.GetStatus(c.UserContext()))
}

func (h *Health) CheckAll(c *fiber.Ctx) error {
	return h.respond(c, h.Service.CheckAll(c.UserContext()))
}
