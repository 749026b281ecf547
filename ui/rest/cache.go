package rest

import (
	domainCache "github.com/AzielCF/az-apod/domains/cache"
	"github.com/AzielCF/az-apod/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Cache struct {
	Service domainCache.ICacheUsecase
}

func InitRestCache(app fiber.Router, service domainCache.ICacheUsecase) Cache {
	rest := Cache{Service: service}
	app.Get("/cache/stats", rest.GetStats)
	app.Get("/cache/entries", rest.ListEntries)
	app.Post("/cache/clear", rest.Clear)
	app.Get("/cache/settings", rest.GetSettings)

	return rest
}

func (handler *Cache) GetStats(c *fiber.Ctx) error {
	stats, err := handler.Service.GetStats(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Cache stats retrieved",
		Results: stats,
	})
}

func (handler *Cache) ListEntries(c *fiber.Ctx) error {
	entries, err := handler.Service.ListEntries(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Cache entries retrieved",
		Results: entries,
	})
}

func (handler *Cache) Clear(c *fiber.Ctx) error {
	removed, err := handler.Service.Clear(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Cache cleared successfully",
		Results: fiber.Map{"removed": removed},
	})
}

func (handler *Cache) GetSettings(c *fiber.Ctx) error {
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Cache settings retrieved",
		Results: handler.Service.GetSettings(c.UserContext()),
	})
}
