package rest

import (
	"github.com/AzielCF/az-apod/core/config"
	domainApod "github.com/AzielCF/az-apod/domains/apod"
	"github.com/AzielCF/az-apod/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type App struct{}

func InitRestApp(app fiber.Router) App {
	rest := App{}
	app.Get("/app/version", rest.GetVersion)
	app.Get("/app/settings", rest.GetSettings)
	app.Get("/app/modes", rest.GetModes)

	return rest
}

func (handler *App) GetVersion(c *fiber.Ctx) error {
	version := ""
	if config.Global != nil {
		version = config.Global.App.Version
	}
	return c.JSON(fiber.Map{
		"version": version,
	})
}

func (handler *App) GetSettings(c *fiber.Ctx) error {
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Settings retrieved",
		Results: config.GetAllSettings(),
	})
}

func (handler *App) GetModes(c *fiber.Ctx) error {
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Graphics modes retrieved",
		Results: domainApod.Modes(),
	})
}
