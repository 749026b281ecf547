package rest

import (
	"fmt"

	domainApod "github.com/AzielCF/az-apod/domains/apod"
	"github.com/AzielCF/az-apod/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type Apod struct {
	Service domainApod.IApodUsecase
}

// InitRestApod serves the picture at "/" and at "/index.php", the path the
// existing Atari programs request.
func InitRestApod(app fiber.Router, service domainApod.IApodUsecase) Apod {
	rest := Apod{Service: service}
	app.Get("/", rest.Fetch)
	app.Get("/index.php", rest.Fetch)

	return rest
}

// Fetch streams raster bytes followed by the caption block. Failures are
// reported through the recovery middleware as JSON, never as a partial body.
func (handler *Apod) Fetch(c *fiber.Ctx) error {
	payload, err := handler.Service.Fetch(c.UserContext(), c.Queries())
	utils.PanicIfNeeded(err)

	cacheStatus := "MISS"
	if payload.CacheHit {
		cacheStatus = "HIT"
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, payload.Filename))
	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Set("X-Apod-Cache", cacheStatus)
	return c.Status(fiber.StatusOK).Send(payload.Body)
}
