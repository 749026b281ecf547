package cmd

import (
	"os"
	"os/signal"
	"syscall"

	coreconfig "github.com/AzielCF/az-apod/core/config"
	"github.com/AzielCF/az-apod/ui/rest"
	"github.com/AzielCF/az-apod/ui/rest/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var restCmd = &cobra.Command{
	Use:   "rest",
	Short: "Serve APOD pictures over http",
	Long:  `Serves GET /?mode=&date=&sample= (also at /index.php) plus the /api admin endpoints.`,
	Run:   restServer,
}

func init() {
	rootCmd.AddCommand(restCmd)
}

func restServer(_ *cobra.Command, _ []string) {
	cfg := coreconfig.Global

	app := fiber.New(fiber.Config{
		Network:      "tcp",
		AppName:      "az-apod",
		ServerHeader: "Hidden",
		ReadTimeout:  cfg.Fill.WaitTimeout + cfg.Upstream.Timeout,
	})

	app.Use(requestid.New())
	app.Use(middleware.Recovery())
	app.Use(helmet.New(helmet.Config{
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
		ReferrerPolicy:     "no-referrer",
	}))

	if cfg.App.Debug {
		app.Use(logger.New())
	}

	// Picture endpoint used by the Atari clients
	rest.InitRestApod(app.Group(cfg.App.BasePath), apodUsecase)

	apiGroup := app.Group(cfg.App.BasePath + "/api")
	rest.InitRestApp(apiGroup)
	rest.InitRestCache(apiGroup, cacheUsecase)
	rest.InitRestHealth(apiGroup, healthUsecase)
	rest.SetFillPool(fillPool)
	apiGroup.Get("/fill-pool/stats", rest.GetFillPoolStats)

	apiGroup.All("/*", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "API Endpoint not found",
			"path":  c.Path(),
		})
	})

	cacheUsecase.StartBackgroundCleanup(appCtx)
	healthUsecase.StartPeriodicChecks(appCtx, cfg.App.HealthInterval)

	// Graceful shutdown handler
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[REST] Reception of termination signal, shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			logrus.Errorf("[REST] Error during Fiber shutdown: %v", err)
		}
		StopApp()
	}()

	logrus.Infof("[REST] cache at %s, converter %s, timezone %s", cfg.Paths.Cache, cfg.Converter.Path, cfg.Timezone)
	if err := app.Listen(":" + cfg.App.Port); err != nil {
		logrus.Fatalln("Failed to start: ", err.Error())
	}
}
