package cmd

import (
	"context"
	"net/http"
	"os"

	coreconfig "github.com/AzielCF/az-apod/core/config"
	domainApod "github.com/AzielCF/az-apod/domains/apod"
	domainCache "github.com/AzielCF/az-apod/domains/cache"
	domainHealth "github.com/AzielCF/az-apod/domains/health"
	"github.com/AzielCF/az-apod/infrastructure/apodsite"
	"github.com/AzielCF/az-apod/infrastructure/converter"
	"github.com/AzielCF/az-apod/infrastructure/valkey"
	"github.com/AzielCF/az-apod/pkg/artifact"
	"github.com/AzielCF/az-apod/pkg/fillworker"
	"github.com/AzielCF/az-apod/pkg/utils"
	"github.com/AzielCF/az-apod/usecase"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	appCtx    context.Context
	appCancel context.CancelFunc

	// Infrastructure
	artifactStore *artifact.FileStore
	fillPool      *fillworker.Pool
	vkClient      *valkey.Client
	locator       *apodsite.Locator
	feedFetcher   *apodsite.FeedFetcher
	execConverter *converter.ExecConverter

	// Usecase
	apodUsecase   domainApod.IApodUsecase
	cacheUsecase  domainCache.ICacheUsecase
	healthUsecase domainHealth.IHealthUsecase
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "az-apod",
	Short: "Astronomy Picture of the Day for Atari 8-bit clients",
	Long: `Serves the daily APOD picture converted to Atari graphics modes,
followed by its caption, to FujiNet-equipped Atari computers.`,
}

func init() {
	// Load environment variables first
	utils.LoadConfig(".")
	if _, err := coreconfig.LoadConfig(); err != nil {
		logrus.Fatalf("[CONFIG] %v", err)
	}

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	initFlags()

	cobra.OnInitialize(initEnvConfig, initApp)
}

// initEnvConfig applies values that only exist in the .env file read by
// viper. Flags given on the command line win.
func initEnvConfig() {
	flags := rootCmd.PersistentFlags()
	if envPort := viper.GetString("app_port"); envPort != "" && !flags.Changed("port") {
		coreconfig.Global.App.Port = envPort
	}
	if viper.IsSet("app_debug") && !flags.Changed("debug") {
		coreconfig.Global.App.Debug = viper.GetBool("app_debug")
	}
	if envBasePath := viper.GetString("app_base_path"); envBasePath != "" && !flags.Changed("base-path") {
		coreconfig.Global.App.BasePath = envBasePath
	}
	if envCacheDir := viper.GetString("apod_cache_dir"); envCacheDir != "" && !flags.Changed("cache-dir") {
		coreconfig.Global.Paths.Cache = envCacheDir
	}
}

func initFlags() {
	cfg := coreconfig.Global

	rootCmd.PersistentFlags().StringVarP(
		&cfg.App.Port,
		"port", "p",
		cfg.App.Port,
		"change port number with --port <number> | example: --port=8080",
	)
	rootCmd.PersistentFlags().BoolVarP(
		&cfg.App.Debug,
		"debug", "d",
		cfg.App.Debug,
		"hide or displaying log with --debug <true/false> | example: --debug=true",
	)
	rootCmd.PersistentFlags().StringVarP(
		&cfg.App.BasePath,
		"base-path", "",
		cfg.App.BasePath,
		`base path for subpath deployment --base-path <string> | example: --base-path="/apod"`,
	)

	rootCmd.PersistentFlags().StringVarP(
		&cfg.Paths.Cache,
		"cache-dir", "",
		cfg.Paths.Cache,
		`directory holding converted pictures --cache-dir <path> | example: --cache-dir="/var/cache/apod"`,
	)
	rootCmd.PersistentFlags().DurationVarP(
		&cfg.Cache.MaxAge,
		"cache-max-age", "",
		cfg.Cache.MaxAge,
		`refill dated pictures older than this, 0 keeps them forever --cache-max-age <duration> | example: --cache-max-age=720h`,
	)

	rootCmd.PersistentFlags().StringVarP(
		&cfg.Converter.Path,
		"converter", "",
		cfg.Converter.Path,
		`converter executable, called as <converter> <url> <mode> <output> | example: --converter="./fetch_and_cvt.sh"`,
	)
	rootCmd.PersistentFlags().DurationVarP(
		&cfg.Converter.Timeout,
		"converter-timeout", "",
		cfg.Converter.Timeout,
		`maximum time for one conversion | example: --converter-timeout=60s`,
	)
	rootCmd.PersistentFlags().DurationVarP(
		&cfg.Upstream.Timeout,
		"fetch-timeout", "",
		cfg.Upstream.Timeout,
		`maximum time for one upstream page or feed fetch | example: --fetch-timeout=15s`,
	)

	rootCmd.PersistentFlags().IntVarP(
		&cfg.Fill.Workers,
		"fill-workers", "",
		cfg.Fill.Workers,
		`number of concurrent cache fill workers | example: --fill-workers=4`,
	)
	rootCmd.PersistentFlags().DurationVarP(
		&cfg.Fill.WaitTimeout,
		"fill-wait-timeout", "",
		cfg.Fill.WaitTimeout,
		`how long a request waits for its cache fill | example: --fill-wait-timeout=90s`,
	)

	rootCmd.PersistentFlags().StringVarP(
		&cfg.Timezone,
		"timezone", "",
		cfg.Timezone,
		`timezone that decides which day "today" is | example: --timezone="America/New_York"`,
	)

	rootCmd.PersistentFlags().BoolVarP(
		&cfg.Valkey.Enabled,
		"valkey", "",
		cfg.Valkey.Enabled,
		`share fill locks with other servers through valkey | example: --valkey=true`,
	)
	rootCmd.PersistentFlags().StringVarP(
		&cfg.Valkey.Address,
		"valkey-address", "",
		cfg.Valkey.Address,
		`valkey address | example: --valkey-address="localhost:6379"`,
	)
}

func initApp() {
	cfg := coreconfig.Global
	if cfg.App.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	appCtx, appCancel = context.WithCancel(context.Background())

	if err := utils.CreateFolder(cfg.Paths.Cache); err != nil {
		logrus.Fatalln(err)
	}

	var err error
	artifactStore, err = artifact.NewFileStore(cfg.Paths.Cache)
	if err != nil {
		logrus.Fatalf("[CACHE] %v", err)
	}
	// Another server sharing the directory may still be converting.
	if n := artifactStore.RemoveStaleTemps(2 * cfg.Converter.Timeout); n > 0 {
		logrus.Infof("[CACHE] removed %d unfinished fills left by a previous run", n)
	}

	loc, err := cfg.Location()
	if err != nil {
		logrus.Fatalf("[CONFIG] %v", err)
	}

	siteConfig := &apodsite.Config{
		BaseURL:         cfg.Upstream.BaseURL,
		LatestPage:      cfg.Upstream.LatestPage,
		DayPageFormat:   cfg.Upstream.DayPageFormat,
		FeedURL:         cfg.Upstream.FeedURL,
		EmbedPrefixes:   cfg.Upstream.EmbedPrefixes,
		ThumbnailFormat: cfg.Upstream.ThumbnailFormat,
		SampleURLs:      cfg.SampleURLs(),
		Timeout:         cfg.Upstream.Timeout,
		MaxBodyBytes:    cfg.Upstream.MaxBodyBytes,
		UserAgent:       cfg.Upstream.UserAgent,
	}
	httpClient := &http.Client{}
	locator = apodsite.NewLocator(siteConfig, httpClient)
	feedFetcher = apodsite.NewFeedFetcher(siteConfig, httpClient)

	execConverter = converter.NewExecConverter(&converter.Config{
		Path:    cfg.Converter.Path,
		WorkDir: cfg.Converter.WorkDir,
		Timeout: cfg.Converter.Timeout,
	})
	if !execConverter.IsAvailable() {
		logrus.Warnf("[CONVERTER] %s not found; cache misses will fail until it is installed", cfg.Converter.Path)
	}

	fillPool = fillworker.NewPool(cfg.Fill.Workers, cfg.Fill.QueueSize)
	fillPool.Start(appCtx)

	var locker domainApod.FillLocker
	if cfg.Valkey.Enabled {
		vkClient, err = valkey.NewClient(valkey.Config{
			Address:   cfg.Valkey.Address,
			Password:  cfg.Valkey.Password,
			DB:        cfg.Valkey.DB,
			KeyPrefix: cfg.Valkey.KeyPrefix,
		})
		if err != nil {
			logrus.Warnf("[VALKEY] %v; fills are only serialised within this process", err)
		} else {
			serverID := utils.GetPersistentServerID(cfg.App.ServerID, cfg.Paths.Cache)
			locker = valkey.NewFillLock(vkClient, cfg.Valkey.LockTTL, serverID)
			logrus.Infof("[VALKEY] fill locks shared as %s", serverID)
		}
	}

	var freshness artifact.FreshnessPolicy = artifact.ExistencePolicy{}
	if cfg.Cache.MaxAge > 0 {
		freshness = artifact.MaxAgePolicy{MaxAge: cfg.Cache.MaxAge}
	}

	apodUsecase = usecase.NewApodService(usecase.ApodDeps{
		Store:        artifactStore,
		Locator:      locator,
		Descriptions: feedFetcher,
		Converter:    execConverter,
		Pool:         fillPool,
		Locker:       locker,
	}, usecase.ApodOptions{
		SampleCount: len(siteConfig.SampleURLs),
		Location:    loc,
		Freshness:   freshness,
		FillWait:    cfg.Fill.WaitTimeout,
	})

	cacheUsecase = usecase.NewCacheService(artifactStore, domainCache.CacheSettings{
		Enabled:         cfg.Cache.CleanupEnabled,
		MaxAgeDays:      cfg.Cache.CleanupMaxDays,
		MaxSizeMB:       cfg.Cache.CleanupMaxMB,
		CleanupInterval: cfg.Cache.CleanupInterval,
	})

	healthUsecase = usecase.NewHealthService(healthProbes())
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// StopApp stops background work and closes connections.
func StopApp() {
	logrus.Info("[APP] Stopping application...")

	if appCancel != nil {
		appCancel()
	}
	if fillPool != nil {
		fillPool.Stop()
	}
	if vkClient != nil {
		vkClient.Close()
	}

	logrus.Info("[APP] Application stopped cleanly.")
}
