package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App       AppConfig
	Paths     PathsConfig
	Upstream  UpstreamConfig
	Samples   SamplesConfig
	Converter ConverterConfig
	Fill      FillConfig
	Cache     CacheConfig
	Valkey    ValkeyConfig
	Timezone  string
}

type AppConfig struct {
	Version  string
	Port     string
	Debug    bool
	BasePath string
	ServerID string
	// HealthInterval is the period of the background health checks.
	HealthInterval time.Duration
}

type PathsConfig struct {
	Cache string
}

type UpstreamConfig struct {
	BaseURL         string
	LatestPage      string
	DayPageFormat   string
	FeedURL         string
	EmbedPrefixes   []string
	ThumbnailFormat string
	Timeout         time.Duration
	MaxBodyBytes    int64
	UserAgent       string
}

type SamplesConfig struct {
	BaseURL string
	Files   []string
}

type ConverterConfig struct {
	Path    string
	WorkDir string
	Timeout time.Duration
}

type FillConfig struct {
	Workers     int
	QueueSize   int
	WaitTimeout time.Duration
}

type CacheConfig struct {
	// MaxAge expires dated artifacts; zero keeps them forever.
	MaxAge          time.Duration
	CleanupEnabled  bool
	CleanupMaxDays  int
	CleanupMaxMB    int64
	CleanupInterval int // minutes
}

type ValkeyConfig struct {
	Enabled   bool
	Address   string
	Password  string
	DB        int
	KeyPrefix string
	LockTTL   time.Duration
}

// Global provides access to the loaded configuration globally.
var Global *Config

// LoadConfig loads configuration from environment variables or defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Version:        "v1.0.0",
			Port:           getEnv("APP_PORT", "3000"),
			Debug:          getEnvBool("APP_DEBUG", false),
			BasePath:       getEnv("APP_BASE_PATH", ""),
			ServerID:       getEnv("SERVER_ID", ""),
			HealthInterval: getEnvDuration("APP_HEALTH_INTERVAL", 30*time.Minute),
		},
		Paths: PathsConfig{
			Cache: getEnv("APOD_CACHE_DIR", "cache"),
		},
		Upstream: UpstreamConfig{
			BaseURL:         getEnv("APOD_BASE_URL", "https://apod.nasa.gov/apod/"),
			LatestPage:      getEnv("APOD_LATEST_PAGE", "astropix.html"),
			DayPageFormat:   getEnv("APOD_DAY_PAGE_FORMAT", "ap%s.html"),
			FeedURL:         getEnv("APOD_FEED_URL", "https://apod.nasa.gov/apod.rss"),
			EmbedPrefixes:   getEnvList("APOD_EMBED_PREFIXES", []string{"https://www.youtube.com/embed/"}),
			ThumbnailFormat: getEnv("APOD_THUMBNAIL_FORMAT", "https://img.youtube.com/vi/%s/hqdefault.jpg"),
			Timeout:         getEnvDuration("APOD_FETCH_TIMEOUT", 15*time.Second),
			MaxBodyBytes:    getEnvInt64("APOD_MAX_BODY_BYTES", 4<<20),
			UserAgent:       getEnv("APOD_USER_AGENT", "az-apod/1.0 (+FujiNet)"),
		},
		Samples: SamplesConfig{
			BaseURL: getEnv("APOD_SAMPLE_BASE_URL", "http://billsgames.com/fujinet/apod/samples/"),
			Files:   getEnvList("APOD_SAMPLE_FILES", []string{"alt_reality.png", "ngc2818.jpg", "Parrot.jpg", "SPACE.JPG", "rainbow.png"}),
		},
		Converter: ConverterConfig{
			Path:    getEnv("CONVERTER_PATH", "./fetch_and_cvt.sh"),
			WorkDir: getEnv("CONVERTER_WORKDIR", ""),
			Timeout: getEnvDuration("CONVERTER_TIMEOUT", 60*time.Second),
		},
		Fill: FillConfig{
			Workers:     getEnvInt("FILL_WORKERS", 4),
			QueueSize:   getEnvInt("FILL_QUEUE_SIZE", 64),
			WaitTimeout: getEnvDuration("FILL_WAIT_TIMEOUT", 90*time.Second),
		},
		Cache: CacheConfig{
			MaxAge:          getEnvDuration("CACHE_MAX_AGE", 0),
			CleanupEnabled:  getEnvBool("CACHE_CLEANUP_ENABLED", false),
			CleanupMaxDays:  getEnvInt("CACHE_CLEANUP_MAX_AGE_DAYS", 30),
			CleanupMaxMB:    getEnvInt64("CACHE_CLEANUP_MAX_SIZE_MB", 512),
			CleanupInterval: getEnvInt("CACHE_CLEANUP_INTERVAL", 60),
		},
		Valkey: ValkeyConfig{
			Enabled:   getEnvBool("VALKEY_ENABLED", false),
			Address:   getEnv("VALKEY_ADDRESS", "localhost:6379"),
			Password:  getEnv("VALKEY_PASSWORD", ""),
			DB:        getEnvInt("VALKEY_DB", 0),
			KeyPrefix: getEnv("VALKEY_KEY_PREFIX", "azapod"),
			LockTTL:   getEnvDuration("VALKEY_LOCK_TTL", 2*time.Minute),
		},
		Timezone: getEnv("APOD_TIMEZONE", DefaultTimezone),
	}

	cfg.Upstream.BaseURL = ensureTrailingSlash(cfg.Upstream.BaseURL)
	cfg.Samples.BaseURL = ensureTrailingSlash(cfg.Samples.BaseURL)

	Global = cfg
	return cfg, nil
}

// SampleURLs lists the sample images in the order clients address them (1..N).
func (c *Config) SampleURLs() []string {
	urls := make([]string, 0, len(c.Samples.Files))
	for _, f := range c.Samples.Files {
		if strings.Contains(f, "://") {
			urls = append(urls, f)
			continue
		}
		urls = append(urls, c.Samples.BaseURL+f)
	}
	return urls
}

// DefaultTimezone is the reference zone that decides which day is "today".
const DefaultTimezone = "America/New_York"

// Location resolves the reference timezone. An empty zone means
// DefaultTimezone; an unknown one is an error, never a silent fallback.
func (c *Config) Location() (*time.Location, error) {
	name := c.Timezone
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

func ensureTrailingSlash(u string) string {
	if u != "" && !strings.HasSuffix(u, "/") {
		return u + "/"
	}
	return u
}
