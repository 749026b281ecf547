package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// GetAllSettings returns the effective settings worth showing to an operator.
func GetAllSettings() map[string]any {
	if Global == nil {
		return map[string]any{}
	}
	return map[string]any{
		"app_version":       Global.App.Version,
		"app_debug":         Global.App.Debug,
		"cache_dir":         Global.Paths.Cache,
		"cache_max_age":     Global.Cache.MaxAge.String(),
		"upstream_base_url": Global.Upstream.BaseURL,
		"upstream_feed_url": Global.Upstream.FeedURL,
		"converter_path":    Global.Converter.Path,
		"converter_timeout": Global.Converter.Timeout.String(),
		"fill_workers":      Global.Fill.Workers,
		"fill_wait_timeout": Global.Fill.WaitTimeout.String(),
		"sample_count":      len(Global.Samples.Files),
		"timezone":          Global.Timezone,
		"valkey_enabled":    Global.Valkey.Enabled,
	}
}

// Helpers
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		vLower := strings.ToLower(v)
		return vLower == "1" || vLower == "true" || vLower == "yes" || vLower == "on"
	}
	return fallback
}

// getEnvDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
