package cache

import (
	"context"
	"time"
)

type CacheStats struct {
	Directory   string         `json:"directory"`
	Artifacts   int            `json:"artifacts"`
	TotalSize   int64          `json:"total_size"`
	HumanSize   string         `json:"human_size"`
	ByKind      map[string]int `json:"by_kind"` // artifact suffix -> count
	Description bool           `json:"description_cached"`
	Oldest      *time.Time     `json:"oldest,omitempty"`
	Newest      *time.Time     `json:"newest,omitempty"`
}

type CacheEntry struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	HumanSize  string    `json:"human_size"`
	ModifiedAt time.Time `json:"modified_at"`
	Age        string    `json:"age"`
}

type CacheSettings struct {
	Enabled         bool  `json:"enabled"`
	MaxAgeDays      int   `json:"max_age_days"`
	MaxSizeMB       int64 `json:"max_size_mb"`
	CleanupInterval int   `json:"cleanup_interval_mins"` // in minutes
}

type ICacheUsecase interface {
	GetStats(ctx context.Context) (CacheStats, error)
	ListEntries(ctx context.Context) ([]CacheEntry, error)
	// Clear removes every artifact and returns how many were removed. The
	// description file is kept.
	Clear(ctx context.Context) (int, error)

	GetSettings(ctx context.Context) CacheSettings
	StartBackgroundCleanup(ctx context.Context)
}
