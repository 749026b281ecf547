package usecase

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	domainCache "github.com/AzielCF/az-apod/domains/cache"
	"github.com/AzielCF/az-apod/pkg/artifact"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

const staleTempAge = time.Hour

type cacheService struct {
	store    *artifact.FileStore
	settings domainCache.CacheSettings
	now      func() time.Time
}

func NewCacheService(store *artifact.FileStore, settings domainCache.CacheSettings) domainCache.ICacheUsecase {
	return &cacheService{store: store, settings: settings, now: time.Now}
}

func (s *cacheService) GetSettings(ctx context.Context) domainCache.CacheSettings {
	return s.settings
}

func (s *cacheService) GetStats(ctx context.Context) (domainCache.CacheStats, error) {
	files, err := s.store.List()
	if err != nil {
		return domainCache.CacheStats{}, err
	}

	stats := domainCache.CacheStats{
		Directory: s.store.Dir(),
		Artifacts: len(files),
		ByKind:    make(map[string]int),
	}
	for _, f := range files {
		stats.TotalSize += f.Size
		stats.ByKind[strings.TrimPrefix(filepath.Ext(f.Name), ".")]++
	}
	if len(files) > 0 {
		oldest, newest := files[0].ModTime, files[len(files)-1].ModTime
		stats.Oldest, stats.Newest = &oldest, &newest
	}
	stats.HumanSize = humanize.Bytes(uint64(stats.TotalSize))

	if _, ok, _ := s.store.ReadFile(artifact.DescriptionFile); ok {
		stats.Description = true
	}
	return stats, nil
}

func (s *cacheService) ListEntries(ctx context.Context) ([]domainCache.CacheEntry, error) {
	files, err := s.store.List()
	if err != nil {
		return nil, err
	}
	entries := make([]domainCache.CacheEntry, 0, len(files))
	for _, f := range files {
		entries = append(entries, domainCache.CacheEntry{
			Name:       f.Name,
			Size:       f.Size,
			HumanSize:  humanize.Bytes(uint64(f.Size)),
			ModifiedAt: f.ModTime,
			Age:        humanize.RelTime(f.ModTime, s.now(), "ago", "from now"),
		})
	}
	return entries, nil
}

func (s *cacheService) Clear(ctx context.Context) (int, error) {
	files, err := s.store.List()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, f := range files {
		if err := s.store.Evict(f.Name); err != nil {
			logrus.Warnf("[CACHE] %v", err)
			continue
		}
		removed++
	}
	logrus.Infof("[CACHE] cleared %d files from %s", removed, s.store.Dir())
	return removed, nil
}

func (s *cacheService) StartBackgroundCleanup(ctx context.Context) {
	if !s.settings.Enabled {
		logrus.Debug("[CACHE] background cleanup disabled")
		return
	}

	interval := time.Duration(s.settings.CleanupInterval) * time.Minute
	if interval < 5*time.Minute {
		interval = 5 * time.Minute
	}

	go func() {
		for {
			logrus.Info("[CACHE] Running scheduled cleanup...")
			s.runCleanup()

			select {
			case <-ctx.Done():
				return
			case <-time.After(interval):
			}
		}
	}()
}

// runCleanup drops artifacts older than MaxAgeDays, then the oldest ones
// until the cache fits in MaxSizeMB. Either limit is off when zero.
func (s *cacheService) runCleanup() int {
	removed := s.store.RemoveStaleTemps(staleTempAge)

	files, err := s.store.List()
	if err != nil {
		logrus.Errorf("[CACHE] cleanup: %v", err)
		return removed
	}

	var kept []artifact.FileInfo
	var totalSize int64
	if s.settings.MaxAgeDays > 0 {
		cutoff := s.now().Add(-time.Duration(s.settings.MaxAgeDays) * 24 * time.Hour)
		for _, f := range files {
			if f.ModTime.Before(cutoff) && s.store.Evict(f.Name) == nil {
				removed++
				continue
			}
			kept = append(kept, f)
			totalSize += f.Size
		}
	} else {
		kept = files
		for _, f := range files {
			totalSize += f.Size
		}
	}

	limit := s.settings.MaxSizeMB * 1024 * 1024
	if limit > 0 {
		// kept is oldest first
		for _, f := range kept {
			if totalSize <= limit {
				break
			}
			if s.store.Evict(f.Name) == nil {
				totalSize -= f.Size
				removed++
			}
		}
	}

	if removed > 0 {
		logrus.Infof("[CACHE] cleanup removed %d files, %s left", removed, humanize.Bytes(uint64(totalSize)))
	}
	return removed
}
