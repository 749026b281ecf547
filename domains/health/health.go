package health

import (
	"context"
	"time"
)

// Component is a dependency the server needs to fill the cache.
type Component string

const (
	ComponentConverter Component = "converter"
	ComponentUpstream  Component = "upstream"
	ComponentFeed      Component = "feed"
	ComponentCacheDir  Component = "cache_dir"
	ComponentFillLock  Component = "fill_lock"
)

type Status string

const (
	StatusOk      Status = "OK"
	StatusError   Status = "ERROR"
	StatusUnknown Status = "UNKNOWN"
)

type HealthRecord struct {
	Component   Component  `json:"component"`
	Status      Status     `json:"status"`
	LastMessage string     `json:"last_message"`
	LastChecked time.Time  `json:"last_checked"`
	LastSuccess *time.Time `json:"last_success,omitempty"`
}

// Probe checks one component and returns nil when it is usable.
type Probe func(ctx context.Context) error

type IHealthUsecase interface {
	CheckAll(ctx context.Context) []HealthRecord
	GetStatus(ctx context.Context) []HealthRecord
	Healthy(ctx context.Context) bool
	StartPeriodicChecks(ctx context.Context, interval time.Duration)
}
