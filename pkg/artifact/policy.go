package artifact

import (
	"os"
	"time"
)

// FreshnessPolicy decides whether an existing artifact may be served.
type FreshnessPolicy interface {
	Fresh(info os.FileInfo, now time.Time) bool
}

// ExistencePolicy treats any existing artifact as fresh forever. APOD pages
// for a past date do not change, so a file on disk is the whole answer.
type ExistencePolicy struct{}

func (ExistencePolicy) Fresh(os.FileInfo, time.Time) bool {
	return true
}

// NeverFresh forces a refill on every request.
type NeverFresh struct{}

func (NeverFresh) Fresh(os.FileInfo, time.Time) bool {
	return false
}

// MaxAgePolicy expires artifacts older than MaxAge. A zero MaxAge behaves
// like ExistencePolicy.
type MaxAgePolicy struct {
	MaxAge time.Duration
}

func (p MaxAgePolicy) Fresh(info os.FileInfo, now time.Time) bool {
	if p.MaxAge <= 0 {
		return true
	}
	return now.Sub(info.ModTime()) < p.MaxAge
}
