package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/AzielCF/az-apod/domains/health"
	"github.com/sirupsen/logrus"
)

const probeTimeout = 10 * time.Second

type healthService struct {
	probes map[health.Component]health.Probe

	mu      sync.RWMutex
	records map[health.Component]health.HealthRecord
}

func NewHealthService(probes map[health.Component]health.Probe) health.IHealthUsecase {
	s := &healthService{
		probes:  probes,
		records: make(map[health.Component]health.HealthRecord, len(probes)),
	}
	for c := range probes {
		s.records[c] = health.HealthRecord{Component: c, Status: health.StatusUnknown}
	}
	return s
}

func (s *healthService) check(ctx context.Context, c health.Component, probe health.Probe) health.HealthRecord {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	now := time.Now()
	s.mu.RLock()
	record := s.records[c]
	s.mu.RUnlock()

	record.Component = c
	record.LastChecked = now
	if err := probe(ctx); err != nil {
		record.Status = health.StatusError
		record.LastMessage = err.Error()
		logrus.Warnf("[Health] %s check failed: %v", c, err)
	} else {
		record.Status = health.StatusOk
		record.LastMessage = "ok"
		record.LastSuccess = &now
	}

	s.mu.Lock()
	s.records[c] = record
	s.mu.Unlock()
	return record
}

func (s *healthService) CheckAll(ctx context.Context) []health.HealthRecord {
	var wg sync.WaitGroup
	for c, probe := range s.probes {
		wg.Add(1)
		go func(c health.Component, probe health.Probe) {
			defer wg.Done()
			s.check(ctx, c, probe)
		}(c, probe)
	}
	wg.Wait()
	return s.GetStatus(ctx)
}

func (s *healthService) GetStatus(ctx context.Context) []health.HealthRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]health.HealthRecord, 0, len(s.records))
	for _, r := range s.records {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Component < records[j].Component
	})
	return records
}

// Healthy is false when any component failed its last check. Components
// never checked do not count.
func (s *healthService) Healthy(ctx context.Context) bool {
	for _, r := range s.GetStatus(ctx) {
		if r.Status == health.StatusError {
			return false
		}
	}
	return true
}

func (s *healthService) StartPeriodicChecks(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	logrus.Infof("[Health] starting periodic health checks loop (interval: %s)", interval)
	ticker := time.NewTicker(interval)

	go func() {
		logrus.Info("[Health] performing initial health check")
		s.CheckAll(ctx)
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-ticker.C:
				logrus.Debug("[Health] performing scheduled health check")
				s.CheckAll(ctx)
			}
		}
	}()
}
