package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domainApod "github.com/AzielCF/az-apod/domains/apod"
	"github.com/AzielCF/az-apod/pkg/artifact"
	pkgError "github.com/AzielCF/az-apod/pkg/error"
	"github.com/AzielCF/az-apod/pkg/fillworker"
	"github.com/AzielCF/az-apod/validations"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ApodDeps are the collaborators of the APOD pipeline. Locker is optional.
type ApodDeps struct {
	Store        *artifact.FileStore
	Locator      domainApod.Locator
	Descriptions domainApod.DescriptionFetcher
	Converter    domainApod.Converter
	Pool         *fillworker.Pool
	Locker       domainApod.FillLocker
}

type ApodOptions struct {
	SampleCount int
	Location    *time.Location
	// Freshness applies to dated and current artifacts. Samples are always
	// refilled.
	Freshness artifact.FreshnessPolicy
	// FillWait bounds how long a request waits for its fill slot and the fill.
	FillWait time.Duration
	Now      func() time.Time
}

type apodService struct {
	deps ApodDeps
	opts ApodOptions

	descrGroup singleflight.Group
	descrMu    sync.RWMutex
	descr      domainApod.DescriptionRecord
}

func NewApodService(deps ApodDeps, opts ApodOptions) domainApod.IApodUsecase {
	if opts.Freshness == nil {
		opts.Freshness = artifact.ExistencePolicy{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &apodService{deps: deps, opts: opts}
}

func (s *apodService) Fetch(ctx context.Context, params map[string]string) (domainApod.Payload, error) {
	req := validations.ResolveRequest(params, validations.ResolveOptions{
		SampleCount: s.opts.SampleCount,
		Now:         s.opts.Now(),
		Location:    s.opts.Location,
	})
	name := req.ArtifactName()
	policy := s.policyFor(req)

	art, hit, err := s.deps.Store.Lookup(name, policy)
	if err != nil {
		return domainApod.Payload{}, err
	}

	var descr domainApod.DescriptionRecord
	if hit {
		logrus.Debugf("[APOD] cache hit %s", name)
		descr, err = s.storedDescription(ctx)
		if err != nil {
			return domainApod.Payload{}, err
		}
	} else {
		art, descr, err = s.fill(ctx, req, policy)
		if err != nil {
			return domainApod.Payload{}, err
		}
	}

	image, err := s.deps.Store.Read(art)
	if err != nil {
		return domainApod.Payload{}, err
	}

	payload, err := domainApod.Assemble(name, image, req.Mode, descr)
	if err != nil {
		var integrity pkgError.IntegrityError
		if errors.As(err, &integrity) {
			logrus.Errorf("[APOD] evicting corrupt artifact %s: %v", name, err)
			if evictErr := s.deps.Store.Evict(name); evictErr != nil {
				logrus.Warnf("[APOD] %v", evictErr)
			}
		}
		return domainApod.Payload{}, err
	}
	payload.CacheHit = hit
	return payload, nil
}

func (s *apodService) policyFor(req domainApod.Request) artifact.FreshnessPolicy {
	if req.Selector.IsSample() {
		return artifact.NeverFresh{}
	}
	return s.opts.Freshness
}

// fill materialises the artifact on its fill worker. Fills of one artifact
// never overlap, and a fill that finds the artifact already present (left by
// a fill queued ahead of it) does no work.
func (s *apodService) fill(ctx context.Context, req domainApod.Request, policy artifact.FreshnessPolicy) (domainApod.Artifact, domainApod.DescriptionRecord, error) {
	name := req.ArtifactName()

	type result struct {
		art   domainApod.Artifact
		descr domainApod.DescriptionRecord
	}
	var res result

	err := s.deps.Pool.Do(ctx, name, s.opts.FillWait, func(jobCtx context.Context) error {
		if s.deps.Locker != nil {
			unlock, err := s.deps.Locker.Lock(jobCtx, name)
			if err != nil {
				return pkgError.UpstreamUnavailableError(fmt.Sprintf("fill lock for %s: %v", name, err))
			}
			defer unlock()
		}

		if art, ok, err := s.deps.Store.Lookup(name, policy); err != nil {
			return err
		} else if ok {
			descr, err := s.storedDescription(jobCtx)
			if err != nil {
				return err
			}
			res = result{art: art, descr: descr}
			return nil
		}

		var (
			g     errgroup.Group
			art   domainApod.Artifact
			descr domainApod.DescriptionRecord
		)
		g.Go(func() error {
			src, err := s.deps.Locator.Locate(jobCtx, req.Selector)
			if err != nil {
				return err
			}
			logrus.Infof("[APOD] filling %s from %s", name, src.URL)
			art, err = s.deps.Store.Materialize(jobCtx, name, req.Mode, src.URL, s.deps.Converter)
			return err
		})
		g.Go(func() error {
			var err error
			if req.Selector.IsSample() {
				descr, err = s.storedDescription(jobCtx)
			} else {
				descr, err = s.refreshDescription(jobCtx)
			}
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}

		res = result{art: art, descr: descr}
		return nil
	})
	if err != nil {
		return domainApod.Artifact{}, domainApod.DescriptionRecord{}, classifyFillError(name, err)
	}
	return res.art, res.descr, nil
}

func classifyFillError(name string, err error) error {
	var generic pkgError.GenericError
	switch {
	case errors.As(err, &generic):
		return err
	case errors.Is(err, fillworker.ErrWaitTimeout), errors.Is(err, fillworker.ErrQueueFull), errors.Is(err, fillworker.ErrPoolStopped):
		logrus.Warnf("[APOD] fill of %s not completed: %v", name, err)
		return pkgError.UpstreamUnavailableError(fmt.Sprintf("fill of %s not completed: %v", name, err))
	case errors.Is(err, context.DeadlineExceeded):
		return pkgError.TimeoutError(fmt.Sprintf("fill of %s: %v", name, err))
	default:
		return pkgError.UpstreamUnavailableError(fmt.Sprintf("fill of %s: %v", name, err))
	}
}

// storedDescription returns the last known caption, loading it from disk
// after a restart and fetching it only when none was ever stored.
func (s *apodService) storedDescription(ctx context.Context) (domainApod.DescriptionRecord, error) {
	if d, ok := s.memoryDescription(); ok {
		return d, nil
	}

	raw, ok, err := s.deps.Store.ReadFile(artifact.DescriptionFile)
	if err != nil {
		logrus.Warnf("[APOD] %v", err)
	}
	if ok && len(raw) > 0 {
		d := domainApod.ParseDescriptionRecord(raw)
		s.descrMu.Lock()
		if s.descr.IsZero() {
			s.descr = d
		}
		s.descrMu.Unlock()
		return d, nil
	}

	return s.refreshDescription(ctx)
}

// refreshDescription fetches the current caption. Concurrent callers share
// one feed fetch. When the feed fails the last stored caption is served.
func (s *apodService) refreshDescription(ctx context.Context) (domainApod.DescriptionRecord, error) {
	v, err, _ := s.descrGroup.Do("description", func() (interface{}, error) {
		d, err := s.deps.Descriptions.Refresh(ctx)
		if err != nil {
			return nil, err
		}
		s.descrMu.Lock()
		s.descr = d
		s.descrMu.Unlock()
		if err := s.deps.Store.WriteFile(artifact.DescriptionFile, d.Bytes); err != nil {
			logrus.Warnf("[APOD] failed to persist description: %v", err)
		}
		return d, nil
	})
	if err != nil {
		if d, ok := s.memoryDescription(); ok {
			logrus.Warnf("[APOD] description refresh failed, serving previous: %v", err)
			return d, nil
		}
		if raw, ok, _ := s.deps.Store.ReadFile(artifact.DescriptionFile); ok && len(raw) > 0 {
			logrus.Warnf("[APOD] description refresh failed, serving stored: %v", err)
			return domainApod.ParseDescriptionRecord(raw), nil
		}
		return domainApod.DescriptionRecord{}, err
	}
	return v.(domainApod.DescriptionRecord), nil
}

func (s *apodService) memoryDescription() (domainApod.DescriptionRecord, bool) {
	s.descrMu.RLock()
	defer s.descrMu.RUnlock()
	return s.descr, !s.descr.IsZero()
}
