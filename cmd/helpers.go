package cmd

import (
	"context"
	"fmt"

	domainHealth "github.com/AzielCF/az-apod/domains/health"
)

const healthProbeFile = ".health-probe"

// healthProbes lists the checks reported by /api/health.
func healthProbes() map[domainHealth.Component]domainHealth.Probe {
	probes := map[domainHealth.Component]domainHealth.Probe{
		domainHealth.ComponentConverter: func(ctx context.Context) error {
			if !execConverter.IsAvailable() {
				return fmt.Errorf("converter %s not found", execConverter.Path())
			}
			return nil
		},
		domainHealth.ComponentUpstream: locator.Ping,
		domainHealth.ComponentFeed:     feedFetcher.Ping,
		domainHealth.ComponentCacheDir: func(ctx context.Context) error {
			if err := artifactStore.WriteFile(healthProbeFile, []byte("ok")); err != nil {
				return err
			}
			return artifactStore.Evict(healthProbeFile)
		},
	}
	if vkClient != nil {
		probes[domainHealth.ComponentFillLock] = vkClient.Ping
	}
	return probes
}
