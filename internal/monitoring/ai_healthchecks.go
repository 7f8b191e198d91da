package monitoring

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const HEALTHCHECK_TIMER = 15

type Probe func(ctx context.Context) error

// Registry tracks the last known health of each dependency.
type Registry struct {
	mu     sync.RWMutex
	checks map[string]*atomic.Bool
}

func NewRegistry() *Registry {
	return &Registry{checks: make(map[string]*atomic.Bool)}
}

// Register adds a dependency that starts out healthy.
func (r *Registry) Register(name string) *atomic.Bool {
	healthy := &atomic.Bool{}
	healthy.Store(true)

	r.mu.Lock()
	r.checks[name] = healthy
	r.mu.Unlock()
	return healthy
}

// Snapshot returns the health of every registered dependency.
func (r *Registry) Snapshot() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]bool, len(r.checks))
	for name, healthy := range r.checks {
		out[name] = healthy.Load()
	}
	return out
}

// MonitorHealth runs probe every interval and stores the outcome in healthy.
func MonitorHealth(ctx context.Context, name string, probe Probe, healthy *atomic.Bool, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second * HEALTHCHECK_TIMER
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(ctx, interval/2)
			err := probe(probeCtx)
			cancel()

			wasHealthy := healthy.Swap(err == nil)
			switch {
			case err != nil && wasHealthy:
				slog.Warn("[HealthCheck] Dependency is unhealthy",
					slog.String("dependency", name),
					slog.String("error", err.Error()))
			case err == nil && !wasHealthy:
				slog.Info("[HealthCheck] Dependency recovered",
					slog.String("dependency", name))
			}
		}
	}
}
