// Package ratelimit implements sliding-log request ceilings keyed by client.
//
// Both stores satisfy echo's middleware.RateLimiterStore: Allow reports
// whether one more request from identifier fits in the window, and records it
// when it does.
package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// MemoryStore keeps a timestamp log per identifier in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	clock  clockwork.Clock
	limit  int
	window time.Duration
	hits   map[string][]time.Time
}

func NewMemoryStore(clock clockwork.Clock, limit int, window time.Duration) *MemoryStore {
	return &MemoryStore{
		clock:  clock,
		limit:  limit,
		window: window,
		hits:   make(map[string][]time.Time),
	}
}

// Allow admits a request iff fewer than limit requests from identifier were
// admitted in (now-window, now].
func (s *MemoryStore) Allow(identifier string) (bool, error) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	log := prune(s.hits[identifier], now.Add(-s.window))
	if len(log) >= s.limit {
		s.hits[identifier] = log
		return false, nil
	}
	s.hits[identifier] = append(log, now)
	return true, nil
}

// Evict drops identifiers with no requests inside the window and returns how
// many were removed.
func (s *MemoryStore) Evict() int {
	cutoff := s.clock.Now().Add(-s.window)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, log := range s.hits {
		log = prune(log, cutoff)
		if len(log) == 0 {
			delete(s.hits, id)
			removed++
			continue
		}
		s.hits[id] = log
	}
	return removed
}

// Run evicts idle identifiers once per window until ctx is done.
func (s *MemoryStore) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(s.window)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if removed := s.Evict(); removed > 0 {
				slog.Debug("[RateLimiter] Evicted idle clients", slog.Int("count", removed))
			}
		}
	}
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.hits)
}

// prune drops entries at or before cutoff. log is ordered oldest first.
func prune(log []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(log) && !log[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return log
	}
	return append(log[:0], log[i:]...)
}
