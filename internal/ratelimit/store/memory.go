// Package store holds rate counter persistence. The in-memory implementation
// is the single-instance default; the CounterStore interface in the engine
// package is the seam for a shared backing store when running multiple
// instances.
package store

import (
	"context"
	"sync"
	"time"

	"edgeguard/internal/ratelimit/models"
	psync "edgeguard/pkg/platform/sync"
)

// staleGraceMultiple controls lazy eviction: a counter untouched for this
// many windows is discarded on next access or by the sweep.
const staleGraceMultiple = 3

// counter is fixed-window state for one (policy, fingerprint) key.
type counter struct {
	count       int
	windowStart time.Time
}

// InMemoryCounterStore implements fixed-window counting keyed by
// "policy:fingerprint". Per-key mutations are serialized by a sharded mutex
// so concurrent requests for the same key never observe a stale count, while
// unrelated keys proceed in parallel. The map itself is guarded separately.
type InMemoryCounterStore struct {
	keys *psync.ShardedMutex

	mu       sync.RWMutex
	counters map[string]*counter

	// now is injectable for tests.
	now func() time.Time
}

// Option configures the store.
type Option func(*InMemoryCounterStore)

// WithClock injects a clock, used by tests to step through windows.
func WithClock(now func() time.Time) Option {
	return func(s *InMemoryCounterStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewInMemoryCounterStore creates an empty counter store.
func NewInMemoryCounterStore(opts ...Option) *InMemoryCounterStore {
	s := &InMemoryCounterStore{
		keys:     psync.NewShardedMutex(),
		counters: make(map[string]*counter),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow performs one fixed-window check-and-increment for key.
//
// If no counter exists or the current window has elapsed, the window resets.
// The count is incremented unconditionally; a count beyond limit yields a
// throttled result with the time until the window rolls over.
func (s *InMemoryCounterStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	now := s.now()

	s.keys.Lock(key)
	defer s.keys.Unlock(key)

	c := s.get(key)
	if c == nil || now.Sub(c.windowStart) >= window {
		c = &counter{windowStart: now}
		s.put(key, c)
	}
	c.count++

	resetAt := c.windowStart.Add(window)
	if c.count > limit {
		retryAfter := resetAt.Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return &models.Result{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: retryAfter,
		}, nil
	}

	return &models.Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - c.count,
		ResetAt:   resetAt,
	}, nil
}

// Reset clears the counter for a key.
func (s *InMemoryCounterStore) Reset(ctx context.Context, key string) error {
	s.keys.Lock(key)
	defer s.keys.Unlock(key)

	s.mu.Lock()
	delete(s.counters, key)
	s.mu.Unlock()
	return nil
}

// EvictStale removes counters whose window ended at least staleGraceMultiple
// windows ago. It is called by the background sweep and is safe to run
// concurrently with Allow. Returns the number of evicted counters.
func (s *InMemoryCounterStore) EvictStale(ctx context.Context, window time.Duration) int {
	now := s.now()
	cutoff := now.Add(-staleGraceMultiple * window)

	s.mu.RLock()
	stale := make([]string, 0)
	for key, c := range s.counters {
		if c.windowStart.Before(cutoff) {
			stale = append(stale, key)
		}
	}
	s.mu.RUnlock()

	evicted := 0
	for _, key := range stale {
		s.keys.Lock(key)
		s.mu.Lock()
		// Re-check under the per-key lock: the counter may have been
		// refreshed between the scan and now.
		if c, ok := s.counters[key]; ok && c.windowStart.Before(cutoff) {
			delete(s.counters, key)
			evicted++
		}
		s.mu.Unlock()
		s.keys.Unlock(key)
	}
	return evicted
}

// Len returns the number of live counters, for sweep logging and tests.
func (s *InMemoryCounterStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.counters)
}

func (s *InMemoryCounterStore) get(key string) *counter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.counters[key]
}

func (s *InMemoryCounterStore) put(key string, c *counter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key] = c
}
