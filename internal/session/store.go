// Package session holds the per-user elevation state produced by two-factor
// verification and the route guard that consumes it.
package session

import (
	"context"
	"sync"
	"time"

	psync "edgeguard/pkg/platform/sync"
)

// DefaultIdleTimeout resets two-factor elevation after this much inactivity.
const DefaultIdleTimeout = 30 * time.Minute

// Session is the elevation state for one authenticated user.
type Session struct {
	UserID            string
	Authenticated     bool
	TwoFactorVerified bool
	Admin             bool
	LastActivity      time.Time
}

// Store keeps sessions in memory. Mutations for one user are serialized by a
// sharded mutex; unrelated users never contend.
type Store struct {
	keys *psync.ShardedMutex

	mu       sync.RWMutex
	sessions map[string]*Session

	idleTimeout time.Duration
	now         func() time.Time
}

type StoreOption func(*Store)

// WithIdleTimeout overrides the idle eviction window.
func WithIdleTimeout(d time.Duration) StoreOption {
	return func(s *Store) {
		if d > 0 {
			s.idleTimeout = d
		}
	}
}

// WithClock injects a clock for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates an empty session store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		keys:        psync.NewShardedMutex(),
		sessions:    make(map[string]*Session),
		idleTimeout: DefaultIdleTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put registers a session after primary authentication. Elevation always
// starts false; only Elevate can set it.
func (s *Store) Put(ctx context.Context, userID string, admin bool) {
	s.keys.Lock(userID)
	defer s.keys.Unlock(userID)

	s.mu.Lock()
	s.sessions[userID] = &Session{
		UserID:        userID,
		Authenticated: true,
		Admin:         admin,
		LastActivity:  s.now(),
	}
	s.mu.Unlock()
}

// Get returns a copy of the user's session.
func (s *Store) Get(ctx context.Context, userID string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// Touch updates last activity for an existing session.
func (s *Store) Touch(ctx context.Context, userID string) {
	s.keys.Lock(userID)
	defer s.keys.Unlock(userID)

	s.mu.Lock()
	if sess, ok := s.sessions[userID]; ok {
		sess.LastActivity = s.now()
	}
	s.mu.Unlock()
}

// Elevate marks the session two-factor verified and refreshes activity.
// It is the only path to TwoFactorVerified=true, and it requires an
// authenticated session to exist.
func (s *Store) Elevate(ctx context.Context, userID string) bool {
	s.keys.Lock(userID)
	defer s.keys.Unlock(userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok || !sess.Authenticated {
		return false
	}
	sess.TwoFactorVerified = true
	sess.LastActivity = s.now()
	return true
}

// Delete removes the session (logout).
func (s *Store) Delete(ctx context.Context, userID string) {
	s.keys.Lock(userID)
	defer s.keys.Unlock(userID)

	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
}

// Idle reports whether the session has been inactive past the idle timeout.
func (s *Store) Idle(sess Session) bool {
	return s.now().Sub(sess.LastActivity) >= s.idleTimeout
}

// EvictIdle removes every idle session. Called by the guard on access and by
// the background sweep. Returns the number of evicted sessions.
func (s *Store) EvictIdle(ctx context.Context) int {
	cutoff := s.now().Add(-s.idleTimeout)

	s.mu.RLock()
	idle := make([]string, 0)
	for userID, sess := range s.sessions {
		if !sess.LastActivity.After(cutoff) {
			idle = append(idle, userID)
		}
	}
	s.mu.RUnlock()

	evicted := 0
	for _, userID := range idle {
		s.keys.Lock(userID)
		s.mu.Lock()
		if sess, ok := s.sessions[userID]; ok && !sess.LastActivity.After(cutoff) {
			delete(s.sessions, userID)
			evicted++
		}
		s.mu.Unlock()
		s.keys.Unlock(userID)
	}
	return evicted
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
