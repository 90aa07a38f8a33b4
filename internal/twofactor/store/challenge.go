// Package store holds two-factor state: pending challenges and backup-code
// pools. Both are in-memory, single-instance by default; the interfaces in
// the service package are the seam for a shared backing store.
package store

import (
	"context"
	"sync"
	"time"

	"edgeguard/internal/twofactor/models"
	psync "edgeguard/pkg/platform/sync"
)

// InMemoryChallengeStore holds pending challenges keyed by (user, channel).
// Per-key mutations are serialized by a sharded mutex so that concurrent
// submissions for the same challenge cannot double-verify a code or slip
// past the attempt ceiling. The map itself is guarded separately.
type InMemoryChallengeStore struct {
	keys *psync.ShardedMutex

	mu         sync.RWMutex
	challenges map[string]*models.Challenge

	now func() time.Time
}

// ChallengeOption configures the store.
type ChallengeOption func(*InMemoryChallengeStore)

// WithChallengeClock injects a clock, used by tests to step past expiry.
func WithChallengeClock(now func() time.Time) ChallengeOption {
	return func(s *InMemoryChallengeStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewInMemoryChallengeStore creates an empty challenge store.
func NewInMemoryChallengeStore(opts ...ChallengeOption) *InMemoryChallengeStore {
	s := &InMemoryChallengeStore{
		keys:       psync.NewShardedMutex(),
		challenges: make(map[string]*models.Challenge),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put stores a challenge, replacing any prior challenge for the same
// (user, channel) pair. Issuing a new code always discards the old one.
func (s *InMemoryChallengeStore) Put(ctx context.Context, ch models.Challenge) {
	key := models.Key(ch.UserID, ch.Channel)
	s.keys.Lock(key)
	defer s.keys.Unlock(key)

	stored := ch
	s.mu.Lock()
	s.challenges[key] = &stored
	s.mu.Unlock()
}

// Get returns a copy of the pending challenge for the pair, if any. Expiry
// is not evaluated here; Attempt owns the state machine.
func (s *InMemoryChallengeStore) Get(ctx context.Context, userID string, channel models.Channel) (models.Challenge, bool) {
	key := models.Key(userID, channel)
	s.keys.Lock(key)
	defer s.keys.Unlock(key)

	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.challenges[key]
	if !ok {
		return models.Challenge{}, false
	}
	return *ch, true
}

// Delete removes the pending challenge for the pair, if any.
func (s *InMemoryChallengeStore) Delete(ctx context.Context, userID string, channel models.Channel) {
	key := models.Key(userID, channel)
	s.keys.Lock(key)
	defer s.keys.Unlock(key)

	s.mu.Lock()
	delete(s.challenges, key)
	s.mu.Unlock()
}

// Attempt submits a code against the pending challenge for the pair and
// resolves the whole challenge state machine in one per-key critical
// section. Remaining reports how many wrong submissions are left before the
// challenge locks; it is meaningful only for AttemptMismatch.
//
// Expired and verified challenges are deleted here, so a subsequent Attempt
// reports AttemptNotFound. Locked challenges are kept until expiry sweep so
// repeated submissions keep reading as locked rather than as absent.
func (s *InMemoryChallengeStore) Attempt(ctx context.Context, userID string, channel models.Channel, submitted string) (models.AttemptOutcome, int) {
	key := models.Key(userID, channel)
	s.keys.Lock(key)
	defer s.keys.Unlock(key)

	s.mu.RLock()
	ch, ok := s.challenges[key]
	s.mu.RUnlock()
	if !ok {
		return models.AttemptNotFound, 0
	}

	now := s.now()
	if now.After(ch.ExpiresAt) {
		s.mu.Lock()
		delete(s.challenges, key)
		s.mu.Unlock()
		return models.AttemptExpired, 0
	}

	if ch.Attempts >= models.AttemptCeiling {
		return models.AttemptLocked, 0
	}

	ch.Attempts++
	if submitted == ch.Code {
		s.mu.Lock()
		delete(s.challenges, key)
		s.mu.Unlock()
		return models.AttemptVerified, 0
	}
	return models.AttemptMismatch, models.AttemptCeiling - ch.Attempts
}

// EvictExpired removes challenges past their expiry. Called by the
// background sweep; safe to run concurrently with Attempt because deletion
// is re-checked under the per-key lock.
func (s *InMemoryChallengeStore) EvictExpired(ctx context.Context) int {
	now := s.now()

	s.mu.RLock()
	candidates := make([]string, 0)
	for key, ch := range s.challenges {
		if now.After(ch.ExpiresAt) {
			candidates = append(candidates, key)
		}
	}
	s.mu.RUnlock()

	evicted := 0
	for _, key := range candidates {
		s.keys.Lock(key)
		s.mu.Lock()
		if ch, ok := s.challenges[key]; ok && now.After(ch.ExpiresAt) {
			delete(s.challenges, key)
			evicted++
		}
		s.mu.Unlock()
		s.keys.Unlock(key)
	}
	return evicted
}

// Len reports the number of pending challenges.
func (s *InMemoryChallengeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.challenges)
}
