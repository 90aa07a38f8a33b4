package store

import (
	"context"
	"sync"

	"golang.org/x/crypto/bcrypt"

	psync "edgeguard/pkg/platform/sync"
)

// backupCode is one entry in a user's pool. Only the bcrypt hash is kept;
// the plaintext exists exactly once, in the enrollment response.
type backupCode struct {
	hash []byte
	used bool
}

// InMemoryBackupCodeStore holds per-user backup-code pools. Consumption is
// serialized per user so two concurrent submissions of the same code cannot
// both succeed.
type InMemoryBackupCodeStore struct {
	keys *psync.ShardedMutex

	mu    sync.RWMutex
	pools map[string][]backupCode
}

// NewInMemoryBackupCodeStore creates an empty backup-code store.
func NewInMemoryBackupCodeStore() *InMemoryBackupCodeStore {
	return &InMemoryBackupCodeStore{
		keys:  psync.NewShardedMutex(),
		pools: make(map[string][]backupCode),
	}
}

// Replace installs a fresh pool of hashed codes for the user, discarding any
// prior pool including its unused codes. Enrollment is the only writer.
func (s *InMemoryBackupCodeStore) Replace(ctx context.Context, userID string, hashes [][]byte) {
	pool := make([]backupCode, len(hashes))
	for i, h := range hashes {
		pool[i] = backupCode{hash: h}
	}

	s.keys.Lock(userID)
	defer s.keys.Unlock(userID)

	s.mu.Lock()
	s.pools[userID] = pool
	s.mu.Unlock()
}

// Consume marks the matching unused code as used and reports whether a match
// was found. A used code never matches again; a failed lookup consumes
// nothing.
func (s *InMemoryBackupCodeStore) Consume(ctx context.Context, userID, code string) bool {
	s.keys.Lock(userID)
	defer s.keys.Unlock(userID)

	s.mu.RLock()
	pool := s.pools[userID]
	s.mu.RUnlock()

	for i := range pool {
		if pool[i].used {
			continue
		}
		if bcrypt.CompareHashAndPassword(pool[i].hash, []byte(code)) == nil {
			pool[i].used = true
			return true
		}
	}
	return false
}

// Remaining reports how many unused codes the user has left.
func (s *InMemoryBackupCodeStore) Remaining(ctx context.Context, userID string) int {
	s.keys.Lock(userID)
	defer s.keys.Unlock(userID)

	s.mu.RLock()
	pool := s.pools[userID]
	s.mu.RUnlock()

	n := 0
	for i := range pool {
		if !pool[i].used {
			n++
		}
	}
	return n
}
