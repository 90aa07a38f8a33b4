package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func hashCodes(t *testing.T, codes ...string) [][]byte {
	t.Helper()
	hashes := make([][]byte, len(codes))
	for i, c := range codes {
		h, err := bcrypt.GenerateFromPassword([]byte(c), bcrypt.MinCost)
		require.NoError(t, err)
		hashes[i] = h
	}
	return hashes
}

func TestBackupCodeStore_ConsumeIsSingleUse(t *testing.T) {
	s := NewInMemoryBackupCodeStore()
	ctx := context.Background()
	s.Replace(ctx, "u1", hashCodes(t, "AAAA-BBBB", "CCCC-DDDD"))

	require.True(t, s.Consume(ctx, "u1", "AAAA-BBBB"))
	assert.False(t, s.Consume(ctx, "u1", "AAAA-BBBB"), "used code never matches again")
	assert.Equal(t, 1, s.Remaining(ctx, "u1"))
}

func TestBackupCodeStore_FailedLookupConsumesNothing(t *testing.T) {
	s := NewInMemoryBackupCodeStore()
	ctx := context.Background()
	s.Replace(ctx, "u1", hashCodes(t, "AAAA-BBBB"))

	assert.False(t, s.Consume(ctx, "u1", "XXXX-YYYY"))
	assert.False(t, s.Consume(ctx, "stranger", "AAAA-BBBB"))
	assert.Equal(t, 1, s.Remaining(ctx, "u1"))
}

func TestBackupCodeStore_ReplaceDiscardsOldPool(t *testing.T) {
	s := NewInMemoryBackupCodeStore()
	ctx := context.Background()

	s.Replace(ctx, "u1", hashCodes(t, "AAAA-BBBB"))
	s.Replace(ctx, "u1", hashCodes(t, "CCCC-DDDD"))

	assert.False(t, s.Consume(ctx, "u1", "AAAA-BBBB"))
	assert.True(t, s.Consume(ctx, "u1", "CCCC-DDDD"))
}

func TestBackupCodeStore_ConcurrentConsumeSingleWinner(t *testing.T) {
	s := NewInMemoryBackupCodeStore()
	ctx := context.Background()
	s.Replace(ctx, "u1", hashCodes(t, "AAAA-BBBB"))

	var wg sync.WaitGroup
	wins := make(chan struct{}, 20)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Consume(ctx, "u1", "AAAA-BBBB") {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	assert.Len(t, wins, 1)
}
