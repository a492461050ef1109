package revocation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreAddContains(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	ok, err := s.Contains(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Add(ctx, "jti-1", time.Now().Add(time.Hour)))

	ok, err = s.Contains(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryStoreExpiredEntriesPruned(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Add(ctx, "jti-1", now.Add(time.Minute)))

	now = now.Add(2 * time.Minute)

	ok, err := s.Contains(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, ok)

	s.mu.Lock()
	require.Empty(t, s.entries)
	s.mu.Unlock()
}

func TestMemoryStoreConcurrentAdd(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, s.Add(ctx, "shared-jti", exp))
		}()
	}
	wg.Wait()

	ok, err := s.Contains(ctx, "shared-jti")
	require.NoError(t, err)
	require.True(t, ok)
}
