package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStoreFixedWindow(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2026, 3, 1, 10, 0, 30, 0, time.UTC)
	store.now = func() time.Time { return now }

	first, err := store.Admit(context.Background(), "k", time.Minute, 1)
	require.NoError(t, err)
	require.True(t, first.Allowed)
	require.Equal(t, 0, first.Remaining)

	second, err := store.Admit(context.Background(), "k", time.Minute, 1)
	require.NoError(t, err)
	require.False(t, second.Allowed)

	// Crossing the window boundary resets the count.
	now = now.Add(31 * time.Second)
	third, err := store.Admit(context.Background(), "k", time.Minute, 1)
	require.NoError(t, err)
	require.True(t, third.Allowed)
}

func TestMemoryStoreKeysIndependent(t *testing.T) {
	store := NewMemoryStore()

	res, err := store.Admit(context.Background(), "a", time.Minute, 1)
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = store.Admit(context.Background(), "b", time.Minute, 1)
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

func TestMemoryStoreConcurrentAdmission(t *testing.T) {
	store := NewMemoryStore()
	const (
		requests = 50
		max      = 10
	)

	var admitted atomic.Int64
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			res, err := store.Admit(context.Background(), "shared", time.Minute, max)
			require.NoError(t, err)
			if res.Allowed {
				admitted.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Equal(t, int64(max), admitted.Load())
}
