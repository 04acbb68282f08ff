package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStoreAdmitAndDeny(t *testing.T) {
	store, _ := newRedisStore(t)

	first, err := store.Admit(context.Background(), "strict:a@b.c", time.Minute, 1)
	require.NoError(t, err)
	require.True(t, first.Allowed)

	second, err := store.Admit(context.Background(), "strict:a@b.c", time.Minute, 1)
	require.NoError(t, err)
	require.False(t, second.Allowed)
	require.Equal(t, 0, second.Remaining)
}

func TestRedisStoreWindowExpiry(t *testing.T) {
	store, mr := newRedisStore(t)

	_, err := store.Admit(context.Background(), "strict:k", time.Minute, 1)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	res, err := store.Admit(context.Background(), "strict:k", time.Minute, 1)
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

func TestRedisStoreConcurrentAdmission(t *testing.T) {
	store, _ := newRedisStore(t)
	const (
		requests = 50
		max      = 10
	)

	var admitted atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := store.Admit(context.Background(), "shared", time.Minute, max)
			require.NoError(t, err)
			if res.Allowed {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(max), admitted.Load())
}
