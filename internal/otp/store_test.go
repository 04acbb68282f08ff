package otp

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStore(rdb), mr
}

func TestStoreConsumeMatchingCode(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a@b.c", "123456"))

	ok, err := store.Consume(ctx, "a@b.c", "123456")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = store.Consume(ctx, "a@b.c", "123456")
	require.NoError(t, err)
	require.False(t, ok, "a code redeems at most once")
}

func TestStoreRejectsWrongCode(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a@b.c", "123456"))

	ok, err := store.Consume(ctx, "a@b.c", "654321")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = store.Consume(ctx, "a@b.c", "123456")
	require.NoError(t, err)
	require.True(t, ok, "a wrong attempt must not invalidate the real code")
}

func TestStoreCodeExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a@b.c", "123456"))
	mr.FastForward(codeTTL + time.Second)

	ok, err := store.Consume(ctx, "a@b.c", "123456")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStoreReplacesOutstandingCode(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a@b.c", "111111"))
	require.NoError(t, store.Put(ctx, "a@b.c", "222222"))

	ok, err := store.Consume(ctx, "a@b.c", "111111")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = store.Consume(ctx, "a@b.c", "222222")
	require.NoError(t, err)
	require.True(t, ok)
}
