package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// admitScript increments the window counter and reports the new value and
// remaining TTL in one round trip, so the check and the increment cannot
// interleave across processes.
var admitScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {count, ttl}
`)

// RedisStore is a Store backed by a shared redis instance. Counters use one
// key per (bucket, window start), expired by redis itself.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore constructs a RedisStore.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "ratelimit"}
}

// Admit implements Store.
func (s *RedisStore) Admit(ctx context.Context, key string, window time.Duration, max int) (Result, error) {
	windowStart := time.Now().Truncate(window)
	redisKey := fmt.Sprintf("%s:%s:%d", s.prefix, key, windowStart.Unix())

	values, err := admitScript.Run(ctx, s.client, []string{redisKey}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit: redis admit: %w", err)
	}
	if len(values) != 2 {
		return Result{}, fmt.Errorf("ratelimit: redis admit: unexpected reply %v", values)
	}

	count := int(values[0])
	resetAt := windowStart.Add(window)
	if ttl := values[1]; ttl > 0 {
		resetAt = time.Now().Add(time.Duration(ttl) * time.Millisecond)
	}
	if count > max {
		return Result{Allowed: false, Remaining: 0, ResetAt: resetAt}, nil
	}
	return Result{Allowed: true, Remaining: max - count, ResetAt: resetAt}, nil
}
