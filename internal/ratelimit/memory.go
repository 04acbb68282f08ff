package ratelimit

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const memoryShards = 16

type windowCount struct {
	start time.Time
	count int
}

type memoryShard struct {
	mu      sync.Mutex
	windows map[string]windowCount
}

// MemoryStore is a sharded in-process Store. Each shard serialises its
// check-and-increment under one mutex; keys never span shards, so no
// cross-shard invariant exists.
type MemoryStore struct {
	shards [memoryShards]*memoryShard
	now    func() time.Time
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{now: time.Now}
	for i := range s.shards {
		s.shards[i] = &memoryShard{windows: make(map[string]windowCount)}
	}
	return s
}

// Admit implements Store.
func (s *MemoryStore) Admit(_ context.Context, key string, window time.Duration, max int) (Result, error) {
	now := s.now()
	windowStart := now.Truncate(window)
	resetAt := windowStart.Add(window)

	shard := s.shard(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	current, ok := shard.windows[key]
	if !ok || current.start.Before(windowStart) {
		current = windowCount{start: windowStart}
	}
	if current.count >= max {
		shard.windows[key] = current
		return Result{Allowed: false, Remaining: 0, ResetAt: resetAt}, nil
	}
	current.count++
	shard.windows[key] = current

	shard.evictStale(now, window)
	return Result{Allowed: true, Remaining: max - current.count, ResetAt: resetAt}, nil
}

func (s *MemoryStore) shard(key string) *memoryShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return s.shards[h.Sum32()%memoryShards]
}

// evictStale drops windows that ended more than one window ago. Called with
// the shard lock held.
func (sh *memoryShard) evictStale(now time.Time, window time.Duration) {
	if len(sh.windows) < 1024 {
		return
	}
	cutoff := now.Add(-2 * window)
	for key, w := range sh.windows {
		if w.start.Before(cutoff) {
			delete(sh.windows, key)
		}
	}
}
