package ratelimit

import (
	"context"
	"time"
)

// Result reports one admission decision.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Store tracks fixed-window request counts per key. Admit must perform the
// check and the increment as one atomic operation: N concurrent calls for
// the same key against a quota of M admit at most M.
//
// The in-memory store covers single-process deployments; the redis store
// preserves the global quota when multiple processes share the limit.
type Store interface {
	Admit(ctx context.Context, key string, window time.Duration, max int) (Result, error)
}
