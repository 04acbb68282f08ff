package otp

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const codeTTL = 10 * time.Minute

// consumeScript deletes the stored code only when it matches, so a code can
// be redeemed at most once even under concurrent attempts.
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  redis.call("DEL", KEYS[1])
  return 1
end
return 0
`)

// Store keeps one-time codes in redis keyed by account email.
type Store struct {
	rdb *redis.Client
}

// NewStore constructs a redis-backed code store.
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Put stores a code for the email, replacing any outstanding one. The code
// expires after ten minutes.
func (s *Store) Put(ctx context.Context, email, code string) error {
	return s.rdb.Set(ctx, storeKey(email), code, codeTTL).Err()
}

// Consume checks the submitted code and invalidates it on match.
func (s *Store) Consume(ctx context.Context, email, code string) (bool, error) {
	n, err := consumeScript.Run(ctx, s.rdb, []string{storeKey(email)}, code).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func storeKey(email string) string {
	return "otp:" + email
}
