package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arbor-commerce/arbor/internal/shared"
)

// CartTTL is how long an untouched cart survives. Every write refreshes it.
const CartTTL = 30 * 24 * time.Hour

// Store persists carts in redis as JSON blobs.
type Store struct {
	rdb *redis.Client
}

// NewStore constructs a redis-backed cart store.
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// Get loads a cart by token. Missing tokens map to shared.ErrNotFound.
func (s *Store) Get(ctx context.Context, token string) (Cart, error) {
	data, err := s.rdb.Get(ctx, storeKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Cart{}, shared.ErrNotFound
		}
		return Cart{}, err
	}
	var cart Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return Cart{}, err
	}
	return cart, nil
}

// Save writes the cart and refreshes its TTL.
func (s *Store) Save(ctx context.Context, cart Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, storeKey(cart.Token), data, CartTTL).Err()
}

// Delete drops the cart entirely.
func (s *Store) Delete(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, storeKey(token)).Err()
}

func storeKey(token string) string {
	return "cart:" + token
}
