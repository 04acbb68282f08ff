package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/arbor-commerce/arbor/internal/catalog"
	"github.com/arbor-commerce/arbor/internal/shared"
)

type stubProducts struct {
	products map[int64]catalog.Product
}

func (s *stubProducts) GetProduct(_ context.Context, id int64) (catalog.Product, error) {
	if product, ok := s.products[id]; ok {
		return product, nil
	}
	return catalog.Product{}, shared.ErrNotFound
}

func newTestService(t *testing.T) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	products := &stubProducts{products: map[int64]catalog.Product{
		1: {ID: 1, Name: "Oak Desk", PriceCents: 45900, Currency: "USD", IsActive: true},
		2: {ID: 2, Name: "Task Chair", PriceCents: 12900, Currency: "USD", IsActive: true},
		3: {ID: 3, Name: "Retired Lamp", PriceCents: 900, Currency: "USD", IsActive: false},
	}}
	return NewService(NewStore(rdb), products), mr
}

func TestAddLineMintsTokenAndSnapshotsProduct(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	cart, err := service.AddLine(ctx, "", 1, 2)
	require.NoError(t, err)
	require.NotEmpty(t, cart.Token)
	require.Len(t, cart.Lines, 1)
	require.Equal(t, "Oak Desk", cart.Lines[0].Name)
	require.Equal(t, int64(45900), cart.Lines[0].PriceCents)
	require.Equal(t, int64(91800), cart.SubtotalCents())

	reloaded, err := service.Get(ctx, cart.Token)
	require.NoError(t, err)
	require.Equal(t, cart.Lines, reloaded.Lines)
}

func TestAddLineMergesExistingProduct(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	cart, err := service.AddLine(ctx, "", 1, 1)
	require.NoError(t, err)
	cart, err = service.AddLine(ctx, cart.Token, 1, 3)
	require.NoError(t, err)

	require.Len(t, cart.Lines, 1)
	require.Equal(t, 4, cart.Lines[0].Quantity)
}

func TestAddLineRejectsInactiveAndUnknown(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	_, err := service.AddLine(ctx, "", 3, 1)
	require.ErrorIs(t, err, ErrInactiveProduct)

	_, err = service.AddLine(ctx, "", 42, 1)
	require.ErrorIs(t, err, shared.ErrNotFound)

	_, err = service.AddLine(ctx, "", 1, 0)
	require.ErrorIs(t, err, ErrQuantity)

	_, err = service.AddLine(ctx, "", 1, 100)
	require.ErrorIs(t, err, ErrQuantity)
}

func TestSetQuantityAndRemove(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	cart, err := service.AddLine(ctx, "", 1, 1)
	require.NoError(t, err)
	cart, err = service.AddLine(ctx, cart.Token, 2, 1)
	require.NoError(t, err)

	cart, err = service.SetQuantity(ctx, cart.Token, 1, 5)
	require.NoError(t, err)
	require.Equal(t, 5, cart.Lines[0].Quantity)

	cart, err = service.RemoveLine(ctx, cart.Token, 1)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 1)
	require.Equal(t, int64(2), cart.Lines[0].ProductID)

	_, err = service.SetQuantity(ctx, cart.Token, 42, 1)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUnknownTokenYieldsEmptyCart(t *testing.T) {
	service, _ := newTestService(t)

	cart, err := service.Get(context.Background(), "no-such-token")
	require.NoError(t, err)
	require.True(t, cart.IsEmpty())
	require.Equal(t, "no-such-token", cart.Token)
}

func TestCartExpiresAfterTTL(t *testing.T) {
	service, mr := newTestService(t)
	ctx := context.Background()

	cart, err := service.AddLine(ctx, "", 1, 1)
	require.NoError(t, err)

	mr.FastForward(CartTTL + time.Hour)

	reloaded, err := service.Get(ctx, cart.Token)
	require.NoError(t, err)
	require.True(t, reloaded.IsEmpty())
}

func TestWriteRefreshesTTL(t *testing.T) {
	service, mr := newTestService(t)
	ctx := context.Background()

	cart, err := service.AddLine(ctx, "", 1, 1)
	require.NoError(t, err)

	mr.FastForward(CartTTL - time.Hour)
	_, err = service.AddLine(ctx, cart.Token, 2, 1)
	require.NoError(t, err)

	mr.FastForward(CartTTL - time.Hour)
	reloaded, err := service.Get(ctx, cart.Token)
	require.NoError(t, err)
	require.Len(t, reloaded.Lines, 2)
}

func TestClearDeletesCart(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	cart, err := service.AddLine(ctx, "", 1, 1)
	require.NoError(t, err)
	require.NoError(t, service.Clear(ctx, cart.Token))

	reloaded, err := service.Get(ctx, cart.Token)
	require.NoError(t, err)
	require.True(t, reloaded.IsEmpty())
}
