package orders

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/arbor-commerce/arbor/internal/auth"
	"github.com/arbor-commerce/arbor/internal/cart"
	"github.com/arbor-commerce/arbor/internal/shared"
	"github.com/arbor-commerce/arbor/jobs"
)

type memRepo struct {
	nextID int64
	orders map[int64]Order
}

func newMemRepo() *memRepo {
	return &memRepo{nextID: 1, orders: map[int64]Order{}}
}

func (m *memRepo) Create(_ context.Context, order Order) (Order, error) {
	order.ID = m.nextID
	m.orders[m.nextID] = order
	m.nextID++
	return order, nil
}

func (m *memRepo) List(_ context.Context, _ ListOrdersFilters) ([]Order, int, error) {
	var orders []Order
	for _, order := range m.orders {
		orders = append(orders, order)
	}
	return orders, len(orders), nil
}

func (m *memRepo) Get(_ context.Context, id int64) (Order, error) {
	if order, ok := m.orders[id]; ok {
		return order, nil
	}
	return Order{}, shared.ErrNotFound
}

func (m *memRepo) UpdateStatus(_ context.Context, id int64, status Status) (Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return Order{}, shared.ErrNotFound
	}
	order.Status = status
	m.orders[id] = order
	return order, nil
}

type stubCarts struct {
	carts   map[string]cart.Cart
	cleared []string
}

func (s *stubCarts) Get(_ context.Context, token string) (cart.Cart, error) {
	return s.carts[token], nil
}

func (s *stubCarts) Clear(_ context.Context, token string) error {
	s.cleared = append(s.cleared, token)
	return nil
}

type stubIdempotency struct {
	keys    map[string]bool
	deleted []string
}

func (s *stubIdempotency) CheckAndInsert(_ context.Context, key, _ string) error {
	if s.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	s.keys[key] = true
	return nil
}

func (s *stubIdempotency) Delete(_ context.Context, key string) error {
	delete(s.keys, key)
	s.deleted = append(s.deleted, key)
	return nil
}

type stubMailer struct {
	sent []jobs.SendEmailPayload
}

func (m *stubMailer) EnqueueSendEmail(_ context.Context, payload jobs.SendEmailPayload) (*asynq.TaskInfo, error) {
	m.sent = append(m.sent, payload)
	return &asynq.TaskInfo{}, nil
}

type stubInvoices struct {
	orderIDs []int64
}

func (s *stubInvoices) EnqueueRenderInvoice(_ context.Context, orderID int64) (*asynq.TaskInfo, error) {
	s.orderIDs = append(s.orderIDs, orderID)
	return &asynq.TaskInfo{}, nil
}

type stubCommissions struct {
	accrued []string
	cents   []int64
}

func (s *stubCommissions) Accrue(_ context.Context, partnerCode string, _, orderTotalCents int64) error {
	s.accrued = append(s.accrued, partnerCode)
	s.cents = append(s.cents, orderTotalCents)
	return nil
}

type fixture struct {
	repo        *memRepo
	carts       *stubCarts
	idempotency *stubIdempotency
	mail        *stubMailer
	invoices    *stubInvoices
	commissions *stubCommissions
	service     *Service
}

func newFixture() *fixture {
	f := &fixture{
		repo: newMemRepo(),
		carts: &stubCarts{carts: map[string]cart.Cart{
			"tok-1": {Token: "tok-1", Lines: []cart.Line{
				{ProductID: 1, Name: "Oak Desk", PriceCents: 45900, Currency: "USD", Quantity: 2},
				{ProductID: 2, Name: "Task Chair", PriceCents: 12900, Currency: "USD", Quantity: 1},
			}},
			"tok-empty": {Token: "tok-empty"},
		}},
		idempotency: &stubIdempotency{keys: map[string]bool{}},
		mail:        &stubMailer{},
		invoices:    &stubInvoices{},
		commissions: &stubCommissions{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.service = NewService(f.repo, f.carts, f.idempotency, f.mail, f.invoices, f.commissions, nil, logger)
	return f
}

func TestCheckoutPlacesOrder(t *testing.T) {
	f := newFixture()

	order, err := f.service.Checkout(context.Background(), "key-1", CheckoutRequest{
		CartToken: "tok-1", Email: " Buyer@Shop.Test ",
	})
	require.NoError(t, err)
	require.Equal(t, StatusPending, order.Status)
	require.Equal(t, "buyer@shop.test", order.Email)
	require.Equal(t, int64(45900*2+12900), order.TotalCents)
	require.Len(t, order.Items, 2)
	require.Regexp(t, `^ORD-[0-9A-F-]{8}$`, order.Number)

	require.Equal(t, []string{"tok-1"}, f.carts.cleared)
	require.Equal(t, []int64{order.ID}, f.invoices.orderIDs)
	require.Len(t, f.mail.sent, 1)
	require.Equal(t, "buyer@shop.test", f.mail.sent[0].To)
	require.Contains(t, f.mail.sent[0].Body, "Total: USD 1,047.00")
}

func TestCheckoutDuplicateKeyConflicts(t *testing.T) {
	f := newFixture()

	_, err := f.service.Checkout(context.Background(), "key-1", CheckoutRequest{CartToken: "tok-1", Email: "a@b.c"})
	require.NoError(t, err)

	// The cart is untouched in the stub, so only the key blocks the retry.
	_, err = f.service.Checkout(context.Background(), "key-1", CheckoutRequest{CartToken: "tok-1", Email: "a@b.c"})
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	require.Len(t, f.repo.orders, 1)
}

func TestCheckoutEmptyCartReleasesKey(t *testing.T) {
	f := newFixture()

	_, err := f.service.Checkout(context.Background(), "key-1", CheckoutRequest{CartToken: "tok-empty", Email: "a@b.c"})
	require.ErrorIs(t, err, ErrEmptyCart)
	require.Equal(t, []string{"key-1"}, f.idempotency.deleted)

	// The same key works once the cart has content.
	_, err = f.service.Checkout(context.Background(), "key-1", CheckoutRequest{CartToken: "tok-1", Email: "a@b.c"})
	require.NoError(t, err)
}

func TestConfirmAccruesCommission(t *testing.T) {
	f := newFixture()

	order, err := f.service.Checkout(context.Background(), "key-1", CheckoutRequest{
		CartToken: "tok-1", Email: "a@b.c", PartnerCode: "ptn-42",
	})
	require.NoError(t, err)
	require.Equal(t, "PTN-42", order.PartnerCode)
	require.Empty(t, f.commissions.accrued, "no commission before confirmation")

	actor := &auth.Principal{ID: 1, Role: auth.RoleAdmin}
	updated, err := f.service.UpdateStatus(context.Background(), actor, order.ID, StatusConfirmed)
	require.NoError(t, err)
	require.Equal(t, StatusConfirmed, updated.Status)
	require.Equal(t, []string{"PTN-42"}, f.commissions.accrued)
	require.Equal(t, []int64{order.TotalCents}, f.commissions.cents)
}

func TestUpdateStatusRejectsBadTransitions(t *testing.T) {
	f := newFixture()
	order, err := f.service.Checkout(context.Background(), "key-1", CheckoutRequest{CartToken: "tok-1", Email: "a@b.c"})
	require.NoError(t, err)

	actor := &auth.Principal{ID: 1, Role: auth.RoleAdmin}
	_, err = f.service.UpdateStatus(context.Background(), actor, order.ID, StatusDelivered)
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.service.UpdateStatus(context.Background(), actor, order.ID, "LOST")
	require.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.service.UpdateStatus(context.Background(), actor, order.ID, StatusCancelled)
	require.NoError(t, err)
	_, err = f.service.UpdateStatus(context.Background(), actor, order.ID, StatusConfirmed)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestFormatAmount(t *testing.T) {
	require.Equal(t, "USD 1,234.50", FormatAmount("USD", 123450))
	require.Equal(t, "EUR 0.99", FormatAmount("EUR", 99))
	require.Equal(t, "USD 1,000,000.00", FormatAmount("USD", 100000000))
}
