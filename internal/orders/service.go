package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/arbor-commerce/arbor/internal/auth"
	"github.com/arbor-commerce/arbor/internal/cart"
	"github.com/arbor-commerce/arbor/internal/shared"
	"github.com/arbor-commerce/arbor/jobs"
)

// ErrEmptyCart indicates a checkout against an empty or expired cart.
var ErrEmptyCart = errors.New("orders: cart is empty")

// ErrInvalidTransition indicates a status change the lifecycle forbids.
var ErrInvalidTransition = errors.New("orders: invalid status transition")

// Carts supplies and clears checkout carts.
type Carts interface {
	Get(ctx context.Context, token string) (cart.Cart, error)
	Clear(ctx context.Context, token string) error
}

// IdempotencyGuard reserves checkout keys so retries do not double-order.
type IdempotencyGuard interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Mailer submits send-email jobs.
type Mailer interface {
	EnqueueSendEmail(ctx context.Context, payload jobs.SendEmailPayload) (*asynq.TaskInfo, error)
}

// InvoiceEnqueuer submits invoice rendering jobs.
type InvoiceEnqueuer interface {
	EnqueueRenderInvoice(ctx context.Context, orderID int64) (*asynq.TaskInfo, error)
}

// Commissions accrues partner commission when an order is confirmed.
type Commissions interface {
	Accrue(ctx context.Context, partnerCode string, orderID, orderTotalCents int64) error
}

// Service handles checkout and order management.
type Service struct {
	repo        Repository
	carts       Carts
	idempotency IdempotencyGuard
	mail        Mailer
	invoices    InvoiceEnqueuer
	commissions Commissions
	audit       *shared.AuditLogger
	logger      *slog.Logger
}

// NewService constructs a Service. invoices and commissions may be nil when
// the deployment runs without a worker or the partner program.
func NewService(repo Repository, carts Carts, idempotency IdempotencyGuard, mail Mailer, invoices InvoiceEnqueuer, commissions Commissions, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		carts:       carts,
		idempotency: idempotency,
		mail:        mail,
		invoices:    invoices,
		commissions: commissions,
		audit:       audit,
		logger:      logger,
	}
}

// Checkout places an order from a cart. The idempotency key is reserved
// before any work; a duplicate key returns ErrIdempotencyConflict without
// creating a second order. The cart clear and follow-up jobs are best
// effort once the order row is committed.
func (s *Service) Checkout(ctx context.Context, idempotencyKey string, req CheckoutRequest) (Order, error) {
	if err := s.idempotency.CheckAndInsert(ctx, idempotencyKey, "orders"); err != nil {
		return Order{}, err
	}

	order, err := s.checkout(ctx, req)
	if err != nil {
		// Release the key so the client can retry once the cause is fixed.
		if delErr := s.idempotency.Delete(ctx, idempotencyKey); delErr != nil {
			s.logger.Error("release idempotency key", slog.Any("error", delErr))
		}
		return Order{}, err
	}
	return order, nil
}

func (s *Service) checkout(ctx context.Context, req CheckoutRequest) (Order, error) {
	checkoutCart, err := s.carts.Get(ctx, req.CartToken)
	if err != nil {
		return Order{}, err
	}
	if checkoutCart.IsEmpty() {
		return Order{}, ErrEmptyCart
	}

	order := Order{
		Number:      orderNumber(),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Status:      StatusPending,
		Items:       make([]Item, 0, len(checkoutCart.Lines)),
		TotalCents:  checkoutCart.SubtotalCents(),
		Currency:    checkoutCart.Lines[0].Currency,
		PartnerCode: strings.ToUpper(strings.TrimSpace(req.PartnerCode)),
	}
	for _, line := range checkoutCart.Lines {
		order.Items = append(order.Items, Item{
			ProductID:  line.ProductID,
			Name:       line.Name,
			PriceCents: line.PriceCents,
			Currency:   line.Currency,
			Quantity:   line.Quantity,
		})
	}

	created, err := s.repo.Create(ctx, order)
	if err != nil {
		return Order{}, err
	}

	if err := s.carts.Clear(ctx, req.CartToken); err != nil {
		s.logger.Error("clear cart after checkout", slog.String("order", created.Number), slog.Any("error", err))
	}
	if _, err := s.mail.EnqueueSendEmail(ctx, confirmationEmail(created)); err != nil {
		s.logger.Error("enqueue confirmation email", slog.String("order", created.Number), slog.Any("error", err))
	}
	if s.invoices != nil {
		if _, err := s.invoices.EnqueueRenderInvoice(ctx, created.ID); err != nil {
			s.logger.Error("enqueue invoice", slog.String("order", created.Number), slog.Any("error", err))
		}
	}

	s.logger.Info("order placed", slog.String("order", created.Number), slog.Int64("total_cents", created.TotalCents))
	return created, nil
}

// List returns orders for admin management.
func (s *Service) List(ctx context.Context, filters ListOrdersFilters) ([]Order, int, error) {
	return s.repo.List(ctx, filters)
}

// Get fetches one order with its items.
func (s *Service) Get(ctx context.Context, id int64) (Order, error) {
	return s.repo.Get(ctx, id)
}

// UpdateStatus moves an order through its lifecycle. Confirming an order
// with a partner code accrues the partner's commission.
func (s *Service) UpdateStatus(ctx context.Context, actor *auth.Principal, id int64, to Status) (Order, error) {
	if !ValidStatus(to) {
		return Order{}, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if !CanTransition(current.Status, to) {
		return Order{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, to)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, to)
	if err != nil {
		return Order{}, err
	}

	if to == StatusConfirmed && updated.PartnerCode != "" && s.commissions != nil {
		if err := s.commissions.Accrue(ctx, updated.PartnerCode, updated.ID, updated.TotalCents); err != nil {
			s.logger.Error("accrue commission", slog.String("order", updated.Number), slog.Any("error", err))
		}
	}

	if s.audit != nil {
		var actorID int64
		if actor != nil {
			actorID = actor.ID
		}
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "order.status",
			Entity:   "order",
			EntityID: strconv.FormatInt(id, 10),
			Meta:     map[string]any{"from": string(current.Status), "to": string(to)},
		})
	}
	return updated, nil
}

// InvoiceOrder loads the invoice view of an order for the rendering task.
func (s *Service) InvoiceOrder(ctx context.Context, orderID int64) (jobs.InvoiceOrder, error) {
	order, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return jobs.InvoiceOrder{}, err
	}
	invoice := jobs.InvoiceOrder{
		Number: order.Number,
		Email:  order.Email,
		Placed: order.CreatedAt,
		Items:  make([]jobs.InvoiceItem, 0, len(order.Items)),
		Total:  FormatAmount(order.Currency, order.TotalCents),
	}
	for _, item := range order.Items {
		invoice.Items = append(invoice.Items, jobs.InvoiceItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Amount:   FormatAmount(item.Currency, item.PriceCents*int64(item.Quantity)),
		})
	}
	return invoice, nil
}

func confirmationEmail(order Order) jobs.SendEmailPayload {
	var lines strings.Builder
	for _, item := range order.Items {
		fmt.Fprintf(&lines, "- %s x%d (%s)\n", item.Name, item.Quantity, FormatAmount(item.Currency, item.PriceCents*int64(item.Quantity)))
	}
	return jobs.SendEmailPayload{
		To:      order.Email,
		Subject: "Order " + order.Number + " confirmed",
		Body: "Thank you for your order.\n\n" + lines.String() +
			"\nTotal: " + FormatAmount(order.Currency, order.TotalCents) + "\n",
	}
}

var amountPrinter = message.NewPrinter(language.English)

// FormatAmount renders a cent amount with locale-aware grouping, e.g.
// "USD 1,234.50".
func FormatAmount(currency string, cents int64) string {
	return amountPrinter.Sprintf("%s %v", currency, number.Decimal(float64(cents)/100, number.Scale(2)))
}

func orderNumber() string {
	return "ORD-" + strings.ToUpper(uuid.NewString()[:8])
}
