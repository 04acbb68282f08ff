package partners

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arbor-commerce/arbor/internal/shared"
)

// defaultCommissionBps is the flat referral rate applied to new partners,
// in basis points of the order total.
const defaultCommissionBps = 500

// ErrNotApproved indicates commission work against a partner who is not
// approved yet.
var ErrNotApproved = errors.New("partners: partner is not approved")

// ErrUnknownStatus indicates an approval state outside the lifecycle.
var ErrUnknownStatus = errors.New("partners: unknown status")

// RegisterRequest signs up a new partner.
type RegisterRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// Service manages affiliate partners and their commission ledger.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Register signs up a partner in PENDING state with a freshly minted
// referral code.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (Partner, error) {
	code, err := mintCode()
	if err != nil {
		return Partner{}, fmt.Errorf("partners: mint code: %w", err)
	}
	partner, err := s.repo.Create(ctx, Partner{
		Name:              strings.TrimSpace(req.Name),
		Email:             strings.ToLower(strings.TrimSpace(req.Email)),
		Code:              code,
		Status:            StatusPending,
		CommissionRateBps: defaultCommissionBps,
	})
	if err != nil {
		return Partner{}, err
	}
	s.logger.Info("partner registered", slog.Int64("partner_id", partner.ID))
	return partner, nil
}

// List returns partners for admin review.
func (s *Service) List(ctx context.Context, status Status, page, perPage int) ([]Partner, int, error) {
	return s.repo.List(ctx, status, page, perPage)
}

// Get fetches one partner.
func (s *Service) Get(ctx context.Context, id int64) (Partner, error) {
	return s.repo.Get(ctx, id)
}

// SetStatus approves or rejects a partner.
func (s *Service) SetStatus(ctx context.Context, id int64, status Status) (Partner, error) {
	switch status {
	case StatusApproved, StatusRejected, StatusPending:
	default:
		return Partner{}, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	return s.repo.UpdateStatus(ctx, id, status)
}

// Accrue records the commission for a confirmed order referred by code.
// Unknown or unapproved partners accrue nothing.
func (s *Service) Accrue(ctx context.Context, partnerCode string, orderID, orderTotalCents int64) error {
	partner, err := s.repo.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(partnerCode)))
	if err != nil {
		return err
	}
	if partner.Status != StatusApproved {
		return fmt.Errorf("%w: %s", ErrNotApproved, partner.Code)
	}

	amount := orderTotalCents * int64(partner.CommissionRateBps) / 10_000
	if amount <= 0 {
		return nil
	}
	if err := s.repo.InsertCommission(ctx, Commission{
		PartnerID:   partner.ID,
		OrderID:     orderID,
		AmountCents: amount,
	}); err != nil {
		if errors.Is(err, shared.ErrDuplicate) {
			// The order was confirmed twice; the first accrual stands.
			return nil
		}
		return err
	}

	s.logger.Info("commission accrued",
		slog.Int64("partner_id", partner.ID),
		slog.Int64("order_id", orderID),
		slog.Int64("amount_cents", amount))
	return nil
}

// EarningsByCode summarizes a partner's accrued commission.
func (s *Service) EarningsByCode(ctx context.Context, code string) (Earnings, error) {
	partner, err := s.repo.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return Earnings{}, err
	}
	count, total, err := s.repo.Earnings(ctx, partner.ID)
	if err != nil {
		return Earnings{}, err
	}
	return Earnings{PartnerCode: partner.Code, OrderCount: count, TotalCents: total}, nil
}

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func mintCode() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
	}
	return "PTN-" + string(buf), nil
}
