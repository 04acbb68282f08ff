package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/arbor-commerce/arbor/internal/auth"
	"github.com/arbor-commerce/arbor/internal/shared"
	"github.com/arbor-commerce/arbor/jobs"
)

// ErrInvalidCode covers every reset failure visible to the caller: wrong
// code, expired code, unknown email. One error keeps account enumeration
// out of the reset endpoint.
var ErrInvalidCode = errors.New("otp: invalid or expired code")

// CodeStore persists one-time codes.
type CodeStore interface {
	Put(ctx context.Context, email, code string) error
	Consume(ctx context.Context, email, code string) (bool, error)
}

// EmailEnqueuer submits send-email jobs.
type EmailEnqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload jobs.SendEmailPayload) (*asynq.TaskInfo, error)
}

// PasswordResetter replaces an account password after code verification.
type PasswordResetter interface {
	ResetPassword(ctx context.Context, email, newPassword string) error
}

// Service issues and redeems password-reset codes for admin accounts.
type Service struct {
	accounts  auth.Repository
	passwords PasswordResetter
	store     CodeStore
	mail      EmailEnqueuer
	logger    *slog.Logger
}

// NewService constructs a Service.
func NewService(accounts auth.Repository, passwords PasswordResetter, store CodeStore, mail EmailEnqueuer, logger *slog.Logger) *Service {
	return &Service{accounts: accounts, passwords: passwords, store: store, mail: mail, logger: logger}
}

// RequestCode generates and mails a six-digit code when the email belongs
// to an active admin. It returns nil for unknown or disabled accounts so the
// endpoint response never reveals whether an account exists.
func (s *Service) RequestCode(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	admin, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Debug("otp request for unknown email")
			return nil
		}
		return fmt.Errorf("otp: account lookup: %w", err)
	}
	if !admin.IsActive {
		s.logger.Debug("otp request for inactive account", slog.Int64("admin_id", admin.ID))
		return nil
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("otp: generate code: %w", err)
	}
	if err := s.store.Put(ctx, email, code); err != nil {
		return fmt.Errorf("otp: store code: %w", err)
	}

	if _, err := s.mail.EnqueueSendEmail(ctx, jobs.SendEmailPayload{
		To:      email,
		Subject: "Your password reset code",
		Body:    "Your one-time code is " + code + ". It expires in 10 minutes.",
	}); err != nil {
		return fmt.Errorf("otp: enqueue email: %w", err)
	}

	s.logger.Info("otp issued", slog.Int64("admin_id", admin.ID))
	return nil
}

// Reset verifies the code and, on match, replaces the account password. The
// code is invalidated before the password write so it cannot be replayed.
func (s *Service) Reset(ctx context.Context, email, code, newPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	ok, err := s.store.Consume(ctx, email, code)
	if err != nil {
		return fmt.Errorf("otp: consume code: %w", err)
	}
	if !ok {
		return ErrInvalidCode
	}

	if err := s.passwords.ResetPassword(ctx, email, newPassword); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return ErrInvalidCode
		}
		return fmt.Errorf("otp: reset password: %w", err)
	}

	s.logger.Info("password reset via otp")
	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
