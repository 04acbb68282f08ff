package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/arbor-commerce/arbor/internal/shared"
)

// lookupTimeout bounds the principal store round trip during verification so
// a stalled database fails the request instead of hanging it.
const lookupTimeout = 3 * time.Second

// Service wraps authentication business rules: login and per-request
// credential verification.
type Service struct {
	repo   Repository
	tokens *TokenManager
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenManager) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Login validates email/password credentials and issues a bearer token.
// Every failure collapses to shared.ErrInvalidCredentials so the response
// cannot reveal whether the email or the password was wrong.
func (s *Service) Login(ctx context.Context, email, password string) (string, *Principal, error) {
	admin, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", nil, shared.ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("auth: login lookup: %w", err)
	}
	if !admin.IsActive {
		return "", nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return "", nil, shared.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(admin)
	if err != nil {
		return "", nil, err
	}
	return token, principalOf(admin), nil
}

// Verify resolves a bearer credential to a live principal. Signature and
// expiry come from the token; existence and the active flag are re-checked
// against the store on every call, so revoking an account takes effect on
// the next request regardless of outstanding tokens.
func (s *Service) Verify(ctx context.Context, tokenString string) (*Principal, error) {
	adminID, _, err := s.tokens.Parse(tokenString)
	if err != nil {
		return nil, err
	}

	lookupCtx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	admin, err := s.repo.FindByID(lookupCtx, adminID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, fmt.Errorf("auth: principal lookup: %w", err)
	}
	if !admin.IsActive {
		return nil, ErrPrincipalDisabled
	}
	return principalOf(admin), nil
}

func principalOf(admin *Admin) *Principal {
	return &Principal{
		ID:          admin.ID,
		Email:       admin.Email,
		Role:        admin.Role,
		Permissions: admin.Permissions,
		Active:      admin.IsActive,
	}
}
