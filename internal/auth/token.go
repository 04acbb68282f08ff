package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the payload carried by an issued credential. The token binds to
// exactly one admin (the subject); role and permissions are re-read from the
// store on every verification, so a token never outlives a role change.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and parses HS256-signed bearer credentials.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager constructs a TokenManager. The secret must be non-empty.
func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("auth: token secret required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}, nil
}

// TTL returns the configured credential lifetime.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a credential for the admin.
func (m *TokenManager) Issue(admin *Admin) (string, error) {
	now := time.Now()
	claims := &Claims{
		Role: string(admin.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(admin.ID, 10),
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Parse validates signature, algorithm and time claims, and returns the
// admin ID the credential binds to.
func (m *TokenManager) Parse(tokenString string) (adminID int64, claims *Claims, err error) {
	parsed := &Claims{}
	_, err = jwt.ParseWithClaims(tokenString, parsed, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, nil, ErrExpiredCredential
		}
		return 0, nil, ErrInvalidCredential
	}

	adminID, convErr := strconv.ParseInt(parsed.Subject, 10, 64)
	if convErr != nil || adminID <= 0 {
		return 0, nil, ErrInvalidCredential
	}
	return adminID, parsed, nil
}
