package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/arbor-commerce/arbor/internal/platform/httpx"
)

// RequireAuth verifies the bearer credential and attaches the principal to
// the request context. It decides nothing about roles or permissions; that
// is the rbac gates' job, and they must run after this middleware.
//
// All verification failures produce the same 401 body. Which check failed
// (bad signature, expiry, unknown or disabled account) is only logged.
func RequireAuth(service *Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				httpx.Fail(w, http.StatusUnauthorized, "Authentication required.")
				return
			}

			principal, err := service.Verify(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, ErrInvalidCredential),
					errors.Is(err, ErrExpiredCredential),
					errors.Is(err, ErrPrincipalNotFound),
					errors.Is(err, ErrPrincipalDisabled):
					if logger != nil {
						logger.Warn("credential rejected", slog.String("path", r.URL.Path), slog.Any("reason", err))
					}
					httpx.Fail(w, http.StatusUnauthorized, "Authentication required.")
				default:
					// Principal store unavailable: no decision on
					// incomplete data.
					if logger != nil {
						logger.Error("credential verification", slog.String("path", r.URL.Path), slog.Any("error", err))
					}
					httpx.Fail(w, http.StatusInternalServerError, "Something went wrong.")
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
