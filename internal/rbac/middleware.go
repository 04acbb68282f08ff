package rbac

import (
	"log/slog"
	"net/http"

	"github.com/arbor-commerce/arbor/internal/auth"
	"github.com/arbor-commerce/arbor/internal/platform/httpx"
)

// Middleware wires authorization gates for HTTP handlers. Every gate reads
// the principal attached by auth.RequireAuth; a missing principal denies.
//
// Denials share one generic body. The failing gate and its requirement go to
// logs only, so responses do not help enumerate the permission model.
type Middleware struct {
	Logger *slog.Logger
	// SuperAdminBypass lets SUPER_ADMIN pass permission gates without an
	// explicit grant. Role gates are never bypassed.
	SuperAdminBypass bool
	// OnDeny, when set, is called with the failing gate kind ("role" or
	// "permission") for every denial.
	OnDeny func(gate string)
}

// RequireRole denies unless the principal's role equals role exactly.
func (m Middleware) RequireRole(role auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := auth.PrincipalFromContext(r.Context())
			if principal == nil {
				m.deny(w, r, "role", string(role), nil)
				return
			}
			if principal.Role != role {
				m.deny(w, r, "role", string(role), principal)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission denies unless the principal's permission set grants
// action on resource, or the principal is SUPER_ADMIN and bypass is on.
func (m Middleware) RequirePermission(resource, action string) func(http.Handler) http.Handler {
	requirement := resource + ":" + action
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := auth.PrincipalFromContext(r.Context())
			if principal == nil {
				m.deny(w, r, "permission", requirement, nil)
				return
			}
			if m.SuperAdminBypass && principal.Role == auth.RoleSuperAdmin {
				next.ServeHTTP(w, r)
				return
			}
			if !principal.Permissions.Allows(resource, action) {
				m.deny(w, r, "permission", requirement, principal)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request, gate, requirement string, principal *auth.Principal) {
	if m.Logger != nil {
		attrs := []any{
			slog.String("gate", gate),
			slog.String("requirement", requirement),
			slog.String("path", r.URL.Path),
		}
		if principal != nil {
			attrs = append(attrs, slog.Int64("admin_id", principal.ID), slog.String("role", string(principal.Role)))
		}
		m.Logger.Warn("authorization denied", attrs...)
	}
	if m.OnDeny != nil {
		m.OnDeny(gate)
	}
	httpx.Fail(w, http.StatusForbidden, "Forbidden.")
}
