package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/arbor-commerce/arbor/internal/admins"
	"github.com/arbor-commerce/arbor/internal/auth"
	"github.com/arbor-commerce/arbor/internal/blog"
	"github.com/arbor-commerce/arbor/internal/cart"
	"github.com/arbor-commerce/arbor/internal/catalog"
	"github.com/arbor-commerce/arbor/internal/observability"
	"github.com/arbor-commerce/arbor/internal/orders"
	"github.com/arbor-commerce/arbor/internal/otp"
	"github.com/arbor-commerce/arbor/internal/partners"
	"github.com/arbor-commerce/arbor/internal/ratelimit"
	"github.com/arbor-commerce/arbor/internal/rbac"
	"github.com/arbor-commerce/arbor/jobs"
	"github.com/arbor-commerce/arbor/report"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	Guard       *ratelimit.Guard
	AuthService *auth.Service
	RBAC        rbac.Middleware

	AuthHandler     *auth.Handler
	OTPHandler      *otp.Handler
	AdminsHandler   *admins.Handler
	CatalogHandler  *catalog.Handler
	BlogHandler     *blog.Handler
	CartHandler     *cart.Handler
	OrdersHandler   *orders.Handler
	PartnersHandler *partners.Handler
	ReportHandler   *report.Handler
	JobHandler      *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router. Route groups layer the guards in a
// fixed order: shared middleware, then a named rate limit where the route is
// sensitive, then authentication and authorization gates on the management
// surface.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		// Storefront reads run under the backstop shield only.
		params.CatalogHandler.MountPublicRoutes(r)
		params.BlogHandler.MountPublicRoutes(r)
		r.Route("/cart", params.CartHandler.MountRoutes)

		r.Group(func(r chi.Router) {
			r.Use(params.Guard.Limit(ratelimit.General))
			params.OrdersHandler.MountPublicRoutes(r)
			r.Route("/partners", params.PartnersHandler.MountPublicRoutes)
		})

		r.Route("/admin", func(r chi.Router) {
			// Login and the password-reset flow run before any principal
			// exists, so they sit outside RequireAuth behind their guards.
			r.Group(func(r chi.Router) {
				r.Use(params.Guard.Limit(ratelimit.General))
				params.AuthHandler.MountRoutes(r)
			})
			r.Group(func(r chi.Router) {
				r.Use(params.Guard.Limit(ratelimit.Strict))
				params.OTPHandler.MountRoutes(r)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth(params.AuthService, params.Logger))

				r.Route("/admins", params.AdminsHandler.MountRoutes)
				params.CatalogHandler.MountAdminRoutes(r)
				r.Route("/posts", params.BlogHandler.MountAdminRoutes)
				r.Route("/orders", params.OrdersHandler.MountAdminRoutes)
				r.Route("/partners", params.PartnersHandler.MountAdminRoutes)

				if params.ReportHandler != nil {
					r.Group(func(r chi.Router) {
						r.Use(params.RBAC.RequirePermission(rbac.ResourceOrders, rbac.ActionRead))
						r.Route("/reports", params.ReportHandler.MountRoutes)
					})
				}
				if params.JobHandler != nil {
					r.Group(func(r chi.Router) {
						r.Use(params.RBAC.RequireRole(auth.RoleSuperAdmin))
						r.Route("/jobs", params.JobHandler.MountRoutes)
					})
				}
			})
		})
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
