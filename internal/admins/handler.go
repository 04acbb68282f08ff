package admins

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/arbor-commerce/arbor/internal/auth"
	"github.com/arbor-commerce/arbor/internal/platform/httpx"
	"github.com/arbor-commerce/arbor/internal/rbac"
	"github.com/arbor-commerce/arbor/internal/shared"
)

// Handler manages admin account endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac, validator: validator.New()}
}

// MountRoutes registers admin management routes. Registration and role/grant
// changes are gated on the SUPER_ADMIN role alone; read and delete use the
// granular permission gates.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireRole(auth.RoleSuperAdmin))
		r.Post("/", h.register)
		r.Patch("/{id}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(rbac.ResourceAdmins, rbac.ActionRead))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Get("/{id}/history", h.history)
		r.Get("/permissions", h.permissionCatalog)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePermission(rbac.ResourceAdmins, rbac.ActionDelete))
		r.Delete("/{id}", h.remove)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageFromQuery(r.URL.Query())
	filters := ListAdminsFilters{
		Search:  r.URL.Query().Get("search"),
		Page:    page,
		PerPage: perPage,
	}
	if active := r.URL.Query().Get("is_active"); active != "" {
		parsed := active == "true"
		filters.IsActive = &parsed
	}

	admins, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list admins", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{
		"admins":     admins,
		"pagination": shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	admin, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, admin)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req CreateAdminRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Email, password and role are required.")
		return
	}

	admin, err := h.service.Register(r.Context(), auth.PrincipalFromContext(r.Context()), req)
	if err != nil {
		if errors.Is(err, ErrUnknownGrant) {
			httpx.Fail(w, http.StatusBadRequest, "Unknown role or permission.")
			return
		}
		h.logger.Error("register admin", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, admin)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req UpdateAdminRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	admin, err := h.service.Update(r.Context(), auth.PrincipalFromContext(r.Context()), id, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownGrant):
			httpx.Fail(w, http.StatusBadRequest, "Unknown role or permission.")
		case errors.Is(err, ErrSelfDeactivation):
			httpx.Fail(w, http.StatusBadRequest, "You cannot deactivate your own account.")
		default:
			h.logger.Error("update admin", slog.Int64("id", id), slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.OK(w, http.StatusOK, admin)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	err := h.service.Delete(r.Context(), auth.PrincipalFromContext(r.Context()), id)
	if err != nil {
		if errors.Is(err, ErrSelfDeactivation) {
			httpx.Fail(w, http.StatusBadRequest, "You cannot deactivate your own account.")
			return
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"deleted": true})
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.service.History(r.Context(), id, limit)
	if err != nil {
		h.logger.Error("admin history", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, entries)
}

func (h *Handler) permissionCatalog(w http.ResponseWriter, r *http.Request) {
	httpx.OK(w, http.StatusOK, rbac.Catalog())
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Fail(w, http.StatusBadRequest, "Invalid id.")
		return 0, false
	}
	return id, true
}
