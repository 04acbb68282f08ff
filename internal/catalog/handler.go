package catalog

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/arbor-commerce/arbor/internal/platform/httpx"
	"github.com/arbor-commerce/arbor/internal/rbac"
	"github.com/arbor-commerce/arbor/internal/shared"
)

// Handler serves catalog endpoints. Public routes expose active products
// and the category tree; admin routes sit behind permission gates.
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

// MountPublicRoutes registers the storefront routes.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Get("/products", h.listPublic)
	r.Get("/products/{slug}", h.getBySlug)
	r.Get("/categories", h.categoryTree)
}

// MountAdminRoutes registers the management routes.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequirePermission(rbac.ResourceProducts, rbac.ActionRead))
			r.Get("/", h.listAdmin)
			r.Get("/{id}", h.get)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequirePermission(rbac.ResourceProducts, rbac.ActionCreate))
			r.Post("/", h.create)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequirePermission(rbac.ResourceProducts, rbac.ActionUpdate))
			r.Patch("/{id}", h.update)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequirePermission(rbac.ResourceProducts, rbac.ActionDelete))
			r.Delete("/{id}", h.remove)
		})
	})
	r.Route("/categories", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequirePermission(rbac.ResourceCategories, rbac.ActionCreate))
			r.Post("/", h.createCategory)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequirePermission(rbac.ResourceCategories, rbac.ActionUpdate))
			r.Patch("/{id}", h.updateCategory)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequirePermission(rbac.ResourceCategories, rbac.ActionDelete))
			r.Delete("/{id}", h.removeCategory)
		})
	})
}

func (h *Handler) listPublic(w http.ResponseWriter, r *http.Request) {
	filters := h.filtersFromQuery(r)
	filters.ActiveOnly = true
	h.respondList(w, r, filters)
}

func (h *Handler) listAdmin(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, h.filtersFromQuery(r))
}

func (h *Handler) respondList(w http.ResponseWriter, r *http.Request, filters ProductFilters) {
	products, total, err := h.service.ListProducts(r.Context(), filters)
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{
		"products":   products,
		"pagination": shared.NewPagination(filters.Page, filters.PerPage, total),
	})
}

func (h *Handler) filtersFromQuery(r *http.Request) ProductFilters {
	page, perPage := shared.PageFromQuery(r.URL.Query())
	filters := ProductFilters{
		Search:  r.URL.Query().Get("search"),
		Page:    page,
		PerPage: perPage,
	}
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
			filters.CategoryID = &id
		}
	}
	return filters
}

func (h *Handler) getBySlug(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProductBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, product)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	product, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, product)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Name, slug, price and currency are required.")
		return
	}
	product, err := h.service.CreateProduct(r.Context(), req)
	if err != nil {
		h.logger.Error("create product", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, product)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req UpdateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid product fields.")
		return
	}
	product, err := h.service.UpdateProduct(r.Context(), id, req)
	if err != nil {
		h.logger.Error("update product", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, product)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"deleted": true})
}

func (h *Handler) categoryTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.service.CategoryTree(r.Context())
	if err != nil {
		h.logger.Error("category tree", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, tree)
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Name and slug are required.")
		return
	}
	category, err := h.service.CreateCategory(r.Context(), req)
	if err != nil {
		h.logger.Error("create category", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, category)
}

func (h *Handler) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req UpdateCategoryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	category, err := h.service.UpdateCategory(r.Context(), id, req)
	if err != nil {
		h.logger.Error("update category", slog.Int64("id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, category)
}

func (h *Handler) removeCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"deleted": true})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Fail(w, http.StatusBadRequest, "Invalid id.")
		return 0, false
	}
	return id, true
}
