package cart

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/arbor-commerce/arbor/internal/platform/httpx"
)

type addLineRequest struct {
	Token     string `json:"token"`
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// Handler serves the storefront cart endpoints. No authentication; the
// uuid token is the only handle on a cart.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers the cart routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/items", h.addLine)
	r.Get("/{token}", h.get)
	r.Patch("/{token}/items/{productID}", h.setQuantity)
	r.Delete("/{token}/items/{productID}", h.removeLine)
	r.Delete("/{token}", h.clear)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.Get(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.logger.Error("get cart", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, cart)
}

func (h *Handler) addLine(w http.ResponseWriter, r *http.Request) {
	var req addLineRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Product and quantity are required.")
		return
	}
	cart, err := h.service.AddLine(r.Context(), req.Token, req.ProductID, req.Quantity)
	if err != nil {
		h.respondCartError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, cart)
}

func (h *Handler) setQuantity(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.pathProductID(w, r)
	if !ok {
		return
	}
	var req setQuantityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	cart, err := h.service.SetQuantity(r.Context(), chi.URLParam(r, "token"), productID, req.Quantity)
	if err != nil {
		h.respondCartError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, cart)
}

func (h *Handler) removeLine(w http.ResponseWriter, r *http.Request) {
	productID, ok := h.pathProductID(w, r)
	if !ok {
		return
	}
	cart, err := h.service.RemoveLine(r.Context(), chi.URLParam(r, "token"), productID)
	if err != nil {
		h.respondCartError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, cart)
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context(), chi.URLParam(r, "token")); err != nil {
		h.logger.Error("clear cart", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"cleared": true})
}

func (h *Handler) respondCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrQuantity):
		httpx.Fail(w, http.StatusBadRequest, "Quantity out of range.")
	case errors.Is(err, ErrInactiveProduct):
		httpx.Fail(w, http.StatusBadRequest, "Product is not available.")
	default:
		httpx.RespondError(w, err)
	}
}

func (h *Handler) pathProductID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Fail(w, http.StatusBadRequest, "Invalid product id.")
		return 0, false
	}
	return id, true
}
