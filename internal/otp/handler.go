package otp

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/arbor-commerce/arbor/internal/platform/httpx"
)

type requestCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,len=6,numeric"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// Handler exposes the password-reset endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, validate *validator.Validate) *Handler {
	return &Handler{logger: logger, service: service, validate: validate}
}

// MountRoutes attaches the otp routes. The caller wraps the group with the
// strict rate-limit guard.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/otp", h.requestCode)
	r.Post("/password-reset", h.reset)
}

func (h *Handler) requestCode(w http.ResponseWriter, r *http.Request) {
	var req requestCodeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "A valid email is required.")
		return
	}

	if err := h.service.RequestCode(r.Context(), req.Email); err != nil {
		h.logger.Error("otp issue", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]string{"message": "If the account exists, a code has been sent."})
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Email, code and new password are required.")
		return
	}

	if err := h.service.Reset(r.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		if errors.Is(err, ErrInvalidCode) {
			httpx.Fail(w, http.StatusBadRequest, "Invalid or expired code.")
			return
		}
		h.logger.Error("otp reset", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]string{"message": "Password updated."})
}
