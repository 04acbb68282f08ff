package report

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/arbor-commerce/arbor/jobs"
)

// InvoiceSource loads invoice data for placed orders.
type InvoiceSource interface {
	InvoiceOrder(ctx context.Context, orderID int64) (jobs.InvoiceOrder, error)
}

// Handler serves on-demand invoice rendering for the admin panel. The
// worker renders invoices asynchronously at checkout; this endpoint exists
// for re-downloads.
type Handler struct {
	client *Client
	orders InvoiceSource
	logger *slog.Logger
}

// NewHandler creates a report handler.
func NewHandler(client *Client, orders InvoiceSource, logger *slog.Logger) *Handler {
	return &Handler{client: client, orders: orders, logger: logger}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/ping", h.ping)
	r.Get("/orders/{id}/invoice", h.invoice)
}

func (h *Handler) ping(w http.ResponseWriter, r *http.Request) {
	if err := h.client.Ping(r.Context()); err != nil {
		h.logger.Warn("gotenberg ping failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (h *Handler) invoice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	order, err := h.orders.InvoiceOrder(r.Context(), id)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	pdf, err := h.client.RenderHTML(r.Context(), jobs.InvoiceHTML(order))
	if err != nil {
		h.logger.Error("render invoice", slog.Int64("order_id", id), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename="+order.Number+".pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
