package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeRenderInvoice is the task type for rendering order invoices.
	TaskTypeRenderInvoice = "invoice:render"
	// TaskTypeCleanup is the task type for periodic storage maintenance.
	TaskTypeCleanup = "maintenance:cleanup"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewSendEmailHandler processes TaskTypeSendEmail tasks through the mailer.
func NewSendEmailHandler(mailer Mailer) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SendEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		return mailer.Send(ctx, payload.To, payload.Subject, payload.Body)
	}
}

// RenderInvoicePayload identifies the order whose invoice should be
// rendered.
type RenderInvoicePayload struct {
	OrderID int64 `json:"order_id"`
}

// NewRenderInvoiceTask constructs an Asynq task.
func NewRenderInvoiceTask(orderID int64) (*asynq.Task, error) {
	data, err := json.Marshal(RenderInvoicePayload{OrderID: orderID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeRenderInvoice, data), nil
}

// InvoiceItem is one invoice line.
type InvoiceItem struct {
	Name     string
	Quantity int
	Amount   string
}

// InvoiceOrder is the order view the invoice renderer needs.
type InvoiceOrder struct {
	Number string
	Email  string
	Placed time.Time
	Items  []InvoiceItem
	Total  string
}

// OrderSource loads invoice data for placed orders.
type OrderSource interface {
	InvoiceOrder(ctx context.Context, orderID int64) (InvoiceOrder, error)
}

// PDFRenderer converts HTML into a PDF document.
type PDFRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// InvoiceConfig collects the dependencies of the invoice rendering task.
type InvoiceConfig struct {
	Orders   OrderSource
	Renderer PDFRenderer
	// OutputDir receives the rendered files as <number>.pdf.
	OutputDir string
	Logger    *slog.Logger
}

// NewRenderInvoiceHandler processes TaskTypeRenderInvoice tasks.
func NewRenderInvoiceHandler(cfg InvoiceConfig) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload RenderInvoicePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}

		order, err := cfg.Orders.InvoiceOrder(ctx, payload.OrderID)
		if err != nil {
			return fmt.Errorf("load order %d: %w", payload.OrderID, err)
		}
		pdf, err := cfg.Renderer.RenderHTML(ctx, InvoiceHTML(order))
		if err != nil {
			return fmt.Errorf("render invoice %s: %w", order.Number, err)
		}

		path := filepath.Join(cfg.OutputDir, order.Number+".pdf")
		if err := os.WriteFile(path, pdf, 0o644); err != nil {
			return fmt.Errorf("write invoice %s: %w", order.Number, err)
		}
		if cfg.Logger != nil {
			cfg.Logger.Info("invoice rendered", slog.String("order", order.Number), slog.String("path", path))
		}
		return nil
	}
}

// InvoiceHTML builds the invoice document handed to the PDF renderer.
func InvoiceHTML(order InvoiceOrder) string {
	html := "<html><head><title>Invoice " + order.Number + "</title></head><body>" +
		"<h1>Invoice " + order.Number + "</h1>" +
		"<p>Placed " + order.Placed.Format("January 2, 2006") + " for " + order.Email + "</p>" +
		"<table><tr><th>Item</th><th>Qty</th><th>Amount</th></tr>"
	for _, item := range order.Items {
		html += fmt.Sprintf("<tr><td>%s</td><td>%d</td><td>%s</td></tr>", item.Name, item.Quantity, item.Amount)
	}
	html += "</table><p><strong>Total: " + order.Total + "</strong></p></body></html>"
	return html
}

// CleanupStore purges stale idempotency keys.
type CleanupStore interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// idempotency keys only need to outlive client retries
const cleanupRetention = 48 * time.Hour

// NewCleanupTask constructs an Asynq task for scheduled maintenance.
func NewCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeCleanup, nil)
}

// NewCleanupHandler processes TaskTypeCleanup tasks.
func NewCleanupHandler(store CleanupStore, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		if err := store.Cleanup(ctx, cleanupRetention); err != nil {
			return err
		}
		if logger != nil {
			logger.Debug("idempotency keys purged")
		}
		return nil
	}
}
