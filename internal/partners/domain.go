package partners

import "time"

// Status is the partner approval state. Only approved partners accrue
// commission.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Partner is an affiliate who refers orders via their code.
type Partner struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Code              string    `json:"code"`
	Status            Status    `json:"status"`
	CommissionRateBps int       `json:"commission_rate_bps"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Commission is one accrual against a confirmed order.
type Commission struct {
	ID          int64     `json:"id"`
	PartnerID   int64     `json:"partner_id"`
	OrderID     int64     `json:"order_id"`
	AmountCents int64     `json:"amount_cents"`
	CreatedAt   time.Time `json:"created_at"`
}

// Earnings summarizes a partner's accrued commission.
type Earnings struct {
	PartnerCode string `json:"partner_code"`
	OrderCount  int    `json:"order_count"`
	TotalCents  int64  `json:"total_cents"`
}
