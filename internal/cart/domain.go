package cart

import "time"

// Line is one product entry in a cart. Name and price are snapshotted at
// add time so later catalog edits do not silently change an open cart.
type Line struct {
	ProductID  int64  `json:"product_id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	Currency   string `json:"currency"`
	Quantity   int    `json:"quantity"`
}

// Cart is an anonymous shopping cart identified by an opaque token.
type Cart struct {
	Token     string    `json:"token"`
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubtotalCents sums line price times quantity.
func (c Cart) SubtotalCents() int64 {
	var total int64
	for _, line := range c.Lines {
		total += line.PriceCents * int64(line.Quantity)
	}
	return total
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}
