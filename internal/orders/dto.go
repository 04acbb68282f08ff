package orders

// CheckoutRequest places an order from an existing cart.
type CheckoutRequest struct {
	CartToken   string `json:"cart_token" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	PartnerCode string `json:"partner_code"`
}

// UpdateStatusRequest moves an order through its lifecycle.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// ListOrdersFilters narrows the admin order listing.
type ListOrdersFilters struct {
	Status  Status
	Email   string
	Page    int
	PerPage int
}
