package admins

// CreateAdminRequest registers a new administrative account.
type CreateAdminRequest struct {
	Email       string              `json:"email" validate:"required,email"`
	Password    string              `json:"password" validate:"required,min=8"`
	Role        string              `json:"role" validate:"required"`
	Permissions map[string][]string `json:"permissions"`
}

// UpdateAdminRequest changes role and/or permission grants.
type UpdateAdminRequest struct {
	Role        *string              `json:"role,omitempty"`
	Permissions *map[string][]string `json:"permissions,omitempty"`
	IsActive    *bool                `json:"is_active,omitempty"`
}

// ListAdminsFilters narrows the admin listing.
type ListAdminsFilters struct {
	Search   string
	IsActive *bool
	Page     int
	PerPage  int
}
