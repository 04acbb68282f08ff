package catalog

// ProductFilters narrows the public and admin product listings.
type ProductFilters struct {
	Search     string
	CategoryID *int64
	ActiveOnly bool
	Page       int
	PerPage    int
}

// CreateProductRequest adds a product to the catalog.
type CreateProductRequest struct {
	Name        string `json:"name" validate:"required"`
	Slug        string `json:"slug" validate:"required"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents" validate:"required,gt=0"`
	Currency    string `json:"currency" validate:"required,len=3"`
	CategoryID  *int64 `json:"category_id"`
	ImagePath   string `json:"image_path"`
}

// UpdateProductRequest changes product fields. Nil fields are left alone.
type UpdateProductRequest struct {
	Name        *string `json:"name,omitempty"`
	Slug        *string `json:"slug,omitempty"`
	Description *string `json:"description,omitempty"`
	PriceCents  *int64  `json:"price_cents,omitempty" validate:"omitempty,gt=0"`
	Currency    *string `json:"currency,omitempty" validate:"omitempty,len=3"`
	CategoryID  *int64  `json:"category_id,omitempty"`
	ImagePath   *string `json:"image_path,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// CreateCategoryRequest adds a category.
type CreateCategoryRequest struct {
	Name     string `json:"name" validate:"required"`
	Slug     string `json:"slug" validate:"required"`
	ParentID *int64 `json:"parent_id"`
	Position int    `json:"position"`
}

// UpdateCategoryRequest changes category fields.
type UpdateCategoryRequest struct {
	Name     *string `json:"name,omitempty"`
	Slug     *string `json:"slug,omitempty"`
	ParentID *int64  `json:"parent_id,omitempty"`
	Position *int    `json:"position,omitempty"`
}
