package blog

// PostFilters narrows post listings.
type PostFilters struct {
	Search        string
	PublishedOnly bool
	Page          int
	PerPage       int
}

// CreatePostRequest adds a post. Posts start unpublished unless Publish
// is set.
type CreatePostRequest struct {
	Title   string `json:"title" validate:"required"`
	Slug    string `json:"slug" validate:"required"`
	Body    string `json:"body" validate:"required"`
	Excerpt string `json:"excerpt"`
	Publish bool   `json:"publish"`
}

// UpdatePostRequest changes post fields. Nil fields are left alone.
type UpdatePostRequest struct {
	Title   *string `json:"title,omitempty"`
	Slug    *string `json:"slug,omitempty"`
	Body    *string `json:"body,omitempty"`
	Excerpt *string `json:"excerpt,omitempty"`
	Publish *bool   `json:"publish,omitempty"`
}
