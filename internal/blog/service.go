package blog

import (
	"context"
	"strings"
	"time"

	"github.com/arbor-commerce/arbor/internal/auth"
)

// Service wraps the repository with slug normalization and publish-state
// bookkeeping.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// ListPublished returns published posts for the storefront.
func (s *Service) ListPublished(ctx context.Context, filters PostFilters) ([]Post, int, error) {
	filters.PublishedOnly = true
	return s.repo.List(ctx, filters)
}

// List returns all posts for admin management.
func (s *Service) List(ctx context.Context, filters PostFilters) ([]Post, int, error) {
	return s.repo.List(ctx, filters)
}

// Get fetches one post regardless of publish state.
func (s *Service) Get(ctx context.Context, id int64) (Post, error) {
	return s.repo.Get(ctx, id)
}

// GetPublishedBySlug fetches one published post by slug.
func (s *Service) GetPublishedBySlug(ctx context.Context, slug string) (Post, error) {
	return s.repo.GetPublishedBySlug(ctx, slug)
}

// Create adds a post authored by the acting principal. Publishing at create
// time stamps PublishedAt.
func (s *Service) Create(ctx context.Context, actor *auth.Principal, req CreatePostRequest) (Post, error) {
	post := Post{
		Title:       strings.TrimSpace(req.Title),
		Slug:        normalizeSlug(req.Slug),
		Body:        req.Body,
		Excerpt:     req.Excerpt,
		IsPublished: req.Publish,
	}
	if actor != nil {
		post.AuthorID = actor.ID
	}
	if req.Publish {
		at := s.now().UTC()
		post.PublishedAt = &at
	}
	return s.repo.Create(ctx, post)
}

// Update changes post fields. Toggling Publish on stamps PublishedAt;
// toggling it off clears it.
func (s *Service) Update(ctx context.Context, id int64, req UpdatePostRequest) (Post, error) {
	if req.Slug != nil {
		slug := normalizeSlug(*req.Slug)
		req.Slug = &slug
	}
	var publishedAt *time.Time
	if req.Publish != nil && *req.Publish {
		at := s.now().UTC()
		publishedAt = &at
	}
	return s.repo.Update(ctx, id, req, publishedAt)
}

// Delete removes a post.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func normalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}
