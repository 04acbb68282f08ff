package catalog

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const treeCacheTTL = time.Minute

// Service exposes the catalog to the storefront and to admin management.
// The category tree is rebuilt at most once per TTL and concurrent
// rebuilds collapse into one repository query via singleflight.
type Service struct {
	products   ProductRepository
	categories CategoryRepository
	cdnBase    string
	logger     *slog.Logger

	treeGroup singleflight.Group
	treeMu    sync.RWMutex
	tree      []*CategoryNode
	treeAt    time.Time

	now func() time.Time
}

// NewService constructs a Service. cdnBase is the public base URL product
// image paths are resolved against; empty disables URL rewriting.
func NewService(products ProductRepository, categories CategoryRepository, cdnBase string, logger *slog.Logger) *Service {
	return &Service{
		products:   products,
		categories: categories,
		cdnBase:    strings.TrimRight(cdnBase, "/"),
		logger:     logger,
		now:        time.Now,
	}
}

// ListProducts returns products matching the filters, images resolved.
func (s *Service) ListProducts(ctx context.Context, filters ProductFilters) ([]Product, int, error) {
	products, total, err := s.products.List(ctx, filters)
	if err != nil {
		return nil, 0, err
	}
	for i := range products {
		products[i].ImageURL = s.ImageURL(products[i].ImagePath)
	}
	return products, total, nil
}

// GetProduct fetches one product by id.
func (s *Service) GetProduct(ctx context.Context, id int64) (Product, error) {
	product, err := s.products.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	product.ImageURL = s.ImageURL(product.ImagePath)
	return product, nil
}

// GetProductBySlug fetches one active product by slug, for the storefront.
func (s *Service) GetProductBySlug(ctx context.Context, slug string) (Product, error) {
	product, err := s.products.GetBySlug(ctx, slug)
	if err != nil {
		return Product{}, err
	}
	product.ImageURL = s.ImageURL(product.ImagePath)
	return product, nil
}

// CreateProduct adds a product.
func (s *Service) CreateProduct(ctx context.Context, req CreateProductRequest) (Product, error) {
	req.Slug = normalizeSlug(req.Slug)
	product, err := s.products.Create(ctx, req)
	if err != nil {
		return Product{}, err
	}
	product.ImageURL = s.ImageURL(product.ImagePath)
	return product, nil
}

// UpdateProduct changes product fields.
func (s *Service) UpdateProduct(ctx context.Context, id int64, req UpdateProductRequest) (Product, error) {
	if req.Slug != nil {
		slug := normalizeSlug(*req.Slug)
		req.Slug = &slug
	}
	product, err := s.products.Update(ctx, id, req)
	if err != nil {
		return Product{}, err
	}
	product.ImageURL = s.ImageURL(product.ImagePath)
	return product, nil
}

// DeleteProduct removes a product.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	return s.products.Delete(ctx, id)
}

// CategoryTree returns the nested category tree. Results are cached for a
// minute; mutations through this service invalidate the cache.
func (s *Service) CategoryTree(ctx context.Context) ([]*CategoryNode, error) {
	s.treeMu.RLock()
	if s.tree != nil && s.now().Sub(s.treeAt) < treeCacheTTL {
		tree := s.tree
		s.treeMu.RUnlock()
		return tree, nil
	}
	s.treeMu.RUnlock()

	result, err, _ := s.treeGroup.Do("tree", func() (any, error) {
		categories, err := s.categories.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		tree := buildTree(categories)
		s.treeMu.Lock()
		s.tree = tree
		s.treeAt = s.now()
		s.treeMu.Unlock()
		return tree, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]*CategoryNode), nil
}

// CreateCategory adds a category and drops the cached tree.
func (s *Service) CreateCategory(ctx context.Context, req CreateCategoryRequest) (Category, error) {
	req.Slug = normalizeSlug(req.Slug)
	category, err := s.categories.Create(ctx, req)
	if err != nil {
		return Category{}, err
	}
	s.invalidateTree()
	return category, nil
}

// UpdateCategory changes category fields and drops the cached tree.
func (s *Service) UpdateCategory(ctx context.Context, id int64, req UpdateCategoryRequest) (Category, error) {
	if req.Slug != nil {
		slug := normalizeSlug(*req.Slug)
		req.Slug = &slug
	}
	category, err := s.categories.Update(ctx, id, req)
	if err != nil {
		return Category{}, err
	}
	s.invalidateTree()
	return category, nil
}

// DeleteCategory removes a category and drops the cached tree.
func (s *Service) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateTree()
	return nil
}

// ImageURL resolves a stored image path against the CDN base. Absolute
// URLs pass through untouched.
func (s *Service) ImageURL(path string) string {
	if path == "" {
		return ""
	}
	if strings.Contains(path, "://") || s.cdnBase == "" {
		return path
	}
	return s.cdnBase + "/" + strings.TrimLeft(path, "/")
}

func (s *Service) invalidateTree() {
	s.treeMu.Lock()
	s.tree = nil
	s.treeMu.Unlock()
}

func buildTree(categories []Category) []*CategoryNode {
	nodes := make(map[int64]*CategoryNode, len(categories))
	for _, category := range categories {
		nodes[category.ID] = &CategoryNode{Category: category}
	}

	var roots []*CategoryNode
	for _, category := range categories {
		node := nodes[category.ID]
		if category.ParentID != nil {
			if parent, ok := nodes[*category.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

func normalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}
