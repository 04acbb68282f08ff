package catalog

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arbor-commerce/arbor/internal/shared"
)

// ProductRepository provides PostgreSQL backed persistence for products.
type ProductRepository interface {
	List(ctx context.Context, filters ProductFilters) ([]Product, int, error)
	Get(ctx context.Context, id int64) (Product, error)
	GetBySlug(ctx context.Context, slug string) (Product, error)
	Create(ctx context.Context, req CreateProductRequest) (Product, error)
	Update(ctx context.Context, id int64, req UpdateProductRequest) (Product, error)
	Delete(ctx context.Context, id int64) error
}

// CategoryRepository provides PostgreSQL backed persistence for categories.
type CategoryRepository interface {
	ListAll(ctx context.Context) ([]Category, error)
	Get(ctx context.Context, id int64) (Category, error)
	Create(ctx context.Context, req CreateCategoryRequest) (Category, error)
	Update(ctx context.Context, id int64, req UpdateCategoryRequest) (Category, error)
	Delete(ctx context.Context, id int64) error
}

type productRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository constructs a product repository.
func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &productRepository{pool: pool}
}

const productColumns = `id, name, slug, description, price_cents, currency, category_id, image_path, is_active, created_at, updated_at`

func (r *productRepository) List(ctx context.Context, filters ProductFilters) ([]Product, int, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM products WHERE 1=1`
	args := []any{}

	if filters.ActiveOnly {
		cond := ` AND is_active`
		query += cond
		countQuery += cond
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		cond := ` AND name ILIKE $` + strconv.Itoa(len(args))
		query += cond
		countQuery += cond
	}
	if filters.CategoryID != nil {
		args = append(args, *filters.CategoryID)
		cond := ` AND category_id = $` + strconv.Itoa(len(args))
		query += cond
		countQuery += cond
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	perPage := filters.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, perPage)
	query += ` ORDER BY id LIMIT $` + strconv.Itoa(len(args))
	args = append(args, (page-1)*perPage)
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, product)
	}
	return products, total, rows.Err()
}

func (r *productRepository) Get(ctx context.Context, id int64) (Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return productFromRow(row)
}

func (r *productRepository) GetBySlug(ctx context.Context, slug string) (Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE slug = $1 AND is_active`, slug)
	return productFromRow(row)
}

func (r *productRepository) Create(ctx context.Context, req CreateProductRequest) (Product, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO products (name, slug, description, price_cents, currency, category_id, image_path, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, NOW(), NOW()) RETURNING `+productColumns,
		req.Name, req.Slug, req.Description, req.PriceCents, req.Currency, req.CategoryID, req.ImagePath)
	product, err := scanProduct(row)
	if err != nil {
		return Product{}, mapWriteError(err)
	}
	return product, nil
}

func (r *productRepository) Update(ctx context.Context, id int64, req UpdateProductRequest) (Product, error) {
	query := `UPDATE products SET updated_at = NOW()`
	args := []any{}
	set := func(column string, value any) {
		args = append(args, value)
		query += `, ` + column + ` = $` + strconv.Itoa(len(args))
	}
	if req.Name != nil {
		set("name", *req.Name)
	}
	if req.Slug != nil {
		set("slug", *req.Slug)
	}
	if req.Description != nil {
		set("description", *req.Description)
	}
	if req.PriceCents != nil {
		set("price_cents", *req.PriceCents)
	}
	if req.Currency != nil {
		set("currency", *req.Currency)
	}
	if req.CategoryID != nil {
		set("category_id", *req.CategoryID)
	}
	if req.ImagePath != nil {
		set("image_path", *req.ImagePath)
	}
	if req.IsActive != nil {
		set("is_active", *req.IsActive)
	}
	args = append(args, id)
	query += ` WHERE id = $` + strconv.Itoa(len(args)) + ` RETURNING ` + productColumns

	product, err := productFromRow(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return Product{}, mapWriteError(err)
	}
	return product, nil
}

func (r *productRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

type categoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository constructs a category repository.
func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &categoryRepository{pool: pool}
}

const categoryColumns = `id, name, slug, parent_id, position, created_at, updated_at`

func (r *categoryRepository) ListAll(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY position, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var category Category
		if err := rows.Scan(&category.ID, &category.Name, &category.Slug, &category.ParentID, &category.Position, &category.CreatedAt, &category.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

func (r *categoryRepository) Get(ctx context.Context, id int64) (Category, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	return categoryFromRow(row)
}

func (r *categoryRepository) Create(ctx context.Context, req CreateCategoryRequest) (Category, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO categories (name, slug, parent_id, position, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NOW(), NOW()) RETURNING `+categoryColumns,
		req.Name, req.Slug, req.ParentID, req.Position)
	category, err := categoryScan(row)
	if err != nil {
		return Category{}, mapWriteError(err)
	}
	return category, nil
}

func (r *categoryRepository) Update(ctx context.Context, id int64, req UpdateCategoryRequest) (Category, error) {
	query := `UPDATE categories SET updated_at = NOW()`
	args := []any{}
	set := func(column string, value any) {
		args = append(args, value)
		query += `, ` + column + ` = $` + strconv.Itoa(len(args))
	}
	if req.Name != nil {
		set("name", *req.Name)
	}
	if req.Slug != nil {
		set("slug", *req.Slug)
	}
	if req.ParentID != nil {
		set("parent_id", *req.ParentID)
	}
	if req.Position != nil {
		set("position", *req.Position)
	}
	args = append(args, id)
	query += ` WHERE id = $` + strconv.Itoa(len(args)) + ` RETURNING ` + categoryColumns

	category, err := categoryFromRow(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return Category{}, mapWriteError(err)
	}
	return category, nil
}

func (r *categoryRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var product Product
	err := row.Scan(&product.ID, &product.Name, &product.Slug, &product.Description, &product.PriceCents,
		&product.Currency, &product.CategoryID, &product.ImagePath, &product.IsActive, &product.CreatedAt, &product.UpdatedAt)
	return product, err
}

func productFromRow(row pgx.Row) (Product, error) {
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, shared.ErrNotFound
		}
		return Product{}, err
	}
	return product, nil
}

func categoryScan(row pgx.Row) (Category, error) {
	var category Category
	err := row.Scan(&category.ID, &category.Name, &category.Slug, &category.ParentID, &category.Position, &category.CreatedAt, &category.UpdatedAt)
	return category, err
}

func categoryFromRow(row pgx.Row) (Category, error) {
	category, err := categoryScan(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Category{}, shared.ErrNotFound
		}
		return Category{}, err
	}
	return category, nil
}

// mapWriteError translates unique violations on slug columns into the shared
// duplicate sentinel.
func mapWriteError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}
