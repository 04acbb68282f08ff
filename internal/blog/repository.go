package blog

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arbor-commerce/arbor/internal/shared"
)

// Repository provides PostgreSQL backed persistence for blog posts.
type Repository interface {
	List(ctx context.Context, filters PostFilters) ([]Post, int, error)
	Get(ctx context.Context, id int64) (Post, error)
	GetPublishedBySlug(ctx context.Context, slug string) (Post, error)
	Create(ctx context.Context, post Post) (Post, error)
	Update(ctx context.Context, id int64, req UpdatePostRequest, publishedAt *time.Time) (Post, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const postColumns = `id, title, slug, body, excerpt, author_id, is_published, published_at, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters PostFilters) ([]Post, int, error) {
	query := `SELECT ` + postColumns + ` FROM blog_posts WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM blog_posts WHERE 1=1`
	args := []any{}

	if filters.PublishedOnly {
		cond := ` AND is_published`
		query += cond
		countQuery += cond
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		cond := ` AND title ILIKE $` + strconv.Itoa(len(args))
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
	query += ` ORDER BY COALESCE(published_at, created_at) DESC LIMIT $` + strconv.Itoa(len(args))
	args = append(args, (page-1)*perPage)
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		posts = append(posts, post)
	}
	return posts, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Post, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM blog_posts WHERE id = $1`, id)
	return postFromRow(row)
}

func (r *repository) GetPublishedBySlug(ctx context.Context, slug string) (Post, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+postColumns+` FROM blog_posts WHERE slug = $1 AND is_published`, slug)
	return postFromRow(row)
}

func (r *repository) Create(ctx context.Context, post Post) (Post, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO blog_posts (title, slug, body, excerpt, author_id, is_published, published_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW()) RETURNING `+postColumns,
		post.Title, post.Slug, post.Body, post.Excerpt, post.AuthorID, post.IsPublished, post.PublishedAt)
	created, err := scanPost(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Post{}, shared.ErrDuplicate
		}
		return Post{}, err
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, id int64, req UpdatePostRequest, publishedAt *time.Time) (Post, error) {
	query := `UPDATE blog_posts SET updated_at = NOW()`
	args := []any{}
	set := func(column string, value any) {
		args = append(args, value)
		query += `, ` + column + ` = $` + strconv.Itoa(len(args))
	}
	if req.Title != nil {
		set("title", *req.Title)
	}
	if req.Slug != nil {
		set("slug", *req.Slug)
	}
	if req.Body != nil {
		set("body", *req.Body)
	}
	if req.Excerpt != nil {
		set("excerpt", *req.Excerpt)
	}
	if req.Publish != nil {
		set("is_published", *req.Publish)
		set("published_at", publishedAt)
	}
	args = append(args, id)
	query += ` WHERE id = $` + strconv.Itoa(len(args)) + ` RETURNING ` + postColumns

	post, err := postFromRow(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Post{}, shared.ErrDuplicate
		}
		return Post{}, err
	}
	return post, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM blog_posts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanPost(row pgx.Row) (Post, error) {
	var post Post
	err := row.Scan(&post.ID, &post.Title, &post.Slug, &post.Body, &post.Excerpt, &post.AuthorID,
		&post.IsPublished, &post.PublishedAt, &post.CreatedAt, &post.UpdatedAt)
	return post, err
}

func postFromRow(row pgx.Row) (Post, error) {
	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Post{}, shared.ErrNotFound
		}
		return Post{}, err
	}
	return post, nil
}
