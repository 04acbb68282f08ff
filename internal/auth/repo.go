package auth

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arbor-commerce/arbor/internal/shared"
)

// Repository defines the principal lookups the verifier needs. This layer
// only reads; admin mutation lives in the admins module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Admin, error)
	FindByID(ctx context.Context, id int64) (*Admin, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const adminColumns = `id, email, password_hash, role, permissions, is_active, created_at, updated_at`

// FindByEmail fetches an admin by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*Admin, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE email = $1`, email)
	return scanAdmin(row)
}

// FindByID fetches an admin by ID.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*Admin, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = $1`, id)
	return scanAdmin(row)
}

func scanAdmin(row pgx.Row) (*Admin, error) {
	var (
		admin       Admin
		permissions []byte
	)
	err := row.Scan(&admin.ID, &admin.Email, &admin.PasswordHash, &admin.Role, &permissions, &admin.IsActive, &admin.CreatedAt, &admin.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if len(permissions) > 0 {
		if err := json.Unmarshal(permissions, &admin.Permissions); err != nil {
			return nil, err
		}
	}
	if admin.Permissions == nil {
		admin.Permissions = PermissionSet{}
	}
	return &admin, nil
}

var _ Repository = (*PGRepository)(nil)
