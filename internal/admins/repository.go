package admins

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arbor-commerce/arbor/internal/auth"
	"github.com/arbor-commerce/arbor/internal/shared"
)

// Repository provides PostgreSQL backed persistence for admin accounts.
type Repository interface {
	List(ctx context.Context, filters ListAdminsFilters) ([]Admin, int, error)
	Get(ctx context.Context, id int64) (Admin, error)
	Create(ctx context.Context, email, passwordHash string, role auth.Role, permissions auth.PermissionSet) (Admin, error)
	Update(ctx context.Context, id int64, role *auth.Role, permissions *auth.PermissionSet, isActive *bool) (Admin, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error
	Deactivate(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const adminColumns = `id, email, role, permissions, is_active, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters ListAdminsFilters) ([]Admin, int, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM admins WHERE 1=1`
	args := []any{}

	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		cond := ` AND email ILIKE $` + strconv.Itoa(len(args))
		query += cond
		countQuery += cond
	}
	if filters.IsActive != nil {
		args = append(args, *filters.IsActive)
		cond := ` AND is_active = $` + strconv.Itoa(len(args))
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

	var admins []Admin
	for rows.Next() {
		admin, err := scanAdmin(rows)
		if err != nil {
			return nil, 0, err
		}
		admins = append(admins, admin)
	}
	return admins, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Admin, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE id = $1`, id)
	admin, err := scanAdmin(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Admin{}, shared.ErrNotFound
		}
		return Admin{}, err
	}
	return admin, nil
}

func (r *repository) Create(ctx context.Context, email, passwordHash string, role auth.Role, permissions auth.PermissionSet) (Admin, error) {
	permJSON, err := json.Marshal(permissions)
	if err != nil {
		return Admin{}, err
	}
	row := r.pool.QueryRow(ctx, `INSERT INTO admins (email, password_hash, role, permissions, is_active, created_at, updated_at) VALUES ($1, $2, $3, $4, TRUE, NOW(), NOW()) RETURNING `+adminColumns, email, passwordHash, role, permJSON)
	admin, err := scanAdmin(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Admin{}, shared.ErrDuplicate
		}
		return Admin{}, err
	}
	return admin, nil
}

func (r *repository) Update(ctx context.Context, id int64, role *auth.Role, permissions *auth.PermissionSet, isActive *bool) (Admin, error) {
	query := `UPDATE admins SET updated_at = NOW()`
	args := []any{}
	if role != nil {
		args = append(args, *role)
		query += `, role = $` + strconv.Itoa(len(args))
	}
	if permissions != nil {
		permJSON, err := json.Marshal(*permissions)
		if err != nil {
			return Admin{}, err
		}
		args = append(args, permJSON)
		query += `, permissions = $` + strconv.Itoa(len(args))
	}
	if isActive != nil {
		args = append(args, *isActive)
		query += `, is_active = $` + strconv.Itoa(len(args))
	}
	args = append(args, id)
	query += ` WHERE id = $` + strconv.Itoa(len(args)) + ` RETURNING ` + adminColumns

	row := r.pool.QueryRow(ctx, query, args...)
	admin, err := scanAdmin(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Admin{}, shared.ErrNotFound
		}
		return Admin{}, err
	}
	return admin, nil
}

func (r *repository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE admins SET password_hash = $1, updated_at = NOW() WHERE id = $2`, passwordHash, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE admins SET password_hash = $1, updated_at = NOW() WHERE email = $2 AND is_active`, passwordHash, email)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Deactivate removes the account's ability to authenticate. Rows referenced
// by audit_logs stay in place.
func (r *repository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE admins SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanAdmin(row pgx.Row) (Admin, error) {
	var (
		admin       Admin
		permissions []byte
	)
	if err := row.Scan(&admin.ID, &admin.Email, &admin.Role, &permissions, &admin.IsActive, &admin.CreatedAt, &admin.UpdatedAt); err != nil {
		return Admin{}, err
	}
	if len(permissions) > 0 {
		if err := json.Unmarshal(permissions, &admin.Permissions); err != nil {
			return Admin{}, err
		}
	}
	if admin.Permissions == nil {
		admin.Permissions = auth.PermissionSet{}
	}
	return admin, nil
}
