package partners

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arbor-commerce/arbor/internal/shared"
)

// Repository provides PostgreSQL backed persistence for partners and
// their commissions.
type Repository interface {
	Create(ctx context.Context, partner Partner) (Partner, error)
	List(ctx context.Context, status Status, page, perPage int) ([]Partner, int, error)
	Get(ctx context.Context, id int64) (Partner, error)
	GetByCode(ctx context.Context, code string) (Partner, error)
	UpdateStatus(ctx context.Context, id int64, status Status) (Partner, error)
	InsertCommission(ctx context.Context, commission Commission) error
	Earnings(ctx context.Context, partnerID int64) (count int, totalCents int64, err error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const partnerColumns = `id, name, email, code, status, commission_rate_bps, created_at, updated_at`

func (r *repository) Create(ctx context.Context, partner Partner) (Partner, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO partners (name, email, code, status, commission_rate_bps, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW()) RETURNING `+partnerColumns,
		partner.Name, partner.Email, partner.Code, partner.Status, partner.CommissionRateBps)
	created, err := scanPartner(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Partner{}, shared.ErrDuplicate
		}
		return Partner{}, err
	}
	return created, nil
}

func (r *repository) List(ctx context.Context, status Status, page, perPage int) ([]Partner, int, error) {
	query := `SELECT ` + partnerColumns + ` FROM partners WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM partners WHERE 1=1`
	args := []any{}

	if status != "" {
		args = append(args, status)
		cond := ` AND status = $` + strconv.Itoa(len(args))
		query += cond
		countQuery += cond
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if perPage <= 0 {
		perPage = 20
	}
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

	var partners []Partner
	for rows.Next() {
		partner, err := scanPartner(rows)
		if err != nil {
			return nil, 0, err
		}
		partners = append(partners, partner)
	}
	return partners, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Partner, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+partnerColumns+` FROM partners WHERE id = $1`, id)
	return partnerFromRow(row)
}

func (r *repository) GetByCode(ctx context.Context, code string) (Partner, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+partnerColumns+` FROM partners WHERE code = $1`, code)
	return partnerFromRow(row)
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status) (Partner, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE partners SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING `+partnerColumns,
		status, id)
	return partnerFromRow(row)
}

func (r *repository) InsertCommission(ctx context.Context, commission Commission) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO partner_commissions (partner_id, order_id, amount_cents, created_at)
		 VALUES ($1, $2, $3, NOW())`,
		commission.PartnerID, commission.OrderID, commission.AmountCents)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return shared.ErrDuplicate
	}
	return err
}

func (r *repository) Earnings(ctx context.Context, partnerID int64) (int, int64, error) {
	var (
		count int
		total int64
	)
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(amount_cents), 0) FROM partner_commissions WHERE partner_id = $1`,
		partnerID).Scan(&count, &total)
	return count, total, err
}

func scanPartner(row pgx.Row) (Partner, error) {
	var partner Partner
	err := row.Scan(&partner.ID, &partner.Name, &partner.Email, &partner.Code, &partner.Status,
		&partner.CommissionRateBps, &partner.CreatedAt, &partner.UpdatedAt)
	return partner, err
}

func partnerFromRow(row pgx.Row) (Partner, error) {
	partner, err := scanPartner(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Partner{}, shared.ErrNotFound
		}
		return Partner{}, err
	}
	return partner, nil
}
