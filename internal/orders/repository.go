package orders

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arbor-commerce/arbor/internal/platform/db"
	"github.com/arbor-commerce/arbor/internal/shared"
)

// Repository provides PostgreSQL backed persistence for orders.
type Repository interface {
	Create(ctx context.Context, order Order) (Order, error)
	List(ctx context.Context, filters ListOrdersFilters) ([]Order, int, error)
	Get(ctx context.Context, id int64) (Order, error)
	UpdateStatus(ctx context.Context, id int64, status Status) (Order, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const orderColumns = `id, number, email, status, total_cents, currency, partner_code, created_at, updated_at`

// Create inserts the order and its items in one transaction.
func (r *repository) Create(ctx context.Context, order Order) (Order, error) {
	var created Order
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO orders (number, email, status, total_cents, currency, partner_code, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NOW(), NOW()) RETURNING `+orderColumns,
			order.Number, order.Email, order.Status, order.TotalCents, order.Currency, order.PartnerCode)
		var err error
		created, err = scanOrder(row)
		if err != nil {
			return err
		}
		for _, item := range order.Items {
			if _, err := tx.Exec(ctx,
				`INSERT INTO order_items (order_id, product_id, name, price_cents, currency, quantity)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				created.ID, item.ProductID, item.Name, item.PriceCents, item.Currency, item.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	created.Items = order.Items
	return created, nil
}

func (r *repository) List(ctx context.Context, filters ListOrdersFilters) ([]Order, int, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM orders WHERE 1=1`
	args := []any{}

	if filters.Status != "" {
		args = append(args, filters.Status)
		cond := ` AND status = $` + strconv.Itoa(len(args))
		query += cond
		countQuery += cond
	}
	if filters.Email != "" {
		args = append(args, filters.Email)
		cond := ` AND email = $` + strconv.Itoa(len(args))
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
	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args))
	args = append(args, (page-1)*perPage)
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, order)
	}
	return orders, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, shared.ErrNotFound
		}
		return Order{}, err
	}
	order.Items, err = r.items(ctx, id)
	if err != nil {
		return Order{}, err
	}
	return order, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status Status) (Order, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING `+orderColumns,
		status, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, shared.ErrNotFound
		}
		return Order{}, err
	}
	order.Items, err = r.items(ctx, id)
	if err != nil {
		return Order{}, err
	}
	return order, nil
}

func (r *repository) items(ctx context.Context, orderID int64) ([]Item, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT product_id, name, price_cents, currency, quantity FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ProductID, &item.Name, &item.PriceCents, &item.Currency, &item.Quantity); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanOrder(row pgx.Row) (Order, error) {
	var (
		order       Order
		partnerCode *string
	)
	err := row.Scan(&order.ID, &order.Number, &order.Email, &order.Status, &order.TotalCents,
		&order.Currency, &partnerCode, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	if partnerCode != nil {
		order.PartnerCode = *partnerCode
	}
	return order, nil
}
