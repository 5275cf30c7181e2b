package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pedalworks/bike-rental/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (id, customer_id, seller_id, address, price, deposit, total, payment, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	createOrderLineSQL = `INSERT INTO order_lines (order_id, bike_id, quantity, months)
		VALUES ($1, $2, $3, $4)`

	getOrderSQL = `SELECT id, customer_id, seller_id, address, price, deposit, total, payment, status, created_at, updated_at
		FROM orders WHERE id = $1`

	getOrderLinesSQL = `SELECT bike_id, quantity, months FROM order_lines WHERE order_id = $1`

	updateOrderStatusSQL = `UPDATE orders SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2`

	customerOrdersSQL = `SELECT o.id, o.address, o.price, o.deposit, o.total, o.payment, o.status,
			o.created_at, o.updated_at,
			s.id, s.name, s.email, s.phone, s.address
		FROM orders o JOIN sellers s ON s.id = o.seller_id
		WHERE o.customer_id = $1
		ORDER BY o.updated_at DESC`

	customerOrderDetailSQL = `SELECT o.id, o.address, o.price, o.deposit, o.total, o.payment, o.status,
			o.created_at, o.updated_at,
			s.id, s.name, s.email, s.phone, s.address
		FROM orders o JOIN sellers s ON s.id = o.seller_id
		WHERE o.id = $1`

	sellerOrdersSQL = `SELECT o.id, o.address, o.price, o.deposit, o.total, o.payment, o.status,
			o.created_at, o.updated_at,
			u.id, u.username, u.email, u.profile_image
		FROM orders o JOIN customers u ON u.id = o.customer_id
		WHERE o.seller_id = $1 AND o.status <> 'CANCELLED'
		ORDER BY o.updated_at DESC`

	orderViewLinesSQL = `SELECT l.order_id, b.id, b.name, b.category, b.price, b.deposit, b.image_url,
			l.quantity, l.months
		FROM order_lines l JOIN bikes b ON b.id = l.bike_id
		WHERE l.order_id = ANY($1)`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order and its lines in one transaction.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, createOrderSQL,
		o.ID, o.CustomerID, o.SellerID, o.Address, o.Price, o.Deposit, o.Total, o.Payment, o.Status,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}

	for _, line := range o.Lines {
		if _, err := tx.Exec(ctx, createOrderLineSQL, o.ID, line.BikeID, line.Quantity, line.Months); err != nil {
			return fmt.Errorf("creating order line %q/%q: %w", o.ID, line.BikeID, err)
		}
	}
	return tx.Commit(ctx)
}

// GetByID returns the order and its lines.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	var o order.Order
	err := r.pool.QueryRow(ctx, getOrderSQL, id).Scan(
		&o.ID, &o.CustomerID, &o.SellerID, &o.Address,
		&o.Price, &o.Deposit, &o.Total, &o.Payment, &o.Status,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	rows, err := r.pool.Query(ctx, getOrderLinesSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order lines: %w", err)
	}
	o.Lines, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Line, error) {
		var l order.Line
		err := row.Scan(&l.BikeID, &l.Quantity, &l.Months)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("collecting order lines: %w", err)
	}
	return &o, nil
}

// GetDetail returns the denormalized customer view of one order.
func (r *OrderRepository) GetDetail(ctx context.Context, id string) (*order.CustomerView, error) {
	rows, err := r.pool.Query(ctx, customerOrderDetailSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order detail %q: %w", id, err)
	}
	v, err := pgx.CollectExactlyOneRow(rows, scanCustomerView)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order detail %q: %w", id, err)
	}

	lines, err := r.viewLines(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	v.Lines = lines[id]
	return &v, nil
}

// UpdateStatus transitions the order with a single conditional update.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to order.Status) (bool, error) {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, from, to)
	if err != nil {
		return false, fmt.Errorf("updating order %q status: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListForCustomer returns the customer's orders with seller profiles and bike
// summaries, newest activity first.
func (r *OrderRepository) ListForCustomer(ctx context.Context, customerID string) ([]order.CustomerView, error) {
	rows, err := r.pool.Query(ctx, customerOrdersSQL, customerID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for customer: %w", err)
	}
	views, err := pgx.CollectRows(rows, scanCustomerView)
	if err != nil {
		return nil, fmt.Errorf("collecting customer orders: %w", err)
	}

	ids := make([]string, len(views))
	for i := range views {
		ids[i] = views[i].ID
	}
	lines, err := r.viewLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range views {
		views[i].Lines = lines[views[i].ID]
	}
	return views, nil
}

// ListForSeller returns the seller's non-cancelled orders with customer
// profiles and bike summaries, newest activity first.
func (r *OrderRepository) ListForSeller(ctx context.Context, sellerID string) ([]order.SellerView, error) {
	rows, err := r.pool.Query(ctx, sellerOrdersSQL, sellerID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for seller: %w", err)
	}
	views, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.SellerView, error) {
		var v order.SellerView
		err := row.Scan(
			&v.ID, &v.Address, &v.Price, &v.Deposit, &v.Total, &v.Payment, &v.Status,
			&v.CreatedAt, &v.UpdatedAt,
			&v.Customer.ID, &v.Customer.Username, &v.Customer.Email, &v.Customer.ProfileImage,
		)
		return v, err
	})
	if err != nil {
		return nil, fmt.Errorf("collecting seller orders: %w", err)
	}

	ids := make([]string, len(views))
	for i := range views {
		ids[i] = views[i].ID
	}
	lines, err := r.viewLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range views {
		views[i].Lines = lines[views[i].ID]
	}
	return views, nil
}

// viewLines batch-fetches the bike-joined lines for the given orders.
func (r *OrderRepository) viewLines(ctx context.Context, orderIDs []string) (map[string][]order.ViewLine, error) {
	if len(orderIDs) == 0 {
		return map[string][]order.ViewLine{}, nil
	}

	rows, err := r.pool.Query(ctx, orderViewLinesSQL, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("getting order view lines: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]order.ViewLine, len(orderIDs))
	for rows.Next() {
		var (
			orderID string
			line    order.ViewLine
		)
		err := rows.Scan(
			&orderID,
			&line.Bike.ID, &line.Bike.Name, &line.Bike.Category,
			&line.Bike.Price, &line.Bike.Deposit, &line.Bike.ImageURL,
			&line.Quantity, &line.Months,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning order view line: %w", err)
		}
		out[orderID] = append(out[orderID], line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading order view lines: %w", err)
	}
	return out, nil
}

func scanCustomerView(row pgx.CollectableRow) (order.CustomerView, error) {
	var v order.CustomerView
	err := row.Scan(
		&v.ID, &v.Address, &v.Price, &v.Deposit, &v.Total, &v.Payment, &v.Status,
		&v.CreatedAt, &v.UpdatedAt,
		&v.Seller.ID, &v.Seller.Name, &v.Seller.Email, &v.Seller.Phone, &v.Seller.Address,
	)
	return v, err
}
