package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/pedalworks/bike-rental/internal/domain/cart"
)

const (
	ensureCartSQL = `INSERT INTO carts (id, customer_id) VALUES ($1, $2)
		ON CONFLICT (customer_id) DO NOTHING`

	// xmax = 0 distinguishes a fresh insert from a conflict-update.
	upsertCartLineSQL = `INSERT INTO cart_lines (cart_id, bike_id, quantity)
		SELECT c.id, $2, $3 FROM carts c WHERE c.customer_id = $1
		ON CONFLICT (cart_id, bike_id)
		DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity
		RETURNING (xmax = 0) AS inserted`

	adjustCartLineSQL = `UPDATE cart_lines SET quantity = cart_lines.quantity + $3
		FROM carts c
		WHERE c.id = cart_lines.cart_id AND c.customer_id = $1 AND cart_lines.bike_id = $2`

	removeCartLineSQL = `DELETE FROM cart_lines USING carts c
		WHERE c.id = cart_lines.cart_id AND c.customer_id = $1 AND cart_lines.bike_id = $2`

	applyCartDeltaSQL = `UPDATE carts
		SET price = price + $2, deposit = deposit + $3, total = total + $2 + $3, updated_at = now()
		WHERE customer_id = $1`

	getCartLineSQL = `SELECT cart_lines.bike_id, cart_lines.quantity
		FROM cart_lines JOIN carts c ON c.id = cart_lines.cart_id
		WHERE c.customer_id = $1 AND cart_lines.bike_id = $2`

	getCartSQL = `SELECT c.id, c.price, c.deposit, c.total, c.updated_at,
			u.id, u.username, u.email, u.profile_image
		FROM carts c JOIN customers u ON u.id = c.customer_id
		WHERE c.customer_id = $1`

	getCartLinesSQL = `SELECT b.id, b.name, b.category, b.price, b.deposit, b.image_url, cart_lines.quantity
		FROM cart_lines
		JOIN carts c ON c.id = cart_lines.cart_id
		JOIN bikes b ON b.id = cart_lines.bike_id
		WHERE c.customer_id = $1
		ORDER BY cart_lines.added_at`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL. Every
// mutation runs the line change and the aggregate delta inside one
// transaction, keeping the cart's running sums consistent with its lines.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// UpsertLine merges quantity into the customer's line for bikeID, creating
// the cart and line as needed. depositIfNew is only charged when the line did
// not exist before.
func (r *CartRepository) UpsertLine(ctx context.Context, customerID, bikeID string, quantity int, priceDelta, depositIfNew decimal.Decimal) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, ensureCartSQL, uuid.New().String(), customerID); err != nil {
			return fmt.Errorf("ensuring cart: %w", err)
		}

		var inserted bool
		if err := tx.QueryRow(ctx, upsertCartLineSQL, customerID, bikeID, quantity).Scan(&inserted); err != nil {
			return fmt.Errorf("upserting cart line: %w", err)
		}

		depositDelta := depositIfNew
		if !inserted {
			depositDelta = decimal.Zero
		}
		if _, err := tx.Exec(ctx, applyCartDeltaSQL, customerID, priceDelta, depositDelta); err != nil {
			return fmt.Errorf("applying cart delta: %w", err)
		}
		return nil
	})
}

// AdjustLine changes an existing line's quantity by delta and applies
// priceDelta to the aggregates.
func (r *CartRepository) AdjustLine(ctx context.Context, customerID, bikeID string, delta int, priceDelta decimal.Decimal) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, adjustCartLineSQL, customerID, bikeID, delta)
		if err != nil {
			return fmt.Errorf("adjusting cart line: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return cart.ErrLineNotFound
		}

		if _, err := tx.Exec(ctx, applyCartDeltaSQL, customerID, priceDelta, decimal.Zero); err != nil {
			return fmt.Errorf("applying cart delta: %w", err)
		}
		return nil
	})
}

// RemoveLine deletes the line and applies the negative price and deposit
// deltas.
func (r *CartRepository) RemoveLine(ctx context.Context, customerID, bikeID string, priceDelta, depositDelta decimal.Decimal) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, removeCartLineSQL, customerID, bikeID)
		if err != nil {
			return fmt.Errorf("removing cart line: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return cart.ErrLineNotFound
		}

		if _, err := tx.Exec(ctx, applyCartDeltaSQL, customerID, priceDelta, depositDelta); err != nil {
			return fmt.Errorf("applying cart delta: %w", err)
		}
		return nil
	})
}

// GetLine returns the customer's line for bikeID.
func (r *CartRepository) GetLine(ctx context.Context, customerID, bikeID string) (*cart.Line, error) {
	var line cart.Line
	err := r.pool.QueryRow(ctx, getCartLineSQL, customerID, bikeID).Scan(&line.BikeID, &line.Quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrLineNotFound
		}
		return nil, fmt.Errorf("getting cart line: %w", err)
	}
	return &line, nil
}

// View returns the customer's cart joined with bike and customer summaries.
// A customer without a cart gets an empty view.
func (r *CartRepository) View(ctx context.Context, customerID string) (*cart.View, error) {
	var v cart.View
	err := r.pool.QueryRow(ctx, getCartSQL, customerID).Scan(
		&v.ID, &v.Price, &v.Deposit, &v.Total, &v.UpdatedAt,
		&v.Customer.ID, &v.Customer.Username, &v.Customer.Email, &v.Customer.ProfileImage,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return &cart.View{
			Price:   decimal.Zero,
			Deposit: decimal.Zero,
			Total:   decimal.Zero,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting cart: %w", err)
	}

	rows, err := r.pool.Query(ctx, getCartLinesSQL, customerID)
	if err != nil {
		return nil, fmt.Errorf("getting cart lines: %w", err)
	}
	v.Lines, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.ViewLine, error) {
		var line cart.ViewLine
		err := row.Scan(
			&line.Bike.ID, &line.Bike.Name, &line.Bike.Category,
			&line.Bike.Price, &line.Bike.Deposit, &line.Bike.ImageURL,
			&line.Quantity,
		)
		return line, err
	})
	if err != nil {
		return nil, fmt.Errorf("collecting cart lines: %w", err)
	}
	return &v, nil
}

// inTx runs fn inside a transaction, committing on nil and rolling back on
// error.
func (r *CartRepository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
