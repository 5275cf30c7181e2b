package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pedalworks/bike-rental/internal/domain/bike"
	"github.com/pedalworks/bike-rental/internal/domain/wishlist"
)

const (
	addWishlistSQL = `INSERT INTO wishlist_items (customer_id, bike_id)
		VALUES ($1, $2) ON CONFLICT DO NOTHING`

	removeWishlistSQL = `DELETE FROM wishlist_items WHERE customer_id = $1 AND bike_id = $2`

	viewWishlistSQL = `SELECT b.id, b.name, b.category, b.price, b.deposit, b.image_url
		FROM wishlist_items w JOIN bikes b ON b.id = w.bike_id
		WHERE w.customer_id = $1
		ORDER BY w.added_at DESC`
)

var _ wishlist.Repository = (*WishlistRepository)(nil)

// WishlistRepository implements wishlist.Repository backed by PostgreSQL.
type WishlistRepository struct {
	pool *pgxpool.Pool
}

// NewWishlistRepository returns a WishlistRepository that uses the given pool.
func NewWishlistRepository(pool *pgxpool.Pool) *WishlistRepository {
	return &WishlistRepository{pool: pool}
}

// Add saves the bike to the customer's wishlist. Saving an already-saved bike
// is a no-op.
func (r *WishlistRepository) Add(ctx context.Context, customerID, bikeID string) error {
	_, err := r.pool.Exec(ctx, addWishlistSQL, customerID, bikeID)
	if err != nil {
		return fmt.Errorf("adding to wishlist: %w", err)
	}
	return nil
}

// Remove deletes the bike from the customer's wishlist.
func (r *WishlistRepository) Remove(ctx context.Context, customerID, bikeID string) error {
	tag, err := r.pool.Exec(ctx, removeWishlistSQL, customerID, bikeID)
	if err != nil {
		return fmt.Errorf("removing from wishlist: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return wishlist.ErrNotInWishlist
	}
	return nil
}

// View returns the customer's saved bikes, most recently saved first.
func (r *WishlistRepository) View(ctx context.Context, customerID string) ([]bike.Summary, error) {
	rows, err := r.pool.Query(ctx, viewWishlistSQL, customerID)
	if err != nil {
		return nil, fmt.Errorf("getting wishlist: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (bike.Summary, error) {
		var s bike.Summary
		err := row.Scan(&s.ID, &s.Name, &s.Category, &s.Price, &s.Deposit, &s.ImageURL)
		return s, err
	})
}
