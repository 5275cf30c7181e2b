package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/pedalworks/bike-rental/internal/dashboard"
)

const (
	deliveredTotalBetweenSQL = `SELECT COALESCE(SUM(total), 0) FROM orders
		WHERE seller_id = $1 AND status = 'DELIVERED' AND created_at >= $2 AND created_at < $3`

	deliveredOrderCountSQL = `SELECT COUNT(*) FROM orders
		WHERE seller_id = $1 AND status = 'DELIVERED'`

	rentedQuantitySQL = `SELECT COALESCE(SUM(l.quantity), 0)
		FROM orders o JOIN order_lines l ON l.order_id = o.id
		WHERE o.seller_id = $1 AND o.status = 'DELIVERED'`
)

var _ dashboard.Repository = (*DashboardRepository)(nil)

// DashboardRepository implements dashboard.Repository backed by PostgreSQL.
type DashboardRepository struct {
	pool *pgxpool.Pool
}

// NewDashboardRepository returns a DashboardRepository that uses the given
// pool.
func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{pool: pool}
}

// DeliveredTotalBetween sums the seller's delivered order totals created in
// [from, to).
func (r *DashboardRepository) DeliveredTotalBetween(ctx context.Context, sellerID string, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.pool.QueryRow(ctx, deliveredTotalBetweenSQL, sellerID, from, to).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("summing delivered totals: %w", err)
	}
	return total, nil
}

// DeliveredOrderCount counts the seller's delivered orders.
func (r *DashboardRepository) DeliveredOrderCount(ctx context.Context, sellerID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, deliveredOrderCountSQL, sellerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting delivered orders: %w", err)
	}
	return count, nil
}

// RentedQuantity sums line quantities across the seller's delivered orders.
func (r *DashboardRepository) RentedQuantity(ctx context.Context, sellerID string) (int, error) {
	var qty int
	err := r.pool.QueryRow(ctx, rentedQuantitySQL, sellerID).Scan(&qty)
	if err != nil {
		return 0, fmt.Errorf("summing rented quantities: %w", err)
	}
	return qty, nil
}
