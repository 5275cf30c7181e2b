package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pedalworks/bike-rental/internal/domain/bike"
	"github.com/pedalworks/bike-rental/internal/domain/inventory"
)

const bikeColumns = `id, name, category, description, price, deposit, stock, image_url, owner_id, created_at, updated_at`

const (
	getBikeByIDSQL = `SELECT ` + bikeColumns + ` FROM bikes WHERE id = $1`

	getBikeDetailSQL = `SELECT b.id, b.name, b.category, b.description, b.price, b.deposit, b.stock,
			b.image_url, b.owner_id, b.created_at, b.updated_at,
			s.id, s.name, s.email, s.phone, s.address
		FROM bikes b JOIN sellers s ON s.id = b.owner_id
		WHERE b.id = $1`

	listBikesByOwnerSQL = `SELECT b.id, b.name, b.category, b.description, b.price, b.deposit, b.stock,
			b.image_url, b.owner_id, b.created_at, b.updated_at,
			COALESCE(AVG(r.rating), 0), COUNT(r.id)
		FROM bikes b LEFT JOIN reviews r ON r.bike_id = b.id
		WHERE b.owner_id = $1
		GROUP BY b.id
		ORDER BY b.created_at DESC`

	createBikeSQL = `INSERT INTO bikes (id, name, category, description, price, deposit, stock, image_url, owner_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	setBikeStockSQL = `UPDATE bikes SET stock = $2, updated_at = now() WHERE id = $1`

	deleteBikeSQL = `DELETE FROM bikes WHERE id = $1`

	reserveStockSQL = `UPDATE bikes SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2`

	releaseStockSQL = `UPDATE bikes SET stock = stock + $2, updated_at = now() WHERE id = $1`

	bikeExistsSQL = `SELECT EXISTS (SELECT 1 FROM bikes WHERE id = $1)`
)

var (
	_ bike.Repository  = (*BikeRepository)(nil)
	_ inventory.Ledger = (*BikeRepository)(nil)
)

// BikeRepository implements the bike catalog and the inventory ledger backed
// by PostgreSQL. Both live on the bikes table: the ledger owns the stock
// column, the catalog owns the rest.
type BikeRepository struct {
	pool *pgxpool.Pool
}

// NewBikeRepository returns a BikeRepository that uses the given pool.
func NewBikeRepository(pool *pgxpool.Pool) *BikeRepository {
	return &BikeRepository{pool: pool}
}

// List returns a page of the catalog.
func (r *BikeRepository) List(ctx context.Context, params bike.ListParams) ([]bike.Bike, error) {
	params.Normalize()
	q := fmt.Sprintf(`SELECT %s FROM bikes ORDER BY %s %s OFFSET $1 LIMIT $2`,
		bikeColumns, params.SortBy, sortDirection(params.Desc))

	rows, err := r.pool.Query(ctx, q, (params.Page-1)*params.Limit, params.Limit)
	if err != nil {
		return nil, fmt.Errorf("listing bikes: %w", err)
	}
	return pgx.CollectRows(rows, scanBike)
}

// ListByCategory returns a page of the catalog restricted to one category.
func (r *BikeRepository) ListByCategory(ctx context.Context, category string, params bike.ListParams) ([]bike.Bike, error) {
	params.Normalize()
	q := fmt.Sprintf(`SELECT %s FROM bikes WHERE category = $1 ORDER BY %s %s OFFSET $2 LIMIT $3`,
		bikeColumns, params.SortBy, sortDirection(params.Desc))

	rows, err := r.pool.Query(ctx, q, category, (params.Page-1)*params.Limit, params.Limit)
	if err != nil {
		return nil, fmt.Errorf("listing bikes by category %q: %w", category, err)
	}
	return pgx.CollectRows(rows, scanBike)
}

// ListByOwner returns a seller's bikes with their review statistics.
func (r *BikeRepository) ListByOwner(ctx context.Context, ownerID string) ([]bike.WithStats, error) {
	rows, err := r.pool.Query(ctx, listBikesByOwnerSQL, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing bikes by owner: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (bike.WithStats, error) {
		var ws bike.WithStats
		err := row.Scan(
			&ws.ID, &ws.Name, &ws.Category, &ws.Description, &ws.Price, &ws.Deposit,
			&ws.Stock, &ws.ImageURL, &ws.OwnerID, &ws.CreatedAt, &ws.UpdatedAt,
			&ws.AverageRating, &ws.ReviewCount,
		)
		return ws, err
	})
}

// GetByID returns a single bike by its identifier.
func (r *BikeRepository) GetByID(ctx context.Context, id string) (*bike.Bike, error) {
	rows, err := r.pool.Query(ctx, getBikeByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting bike %q: %w", id, err)
	}

	b, err := pgx.CollectExactlyOneRow(rows, scanBike)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bike.ErrNotFound
		}
		return nil, fmt.Errorf("getting bike %q: %w", id, err)
	}
	return &b, nil
}

// GetDetail returns the bike joined with its owner's public profile.
func (r *BikeRepository) GetDetail(ctx context.Context, id string) (*bike.Detail, error) {
	var d bike.Detail
	err := r.pool.QueryRow(ctx, getBikeDetailSQL, id).Scan(
		&d.ID, &d.Name, &d.Category, &d.Description, &d.Price, &d.Deposit,
		&d.Stock, &d.ImageURL, &d.OwnerID, &d.CreatedAt, &d.UpdatedAt,
		&d.Owner.ID, &d.Owner.Name, &d.Owner.Email, &d.Owner.Phone, &d.Owner.Address,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bike.ErrNotFound
		}
		return nil, fmt.Errorf("getting bike detail %q: %w", id, err)
	}
	return &d, nil
}

// Create persists a new catalog entry.
func (r *BikeRepository) Create(ctx context.Context, b *bike.Bike) error {
	_, err := r.pool.Exec(ctx, createBikeSQL,
		b.ID, b.Name, b.Category, b.Description, b.Price, b.Deposit, b.Stock, b.ImageURL, b.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("creating bike %q: %w", b.ID, err)
	}
	return nil
}

// Update applies the non-nil fields of upd and returns the updated bike.
func (r *BikeRepository) Update(ctx context.Context, id string, upd bike.Update) (*bike.Bike, error) {
	sets := make([]string, 0, 6)
	args := make([]any, 0, 7)
	args = append(args, id)

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Category != nil {
		add("category", *upd.Category)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.Price != nil {
		add("price", *upd.Price)
	}
	if upd.Deposit != nil {
		add("deposit", *upd.Deposit)
	}
	if upd.ImageURL != nil {
		add("image_url", *upd.ImageURL)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	q := fmt.Sprintf(`UPDATE bikes SET %s, updated_at = now() WHERE id = $1 RETURNING %s`,
		strings.Join(sets, ", "), bikeColumns)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("updating bike %q: %w", id, err)
	}
	b, err := pgx.CollectExactlyOneRow(rows, scanBike)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bike.ErrNotFound
		}
		return nil, fmt.Errorf("updating bike %q: %w", id, err)
	}
	return &b, nil
}

// SetStock overwrites the bike's stock count. Used by sellers restocking;
// purchase-path changes go through Reserve and Release instead.
func (r *BikeRepository) SetStock(ctx context.Context, id string, stock int) error {
	tag, err := r.pool.Exec(ctx, setBikeStockSQL, id, stock)
	if err != nil {
		return fmt.Errorf("setting stock for bike %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return bike.ErrNotFound
	}
	return nil
}

// Delete removes the bike. Deletion is rejected by the database while order
// history still references the bike.
func (r *BikeRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteBikeSQL, id)
	if err != nil {
		return fmt.Errorf("deleting bike %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return bike.ErrNotFound
	}
	return nil
}

// Reserve atomically checks and decrements stock in a single conditional
// update. Concurrent reservations that would jointly exceed stock cannot both
// match the predicate. A zero-row update is disambiguated with an existence
// check: a missing bike reports bike.ErrNotFound, not insufficient stock.
func (r *BikeRepository) Reserve(ctx context.Context, bikeID string, quantity int) error {
	tag, err := r.pool.Exec(ctx, reserveStockSQL, bikeID, quantity)
	if err != nil {
		return fmt.Errorf("reserving %d of bike %q: %w", quantity, bikeID, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, bikeExistsSQL, bikeID).Scan(&exists); err != nil {
			return fmt.Errorf("checking bike %q: %w", bikeID, err)
		}
		if !exists {
			return bike.ErrNotFound
		}
		return inventory.ErrInsufficientStock
	}
	return nil
}

// Release returns quantity units to stock.
func (r *BikeRepository) Release(ctx context.Context, bikeID string, quantity int) error {
	_, err := r.pool.Exec(ctx, releaseStockSQL, bikeID, quantity)
	if err != nil {
		return fmt.Errorf("releasing %d of bike %q: %w", quantity, bikeID, err)
	}
	return nil
}

func scanBike(row pgx.CollectableRow) (bike.Bike, error) {
	var b bike.Bike
	err := row.Scan(
		&b.ID, &b.Name, &b.Category, &b.Description, &b.Price, &b.Deposit,
		&b.Stock, &b.ImageURL, &b.OwnerID, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

func sortDirection(desc bool) string {
	if desc {
		return "DESC"
	}
	return "ASC"
}
