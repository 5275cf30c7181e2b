package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pedalworks/bike-rental/internal/domain/identity"
)

const (
	getCustomerSQL = `SELECT id, username, email, profile_image FROM customers WHERE id = $1`
	getSellerSQL   = `SELECT id, name, email, phone, address FROM sellers WHERE id = $1`
)

var _ identity.Repository = (*IdentityRepository)(nil)

// IdentityRepository implements identity.Repository backed by PostgreSQL.
type IdentityRepository struct {
	pool *pgxpool.Pool
}

// NewIdentityRepository returns an IdentityRepository that uses the given pool.
func NewIdentityRepository(pool *pgxpool.Pool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

// GetCustomer returns a customer's public summary.
func (r *IdentityRepository) GetCustomer(ctx context.Context, id string) (*identity.Customer, error) {
	var c identity.Customer
	err := r.pool.QueryRow(ctx, getCustomerSQL, id).Scan(&c.ID, &c.Username, &c.Email, &c.ProfileImage)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identity.ErrNotFound
		}
		return nil, fmt.Errorf("getting customer %q: %w", id, err)
	}
	return &c, nil
}

// GetSeller returns a seller's public summary.
func (r *IdentityRepository) GetSeller(ctx context.Context, id string) (*identity.Seller, error) {
	var s identity.Seller
	err := r.pool.QueryRow(ctx, getSellerSQL, id).Scan(&s.ID, &s.Name, &s.Email, &s.Phone, &s.Address)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identity.ErrNotFound
		}
		return nil, fmt.Errorf("getting seller %q: %w", id, err)
	}
	return &s, nil
}
