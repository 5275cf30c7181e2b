package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pedalworks/bike-rental/internal/domain/auth"
)

const findAPIKeyByHashSQL = `SELECT id, key_hash, name, role, subject_id
	FROM api_keys WHERE key_hash = $1`

var _ auth.Repository = (*APIKeyRepository)(nil)

// APIKeyRepository implements auth.Repository backed by PostgreSQL.
type APIKeyRepository struct {
	pool *pgxpool.Pool
}

// NewAPIKeyRepository returns an APIKeyRepository that uses the given pool.
func NewAPIKeyRepository(pool *pgxpool.Pool) *APIKeyRepository {
	return &APIKeyRepository{pool: pool}
}

// FindByHash looks up the principal behind an API key hash.
func (r *APIKeyRepository) FindByHash(ctx context.Context, hash string) (*auth.Principal, error) {
	var p auth.Principal
	err := r.pool.QueryRow(ctx, findAPIKeyByHashSQL, hash).Scan(
		&p.ID, &p.KeyHash, &p.Name, &p.Role, &p.SubjectID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrUnauthorized
		}
		return nil, fmt.Errorf("finding api key: %w", err)
	}
	return &p, nil
}
