package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pedalworks/bike-rental/internal/domain/review"
)

const (
	createReviewSQL = `INSERT INTO reviews (id, bike_id, customer_id, content, rating)
		VALUES ($1, $2, $3, $4, $5)`

	listReviewsSQL = `SELECT r.id, r.content, r.rating, r.created_at,
			u.id, u.username, u.email, u.profile_image
		FROM reviews r JOIN customers u ON u.id = r.customer_id
		WHERE r.bike_id = $1
		ORDER BY r.created_at DESC`

	summarizeReviewsSQL = `SELECT COUNT(*), COALESCE(AVG(rating), 0)
		FROM reviews WHERE bike_id = $1`

	deleteReviewSQL = `DELETE FROM reviews WHERE id = $1`
)

var _ review.Repository = (*ReviewRepository)(nil)

// ReviewRepository implements review.Repository backed by PostgreSQL.
type ReviewRepository struct {
	pool *pgxpool.Pool
}

// NewReviewRepository returns a ReviewRepository that uses the given pool.
func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create persists a new review.
func (r *ReviewRepository) Create(ctx context.Context, rev *review.Review) error {
	_, err := r.pool.Exec(ctx, createReviewSQL,
		rev.ID, rev.BikeID, rev.CustomerID, rev.Content, rev.Rating,
	)
	if err != nil {
		return fmt.Errorf("creating review %q: %w", rev.ID, err)
	}
	return nil
}

// ListForBike returns a bike's reviews with author summaries, newest first.
func (r *ReviewRepository) ListForBike(ctx context.Context, bikeID string) ([]review.View, error) {
	rows, err := r.pool.Query(ctx, listReviewsSQL, bikeID)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (review.View, error) {
		var v review.View
		err := row.Scan(
			&v.ID, &v.Content, &v.Rating, &v.CreatedAt,
			&v.Author.ID, &v.Author.Username, &v.Author.Email, &v.Author.ProfileImage,
		)
		return v, err
	})
}

// Summarize returns the bike's review count and average rating. Both are
// computed on read.
func (r *ReviewRepository) Summarize(ctx context.Context, bikeID string) (review.Summary, error) {
	var s review.Summary
	err := r.pool.QueryRow(ctx, summarizeReviewsSQL, bikeID).Scan(&s.Count, &s.AverageRating)
	if err != nil {
		return review.Summary{}, fmt.Errorf("summarizing reviews: %w", err)
	}
	return s, nil
}

// Delete removes the review.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteReviewSQL, id)
	if err != nil {
		return fmt.Errorf("deleting review %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return review.ErrNotFound
	}
	return nil
}
