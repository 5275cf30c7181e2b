package review

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/pedalworks/bike-rental/internal/domain/identity"
)

var (
	// ErrNotFound is returned when the requested review does not exist.
	ErrNotFound = errors.New("review not found")
	// ErrMissingContent is returned when a review has no text.
	ErrMissingContent = errors.New("review content is required")
	// ErrInvalidRating is returned when the rating is outside 0 to 5.
	ErrInvalidRating = errors.New("rating must be between 0 and 5")
)

// Review is a customer's rating of a bike.
type Review struct {
	ID         string
	BikeID     string
	CustomerID string
	Content    string
	Rating     int
	CreatedAt  time.Time
}

// Validate checks the author-supplied fields.
func (r *Review) Validate() error {
	if r.Content == "" {
		return ErrMissingContent
	}
	if r.Rating < 0 || r.Rating > 5 {
		return ErrInvalidRating
	}
	return nil
}

// View is a review joined with its author's public profile.
type View struct {
	ID        string
	Content   string
	Rating    int
	Author    identity.Customer
	CreatedAt time.Time
}

// Summary holds the derived rating statistics for a bike. They are computed
// from the stored reviews on every read, never stored themselves.
type Summary struct {
	Count         int
	AverageRating float64
}

// Repository defines persistence operations for reviews.
type Repository interface {
	Create(ctx context.Context, r *Review) error
	// ListForBike returns a bike's reviews with author summaries, newest
	// first.
	ListForBike(ctx context.Context, bikeID string) ([]View, error)
	// Summarize returns the bike's review count and average rating.
	Summarize(ctx context.Context, bikeID string) (Summary, error)
	Delete(ctx context.Context, id string) error
}
