package wishlist

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/pedalworks/bike-rental/internal/domain/bike"
)

// ErrNotInWishlist is returned when removing a bike the customer never saved.
var ErrNotInWishlist = errors.New("bike is not in wishlist")

// Repository defines persistence operations for per-customer wishlists. A
// wishlist is a set: adding a bike twice is a no-op.
type Repository interface {
	Add(ctx context.Context, customerID, bikeID string) error
	Remove(ctx context.Context, customerID, bikeID string) error
	// View returns the customer's saved bikes as catalog summaries.
	View(ctx context.Context, customerID string) ([]bike.Summary, error)
}
