// Package inventory defines the stock ledger contract for catalog bikes.
package inventory

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrInsufficientStock is returned when a reservation would drive stock
// negative.
var ErrInsufficientStock = errors.New("insufficient stock")

// Ledger owns the available stock count of every bike. Reserve must be atomic
// with respect to concurrent reservations against the same bike: the
// check-and-decrement is a single conditional store operation, never a read
// followed by a write. The sum of committed reservations against a bike can
// therefore never exceed its initial stock.
type Ledger interface {
	// Reserve decrements stock by quantity if at least that much is
	// available, otherwise fails with ErrInsufficientStock. A bike the
	// catalog does not hold fails with the catalog's not-found error rather
	// than masquerading as an out-of-stock bike.
	Reserve(ctx context.Context, bikeID string, quantity int) error

	// Release returns quantity units to stock. No ceiling is enforced:
	// returned units are assumed valid.
	Release(ctx context.Context, bikeID string, quantity int) error
}
