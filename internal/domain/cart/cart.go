package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/pedalworks/bike-rental/internal/domain/bike"
	"github.com/pedalworks/bike-rental/internal/domain/identity"
)

var (
	// ErrLineNotFound is returned when mutating a line the cart does not hold.
	ErrLineNotFound = errors.New("cart line not found")
	// ErrInvalidQuantity is returned when an add request carries a
	// non-positive quantity.
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
)

// Line is one (bike, quantity) pairing in a cart. A cart holds at most one
// line per bike: adding the same bike again merges into the existing line.
type Line struct {
	BikeID   string
	Quantity int
}

// ViewLine is a cart line joined with its bike summary.
type ViewLine struct {
	Bike     bike.Summary
	Quantity int
}

// View is the denormalized read model of a customer's cart. Price, Deposit,
// and Total are running sums maintained by every mutation; Total is always
// Price + Deposit.
type View struct {
	ID        string
	Customer  identity.Customer
	Lines     []ViewLine
	Price     decimal.Decimal
	Deposit   decimal.Decimal
	Total     decimal.Decimal
	UpdatedAt time.Time
}

// Repository defines the persistence operations for carts. Every mutation
// applies the line change and the aggregate delta in a single transaction so
// the running sums cannot drift from the line data. Carts are created lazily
// by the first UpsertLine for a customer.
type Repository interface {
	// UpsertLine adds quantity to the customer's line for bikeID, inserting
	// the line (and the cart) when absent. priceDelta is always applied to
	// the aggregates; depositIfNew only when a new line was inserted.
	UpsertLine(ctx context.Context, customerID, bikeID string, quantity int, priceDelta, depositIfNew decimal.Decimal) error

	// AdjustLine changes an existing line's quantity by delta and applies
	// priceDelta to the aggregates. Fails with ErrLineNotFound when the
	// customer has no line for bikeID.
	AdjustLine(ctx context.Context, customerID, bikeID string, delta int, priceDelta decimal.Decimal) error

	// RemoveLine deletes the line and applies the (negative) price and
	// deposit deltas. Fails with ErrLineNotFound when absent.
	RemoveLine(ctx context.Context, customerID, bikeID string, priceDelta, depositDelta decimal.Decimal) error

	// GetLine returns the customer's line for bikeID, or ErrLineNotFound.
	GetLine(ctx context.Context, customerID, bikeID string) (*Line, error)

	// View returns the denormalized cart. A customer who never added
	// anything gets an empty view, not an error.
	View(ctx context.Context, customerID string) (*View, error)
}
