package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/pedalworks/bike-rental/internal/domain/bike"
	"github.com/pedalworks/bike-rental/internal/domain/identity"
)

// Status is the lifecycle state of an order. Orders are created in
// StatusProcessing; StatusDelivered and StatusCancelled are terminal.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

// PaymentMethod enumerates the supported payment options.
type PaymentMethod string

const (
	PaymentCOD  PaymentMethod = "COD"
	PaymentUPI  PaymentMethod = "UPI"
	PaymentCard PaymentMethod = "CARD"
)

// Valid reports whether m is one of the supported methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCOD, PaymentUPI, PaymentCard:
		return true
	}
	return false
}

var (
	// ErrNotFound is returned when the requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrAlreadyCancelled is returned when cancelling an order twice.
	ErrAlreadyCancelled = errors.New("order already cancelled")
	// ErrInvalidTransition is returned when a status change is not permitted
	// from the order's current state.
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrMissingAddress is returned when a placement request has no delivery
	// address.
	ErrMissingAddress = errors.New("delivery address is required")
	// ErrInvalidPayment is returned for an unknown payment method.
	ErrInvalidPayment = errors.New("payment method must be COD, UPI or CARD")
	// ErrPaymentFailed is returned when the payment gateway could not create
	// a checkout session. Any stock reserved for the order has been released.
	ErrPaymentFailed = errors.New("payment session creation failed")
	// ErrDuplicateRequest is returned when the idempotency guard rejects a
	// repeated placement.
	ErrDuplicateRequest = errors.New("duplicate order request")
)

// Line is one (bike, quantity, months) entry in an order.
type Line struct {
	BikeID   string `json:"bike_id"`
	Quantity int    `json:"quantity"`
	Months   int    `json:"months"`
}

// Order is a persisted rental order. Price, Deposit, and Total are fixed at
// creation time and never recomputed.
type Order struct {
	ID         string
	CustomerID string
	SellerID   string
	Address    string
	Lines      []Line
	Price      decimal.Decimal
	Deposit    decimal.Decimal
	Total      decimal.Decimal
	Payment    PaymentMethod
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ViewLine is an order line joined with its bike summary.
type ViewLine struct {
	Bike     bike.Summary
	Quantity int
	Months   int
}

// CustomerView is an order denormalized for the customer: lines resolved to
// bike summaries plus the seller's public profile.
type CustomerView struct {
	ID        string
	Lines     []ViewLine
	Address   string
	Price     decimal.Decimal
	Deposit   decimal.Decimal
	Total     decimal.Decimal
	Payment   PaymentMethod
	Status    Status
	Seller    identity.Seller
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SellerView is an order denormalized for the seller: lines resolved to bike
// summaries plus the customer's public profile.
type SellerView struct {
	ID        string
	Lines     []ViewLine
	Address   string
	Price     decimal.Decimal
	Deposit   decimal.Decimal
	Total     decimal.Decimal
	Payment   PaymentMethod
	Status    Status
	Customer  identity.Customer
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	GetDetail(ctx context.Context, id string) (*CustomerView, error)

	// UpdateStatus transitions the order from one status to another as a
	// single conditional update. It reports whether a row matched; a false
	// return means the order is absent or no longer in the from status.
	UpdateStatus(ctx context.Context, id string, from, to Status) (bool, error)

	// ListForCustomer returns the customer's orders, newest activity first.
	ListForCustomer(ctx context.Context, customerID string) ([]CustomerView, error)

	// ListForSeller returns the seller's non-cancelled orders, newest
	// activity first.
	ListForSeller(ctx context.Context, sellerID string) ([]SellerView, error)
}

// PaymentGateway creates external checkout sessions for card payments. The
// returned string is the redirect URL the customer completes payment at.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, description string, amount decimal.Decimal, quantity int) (string, error)
}

// IdempotencyGuard rejects repeated placement attempts. Begin reports whether
// the caller holds a fresh claim on the key.
type IdempotencyGuard interface {
	Begin(ctx context.Context, key string) (bool, error)
}
