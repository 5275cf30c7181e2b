package identity

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when the requested customer or seller does not exist.
var ErrNotFound = errors.New("identity not found")

// Customer is the public summary of a renting customer. The full account
// record (credentials, sessions) is owned by the authentication layer and is
// not modelled here.
type Customer struct {
	ID           string
	Username     string
	Email        string
	ProfileImage string
}

// Seller is the public summary of a bike owner.
type Seller struct {
	ID      string
	Name    string
	Email   string
	Phone   string
	Address string
}

// Repository provides read-only lookups of customer and seller summaries.
type Repository interface {
	GetCustomer(ctx context.Context, id string) (*Customer, error)
	GetSeller(ctx context.Context, id string) (*Seller, error)
}
