package bike

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/pedalworks/bike-rental/internal/domain/identity"
)

// ErrNotFound is returned when a requested bike does not exist.
var ErrNotFound = errors.New("bike not found")

// Bike represents a catalog entry available for rent. Stock is owned by the
// inventory ledger; every other field is owned by the seller who listed it.
type Bike struct {
	ID          string
	Name        string
	Category    string
	Description string
	Price       decimal.Decimal
	Deposit     decimal.Decimal
	Stock       int
	ImageURL    string
	OwnerID     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Summary is the denormalized bike view embedded in carts, orders, and
// wishlists.
type Summary struct {
	ID       string
	Name     string
	Category string
	Price    decimal.Decimal
	Deposit  decimal.Decimal
	ImageURL string
}

// Summary returns the denormalized view of the bike.
func (b *Bike) Summary() Summary {
	return Summary{
		ID:       b.ID,
		Name:     b.Name,
		Category: b.Category,
		Price:    b.Price,
		Deposit:  b.Deposit,
		ImageURL: b.ImageURL,
	}
}

// Detail is a bike joined with its owner's public profile.
type Detail struct {
	Bike
	Owner identity.Seller
}

// WithStats is a bike joined with its review statistics, used on the seller's
// own listing page.
type WithStats struct {
	Bike
	AverageRating float64
	ReviewCount   int
}

// ListParams controls pagination and ordering of catalog listings.
type ListParams struct {
	Page   int
	Limit  int
	SortBy string
	Desc   bool
}

// Normalize clamps paging values and falls back to sorting by creation time.
func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 || p.Limit > 100 {
		p.Limit = 10
	}
	switch p.SortBy {
	case "name", "price", "deposit", "category", "created_at":
	default:
		p.SortBy = "created_at"
	}
}

// Update holds the seller-editable bike fields. Nil fields are left unchanged.
type Update struct {
	Name        *string
	Category    *string
	Description *string
	Price       *decimal.Decimal
	Deposit     *decimal.Decimal
	ImageURL    *string
}

// Repository defines persistence operations for the bike catalog.
type Repository interface {
	List(ctx context.Context, params ListParams) ([]Bike, error)
	ListByCategory(ctx context.Context, category string, params ListParams) ([]Bike, error)
	ListByOwner(ctx context.Context, ownerID string) ([]WithStats, error)
	GetByID(ctx context.Context, id string) (*Bike, error)
	GetDetail(ctx context.Context, id string) (*Detail, error)
	Create(ctx context.Context, b *Bike) error
	Update(ctx context.Context, id string, upd Update) (*Bike, error)
	SetStock(ctx context.Context, id string, stock int) error
	Delete(ctx context.Context, id string) error
}
