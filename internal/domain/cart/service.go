package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/pedalworks/bike-rental/internal/domain/bike"
	"github.com/pedalworks/bike-rental/internal/domain/inventory"
	"github.com/pedalworks/bike-rental/internal/domain/pricing"
)

// Service implements cart business rules on top of the repository's atomic
// mutations. Carts never hold inventory reservations: stock is only checked
// against the catalog at add time and reserved at checkout.
type Service struct {
	bikes bike.Repository
	carts Repository
}

// NewService creates a cart Service.
func NewService(bikes bike.Repository, carts Repository) *Service {
	return &Service{bikes: bikes, carts: carts}
}

// AddLine puts quantity units of a bike into the customer's cart. If the cart
// already holds a line for the bike the quantities merge into one line; the
// deposit is only charged for a line the cart did not have before.
func (s *Service) AddLine(ctx context.Context, customerID, bikeID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	b, err := s.bikes.GetByID(ctx, bikeID)
	if err != nil {
		return errors.Wrap(err, "get bike")
	}
	if b.Stock < quantity {
		return inventory.ErrInsufficientStock
	}

	cost, err := pricing.ComputeLineCost(b.Price, b.Deposit, quantity, 1)
	if err != nil {
		return err
	}

	if err := s.carts.UpsertLine(ctx, customerID, bikeID, quantity, cost.Price, cost.Deposit); err != nil {
		return errors.Wrap(err, "upsert line")
	}
	return nil
}

// IncrementLine raises an existing line's quantity by one, adding one unit
// price to the aggregates.
func (s *Service) IncrementLine(ctx context.Context, customerID, bikeID string) error {
	b, err := s.bikes.GetByID(ctx, bikeID)
	if err != nil {
		return errors.Wrap(err, "get bike")
	}

	if err := s.carts.AdjustLine(ctx, customerID, bikeID, 1, b.Price); err != nil {
		return errors.Wrap(err, "adjust line")
	}
	return nil
}

// DecrementLine lowers an existing line's quantity by one. At quantity 1 the
// line is removed entirely and the bike's deposit is refunded along with the
// last unit price, since the deposit is per distinct bike rather than per
// unit.
func (s *Service) DecrementLine(ctx context.Context, customerID, bikeID string) error {
	b, err := s.bikes.GetByID(ctx, bikeID)
	if err != nil {
		return errors.Wrap(err, "get bike")
	}

	line, err := s.carts.GetLine(ctx, customerID, bikeID)
	if err != nil {
		return err
	}

	if line.Quantity > 1 {
		if err := s.carts.AdjustLine(ctx, customerID, bikeID, -1, b.Price.Neg()); err != nil {
			return errors.Wrap(err, "adjust line")
		}
		return nil
	}

	if err := s.carts.RemoveLine(ctx, customerID, bikeID, b.Price.Neg(), b.Deposit.Neg()); err != nil {
		return errors.Wrap(err, "remove line")
	}
	return nil
}

// RemoveLine deletes the line and subtracts its full price and deposit
// contribution from the cart aggregates.
func (s *Service) RemoveLine(ctx context.Context, customerID, bikeID string) error {
	b, err := s.bikes.GetByID(ctx, bikeID)
	if err != nil {
		return errors.Wrap(err, "get bike")
	}

	line, err := s.carts.GetLine(ctx, customerID, bikeID)
	if err != nil {
		return err
	}

	priceDelta := b.Price.Mul(decimal.NewFromInt(int64(line.Quantity))).Neg()
	if err := s.carts.RemoveLine(ctx, customerID, bikeID, priceDelta, b.Deposit.Neg()); err != nil {
		return errors.Wrap(err, "remove line")
	}
	return nil
}

// Get returns the customer's cart joined with bike and customer summaries.
func (s *Service) Get(ctx context.Context, customerID string) (*View, error) {
	view, err := s.carts.View(ctx, customerID)
	if err != nil {
		return nil, errors.Wrap(err, "cart view")
	}
	return view, nil
}
