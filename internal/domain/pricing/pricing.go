// Package pricing computes rental line costs. All functions are pure.
package pricing

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidInput is returned when quantity or duration is not a positive
// integer.
var ErrInvalidInput = errors.New("quantity and months must be positive")

// LineCost is the cost breakdown of a single rental line.
type LineCost struct {
	// Price is the rental charge: unit price x quantity x months.
	Price decimal.Decimal
	// Deposit is the refundable hold, charged once per distinct bike
	// regardless of quantity or duration.
	Deposit decimal.Decimal
	// Total is always Price + Deposit.
	Total decimal.Decimal
}

// ComputeLineCost prices a rental of quantity bikes for the given number of
// months.
func ComputeLineCost(unitPrice, deposit decimal.Decimal, quantity, months int) (LineCost, error) {
	if quantity <= 0 || months <= 0 {
		return LineCost{}, ErrInvalidInput
	}

	price := unitPrice.
		Mul(decimal.NewFromInt(int64(quantity))).
		Mul(decimal.NewFromInt(int64(months)))

	return LineCost{
		Price:   price,
		Deposit: deposit,
		Total:   price.Add(deposit),
	}, nil
}
