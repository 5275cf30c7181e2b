package order

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pedalworks/bike-rental/internal/domain/bike"
	"github.com/pedalworks/bike-rental/internal/domain/inventory"
	"github.com/pedalworks/bike-rental/internal/domain/pricing"
)

// PlaceRequest holds the input for placing an order for a single bike.
type PlaceRequest struct {
	CustomerID string
	BikeID     string
	Address    string
	Payment    PaymentMethod
	Quantity   int
	Months     int
}

// PlaceResult holds the output of a successfully placed order. PaymentURL is
// set only for card payments.
type PlaceResult struct {
	Order      *Order
	PaymentURL string
}

// Service coordinates order placement and lifecycle transitions between the
// catalog, the inventory ledger, the payment gateway, and order persistence.
type Service struct {
	bikes    bike.Repository
	ledger   inventory.Ledger
	orders   Repository
	payments PaymentGateway
	idem     IdempotencyGuard
}

// NewService creates an order Service. idem may be nil, in which case
// duplicate placement requests are not rejected.
func NewService(
	bikes bike.Repository,
	ledger inventory.Ledger,
	orders Repository,
	payments PaymentGateway,
	idem IdempotencyGuard,
) *Service {
	return &Service{
		bikes:    bikes,
		ledger:   ledger,
		orders:   orders,
		payments: payments,
		idem:     idem,
	}
}

// Place validates the request, prices the rental, reserves stock, creates a
// payment session for card payments, and persists the order in PROCESSING
// state with the bike's owner as seller.
//
// The stock reservation is taken before the payment session is created; if
// session creation or the order insert fails, the reservation is released so
// no stock is stranded.
func (s *Service) Place(ctx context.Context, req PlaceRequest) (*PlaceResult, error) {
	if strings.TrimSpace(req.Address) == "" {
		return nil, ErrMissingAddress
	}
	if !req.Payment.Valid() {
		return nil, ErrInvalidPayment
	}

	if s.idem != nil {
		key := fmt.Sprintf("order:%s:%s", req.CustomerID, req.BikeID)
		fresh, err := s.idem.Begin(ctx, key)
		if err != nil {
			return nil, errors.Wrap(err, "idempotency check")
		}
		if !fresh {
			return nil, ErrDuplicateRequest
		}
	}

	b, err := s.bikes.GetByID(ctx, req.BikeID)
	if err != nil {
		return nil, errors.Wrap(err, "get bike")
	}

	cost, err := pricing.ComputeLineCost(b.Price, b.Deposit, req.Quantity, req.Months)
	if err != nil {
		return nil, err
	}

	if err := s.ledger.Reserve(ctx, req.BikeID, req.Quantity); err != nil {
		return nil, errors.Wrap(err, "reserve stock")
	}

	paymentURL := ""
	if req.Payment == PaymentCard {
		paymentURL, err = s.payments.CreateCheckoutSession(ctx, b.Name, cost.Total, req.Quantity)
		if err != nil {
			s.release(ctx, req.BikeID, req.Quantity)
			return nil, errors.Wrap(ErrPaymentFailed, err.Error())
		}
	}

	o := &Order{
		ID:         uuid.New().String(),
		CustomerID: req.CustomerID,
		SellerID:   b.OwnerID,
		Address:    req.Address,
		Lines: []Line{{
			BikeID:   req.BikeID,
			Quantity: req.Quantity,
			Months:   req.Months,
		}},
		Price:   cost.Price,
		Deposit: cost.Deposit,
		Total:   cost.Total,
		Payment: req.Payment,
		Status:  StatusProcessing,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		s.release(ctx, req.BikeID, req.Quantity)
		return nil, errors.Wrap(err, "create order")
	}

	return &PlaceResult{Order: o, PaymentURL: paymentURL}, nil
}

// release is the compensating action for a taken reservation. A failed
// release leaves stock under-counted, so it is logged loudly instead of
// masking the original failure.
func (s *Service) release(ctx context.Context, bikeID string, quantity int) {
	if err := s.ledger.Release(ctx, bikeID, quantity); err != nil {
		zctx.From(ctx).Error("releasing reserved stock failed",
			zap.String("bike_id", bikeID),
			zap.Int("quantity", quantity),
			zap.Error(err),
		)
	}
}

// Cancel moves the order to CANCELLED and returns its reserved stock to the
// ledger. Cancellation is allowed from any non-terminal state; cancelling a
// cancelled order fails with ErrAlreadyCancelled and a delivered order with
// ErrInvalidTransition.
func (s *Service) Cancel(ctx context.Context, orderID string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "get order")
	}

	switch o.Status {
	case StatusCancelled:
		return nil, ErrAlreadyCancelled
	case StatusDelivered:
		return nil, ErrInvalidTransition
	}

	moved, err := s.orders.UpdateStatus(ctx, orderID, o.Status, StatusCancelled)
	if err != nil {
		return nil, errors.Wrap(err, "update status")
	}
	if !moved {
		// Lost a race with another transition on the same order.
		return nil, ErrInvalidTransition
	}

	for _, line := range o.Lines {
		s.release(ctx, line.BikeID, line.Quantity)
	}

	o.Status = StatusCancelled
	return o, nil
}

// MarkDelivered moves the order from PROCESSING to DELIVERED. Any other
// current state fails: ErrNotFound when the order is absent,
// ErrInvalidTransition otherwise.
func (s *Service) MarkDelivered(ctx context.Context, orderID string) (*Order, error) {
	moved, err := s.orders.UpdateStatus(ctx, orderID, StatusProcessing, StatusDelivered)
	if err != nil {
		return nil, errors.Wrap(err, "update status")
	}
	if !moved {
		if _, err := s.orders.GetByID(ctx, orderID); err != nil {
			return nil, errors.Wrap(err, "get order")
		}
		return nil, ErrInvalidTransition
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "get order")
	}
	return o, nil
}

// Get returns the denormalized order view.
func (s *Service) Get(ctx context.Context, orderID string) (*CustomerView, error) {
	return s.orders.GetDetail(ctx, orderID)
}

// ListForCustomer returns the customer's orders, newest activity first.
func (s *Service) ListForCustomer(ctx context.Context, customerID string) ([]CustomerView, error) {
	return s.orders.ListForCustomer(ctx, customerID)
}

// ListForSeller returns the seller's orders excluding cancelled ones, newest
// activity first.
func (s *Service) ListForSeller(ctx context.Context, sellerID string) ([]SellerView, error) {
	return s.orders.ListForSeller(ctx, sellerID)
}
