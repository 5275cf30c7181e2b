package handler

import (
	"net/http"

	"github.com/go-faster/errors"

	"github.com/pedalworks/bike-rental/internal/domain/bike"
	"github.com/pedalworks/bike-rental/internal/domain/cart"
	"github.com/pedalworks/bike-rental/internal/domain/identity"
	"github.com/pedalworks/bike-rental/internal/domain/inventory"
	"github.com/pedalworks/bike-rental/internal/domain/order"
	"github.com/pedalworks/bike-rental/internal/domain/pricing"
	"github.com/pedalworks/bike-rental/internal/domain/review"
	"github.com/pedalworks/bike-rental/internal/domain/wishlist"
)

var (
	errBadBody      = errors.New("malformed request body")
	errRoleRequired = errors.New("seller role required")
)

// mapError converts a domain error into a status code and client-safe
// message. Unknown errors become a generic 500; the original is logged by the
// caller, never leaked.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, errBadBody),
		errors.Is(err, order.ErrMissingAddress),
		errors.Is(err, order.ErrInvalidPayment):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, errRoleRequired):
		return http.StatusForbidden, err.Error()

	case errors.Is(err, bike.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, cart.ErrLineNotFound),
		errors.Is(err, review.ErrNotFound),
		errors.Is(err, wishlist.ErrNotInWishlist),
		errors.Is(err, identity.ErrNotFound):
		return http.StatusNotFound, err.Error()

	case errors.Is(err, order.ErrAlreadyCancelled),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrDuplicateRequest):
		return http.StatusConflict, err.Error()

	case errors.Is(err, inventory.ErrInsufficientStock),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, pricing.ErrInvalidInput),
		errors.Is(err, review.ErrMissingContent),
		errors.Is(err, review.ErrInvalidRating):
		return http.StatusUnprocessableEntity, err.Error()

	case errors.Is(err, order.ErrPaymentFailed):
		return http.StatusBadGateway, err.Error()
	}

	return http.StatusInternalServerError, "internal server error"
}
