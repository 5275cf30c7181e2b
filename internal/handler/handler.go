// Package handler exposes the rental service over HTTP. Routes are registered
// on a stdlib mux with method patterns; responses use a uniform JSON envelope.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/pedalworks/bike-rental/internal/dashboard"
	"github.com/pedalworks/bike-rental/internal/domain/auth"
	"github.com/pedalworks/bike-rental/internal/domain/bike"
	"github.com/pedalworks/bike-rental/internal/domain/cart"
	"github.com/pedalworks/bike-rental/internal/domain/identity"
	"github.com/pedalworks/bike-rental/internal/domain/order"
	"github.com/pedalworks/bike-rental/internal/domain/review"
	"github.com/pedalworks/bike-rental/internal/domain/wishlist"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in bike responses.
	// When empty, image paths are returned as stored in the database.
	ImageBaseURL string
}

// Handler serves the API routes, delegating business logic to the domain
// services and repositories.
type Handler struct {
	bikes        bike.Repository
	cartService  *cart.Service
	orderService *order.Service
	reviews      review.Repository
	wishlists    wishlist.Repository
	dashboards   *dashboard.Service
	identities   identity.Repository
	imageBaseURL string
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	cfg Config,
	bikes bike.Repository,
	cartService *cart.Service,
	orderService *order.Service,
	reviews review.Repository,
	wishlists wishlist.Repository,
	dashboards *dashboard.Service,
	identities identity.Repository,
) *Handler {
	return &Handler{
		bikes:        bikes,
		cartService:  cartService,
		orderService: orderService,
		reviews:      reviews,
		wishlists:    wishlists,
		dashboards:   dashboards,
		identities:   identities,
		imageBaseURL: cfg.ImageBaseURL,
	}
}

// Routes registers all API routes on a new mux. Catalog and review reads are
// public; everything else requires an API key, and seller routes additionally
// require the seller role.
func (h *Handler) Routes(sec *Security) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/bikes", h.ListBikes)
	mux.HandleFunc("GET /api/bikes/{bikeID}", h.GetBike)
	mux.HandleFunc("GET /api/categories/{category}/bikes", h.ListBikesByCategory)
	mux.HandleFunc("GET /api/bikes/{bikeID}/reviews", h.ListReviews)

	authed := func(fn http.HandlerFunc) http.Handler {
		return sec.Authenticate(fn)
	}
	seller := func(fn http.HandlerFunc) http.Handler {
		return sec.Authenticate(requireRole(auth.RoleSeller, fn))
	}

	mux.Handle("POST /api/bikes", seller(h.CreateBike))
	mux.Handle("PATCH /api/bikes/{bikeID}", seller(h.UpdateBike))
	mux.Handle("PATCH /api/bikes/{bikeID}/stock", seller(h.SetBikeStock))
	mux.Handle("DELETE /api/bikes/{bikeID}", seller(h.DeleteBike))
	mux.Handle("GET /api/seller/bikes", seller(h.ListOwnBikes))

	mux.Handle("GET /api/cart", authed(h.GetCart))
	mux.Handle("POST /api/cart/{bikeID}", authed(h.AddCartLine))
	mux.Handle("PATCH /api/cart/{bikeID}/increment", authed(h.IncrementCartLine))
	mux.Handle("PATCH /api/cart/{bikeID}/decrement", authed(h.DecrementCartLine))
	mux.Handle("DELETE /api/cart/{bikeID}", authed(h.RemoveCartLine))

	mux.Handle("POST /api/orders/{bikeID}", authed(h.PlaceOrder))
	mux.Handle("GET /api/orders", authed(h.ListOrders))
	mux.Handle("GET /api/orders/{orderID}", authed(h.GetOrder))
	mux.Handle("PATCH /api/orders/{orderID}/cancel", authed(h.CancelOrder))
	mux.Handle("PATCH /api/orders/{orderID}/deliver", seller(h.DeliverOrder))
	mux.Handle("GET /api/seller/orders", seller(h.ListSellerOrders))

	mux.Handle("POST /api/bikes/{bikeID}/reviews", authed(h.AddReview))
	mux.Handle("DELETE /api/reviews/{reviewID}", authed(h.DeleteReview))

	mux.Handle("GET /api/wishlist", authed(h.GetWishlist))
	mux.Handle("POST /api/wishlist/{bikeID}", authed(h.AddToWishlist))
	mux.Handle("DELETE /api/wishlist/{bikeID}", authed(h.RemoveFromWishlist))

	mux.Handle("GET /api/me", authed(h.GetProfile))

	mux.Handle("GET /api/dashboard/summary", seller(h.DashboardSummary))

	return mux
}

// envelope is the uniform response body. Data is omitted on errors.
type envelope struct {
	Code    int    `json:"code"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message"`
}

func writeData(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{
		Code:    status,
		Data:    data,
		Message: "success",
	}); err != nil {
		zctx.From(r.Context()).Error("encoding response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := mapError(err)
	if status == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{
		Code:    status,
		Message: message,
	})
}

const maxBodyBytes = 1 << 20

// decodeJSON reads a bounded JSON request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errBadBody
	}
	return nil
}
