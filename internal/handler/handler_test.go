package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedalworks/bike-rental/internal/domain/auth"
	"github.com/pedalworks/bike-rental/internal/domain/bike"
	"github.com/pedalworks/bike-rental/internal/domain/identity"
	"github.com/pedalworks/bike-rental/internal/domain/review"
	"github.com/pedalworks/bike-rental/internal/domain/wishlist"
)

// --- Stubs ---

const (
	testPepper      = "unit-test-pepper"
	testCustomerKey = "customer-key"
	testSellerKey   = "seller-key"
)

func signKey(key string) string {
	mac := hmac.New(sha256.New, []byte(testPepper))
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

type stubAuthRepo struct {
	byHash map[string]*auth.Principal
}

func (s *stubAuthRepo) FindByHash(_ context.Context, hash string) (*auth.Principal, error) {
	p, ok := s.byHash[hash]
	if !ok {
		return nil, auth.ErrUnauthorized
	}
	return p, nil
}

type stubBikeRepo struct {
	bike.Repository

	byID map[string]*bike.Bike
}

func (s *stubBikeRepo) GetByID(_ context.Context, id string) (*bike.Bike, error) {
	b, ok := s.byID[id]
	if !ok {
		return nil, bike.ErrNotFound
	}
	return b, nil
}

func (s *stubBikeRepo) ListByCategory(_ context.Context, category string, _ bike.ListParams) ([]bike.Bike, error) {
	var out []bike.Bike
	for _, b := range s.byID {
		if b.Category == category {
			out = append(out, *b)
		}
	}
	return out, nil
}

type stubReviewRepo struct {
	review.Repository

	created []*review.Review
}

func (s *stubReviewRepo) Create(_ context.Context, r *review.Review) error {
	s.created = append(s.created, r)
	return nil
}

func (s *stubReviewRepo) ListForBike(_ context.Context, _ string) ([]review.View, error) {
	return nil, nil
}

func (s *stubReviewRepo) Summarize(_ context.Context, _ string) (review.Summary, error) {
	return review.Summary{}, nil
}

type stubWishlistRepo struct {
	wishlist.Repository

	added []string
}

func (s *stubWishlistRepo) Add(_ context.Context, _, bikeID string) error {
	s.added = append(s.added, bikeID)
	return nil
}

type stubIdentityRepo struct {
	customers map[string]*identity.Customer
	sellers   map[string]*identity.Seller
}

func (s *stubIdentityRepo) GetCustomer(_ context.Context, id string) (*identity.Customer, error) {
	c, ok := s.customers[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return c, nil
}

func (s *stubIdentityRepo) GetSeller(_ context.Context, id string) (*identity.Seller, error) {
	sl, ok := s.sellers[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return sl, nil
}

type testAPI struct {
	routes    http.Handler
	reviews   *stubReviewRepo
	wishlists *stubWishlistRepo
}

func newTestAPI(bikes map[string]*bike.Bike) *testAPI {
	reviews := &stubReviewRepo{}
	wishlists := &stubWishlistRepo{}
	identities := &stubIdentityRepo{
		customers: map[string]*identity.Customer{
			"c1": {ID: "c1", Username: "rider", Email: "rider@example.com"},
		},
		sellers: map[string]*identity.Seller{
			"s1": {ID: "s1", Name: "City Wheels", Email: "shop@example.com"},
		},
	}

	h := NewHandler(Config{}, &stubBikeRepo{byID: bikes}, nil, nil, reviews, wishlists, nil, identities)
	sec := NewSecurity(&stubAuthRepo{byHash: map[string]*auth.Principal{
		signKey(testCustomerKey): {ID: "k1", KeyHash: signKey(testCustomerKey), Role: auth.RoleCustomer, SubjectID: "c1"},
		signKey(testSellerKey):   {ID: "k2", KeyHash: signKey(testSellerKey), Role: auth.RoleSeller, SubjectID: "s1"},
	}}, []byte(testPepper))

	return &testAPI{routes: h.Routes(sec), reviews: reviews, wishlists: wishlists}
}

func (a *testAPI) do(method, path, apiKey string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set(APIKeyHeader, apiKey)
	}
	w := httptest.NewRecorder()
	a.routes.ServeHTTP(w, req)
	return w
}

func testBike(id, category string) *bike.Bike {
	return &bike.Bike{
		ID:       id,
		Name:     "Test " + id,
		Category: category,
		Price:    decimal.NewFromInt(40),
		Deposit:  decimal.NewFromInt(100),
		Stock:    3,
		OwnerID:  "s1",
	}
}

// --- Tests ---

// Registering the full route table must not conflict under the mux's pattern
// precedence rules, and the category and per-bike-review patterns must both
// dispatch to their own handlers.
func TestRoutes_RegisterAndDispatch(t *testing.T) {
	api := newTestAPI(map[string]*bike.Bike{
		"b1": testBike("b1", "city"),
	})

	w := api.do(http.MethodGet, "/api/categories/city/bikes", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var listBody struct {
		Data []bikeResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listBody))
	require.Len(t, listBody.Data, 1)
	assert.Equal(t, "b1", listBody.Data[0].ID)

	w = api.do(http.MethodGet, "/api/bikes/b1/reviews", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthenticate_StatusCodes(t *testing.T) {
	api := newTestAPI(nil)

	// No key.
	w := api.do(http.MethodGet, "/api/cart", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Unknown key.
	w = api.do(http.MethodGet, "/api/cart", "not-a-key", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Customer key on a seller route.
	w = api.do(http.MethodGet, "/api/dashboard/summary", testCustomerKey, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAddReview_UnknownBike(t *testing.T) {
	api := newTestAPI(nil)

	w := api.do(http.MethodPost, "/api/bikes/ghost/reviews", testCustomerKey,
		`{"content":"smooth ride","rating":4}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, api.reviews.created, "no review row may be written for a missing bike")
}

func TestAddReview_ExistingBike(t *testing.T) {
	api := newTestAPI(map[string]*bike.Bike{"b1": testBike("b1", "city")})

	w := api.do(http.MethodPost, "/api/bikes/b1/reviews", testCustomerKey,
		`{"content":"smooth ride","rating":4}`)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, api.reviews.created, 1)
	assert.Equal(t, "b1", api.reviews.created[0].BikeID)
	assert.Equal(t, "c1", api.reviews.created[0].CustomerID)
}

func TestAddToWishlist_UnknownBike(t *testing.T) {
	api := newTestAPI(nil)

	w := api.do(http.MethodPost, "/api/wishlist/ghost", testCustomerKey, "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, api.wishlists.added)
}

func TestAddToWishlist_ExistingBike(t *testing.T) {
	api := newTestAPI(map[string]*bike.Bike{"b1": testBike("b1", "city")})

	w := api.do(http.MethodPost, "/api/wishlist/b1", testCustomerKey, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"b1"}, api.wishlists.added)
}

func TestGetProfile(t *testing.T) {
	api := newTestAPI(nil)

	w := api.do(http.MethodGet, "/api/me", testCustomerKey, "")
	require.Equal(t, http.StatusOK, w.Code)

	var customerBody struct {
		Data customerResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &customerBody))
	assert.Equal(t, "c1", customerBody.Data.ID)
	assert.Equal(t, "rider", customerBody.Data.Username)

	w = api.do(http.MethodGet, "/api/me", testSellerKey, "")
	require.Equal(t, http.StatusOK, w.Code)

	var sellerBody struct {
		Data sellerResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sellerBody))
	assert.Equal(t, "s1", sellerBody.Data.ID)
	assert.Equal(t, "City Wheels", sellerBody.Data.Name)
}
