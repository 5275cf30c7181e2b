package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:    baseURL,
		SecretKey:  "sk_test_123",
		Currency:   "inr",
		SuccessURL: "https://shop.example/success",
		CancelURL:  "https://shop.example/cancel",
	}
}

func TestCreateCheckoutSession(t *testing.T) {
	var gotForm map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{}
		for k := range r.PostForm {
			gotForm[k] = r.PostForm.Get(k)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_1","url":"https://pay.example/cs_test_1"}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))

	redirect, err := c.CreateCheckoutSession(context.Background(), "City Cruiser", decimal.RequireFromString("220"), 2)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/cs_test_1", redirect)

	assert.Equal(t, "payment", gotForm["mode"])
	assert.Equal(t, "2", gotForm["line_items[0][quantity]"])
	assert.Equal(t, "inr", gotForm["line_items[0][price_data][currency]"])
	assert.Equal(t, "City Cruiser", gotForm["line_items[0][price_data][product_data][name]"])
	// 220 total over 2 units = 110.00 per unit = 11000 minor units.
	assert.Equal(t, "11000", gotForm["line_items[0][price_data][unit_amount]"])
	assert.Equal(t, "https://shop.example/success", gotForm["success_url"])
	assert.Equal(t, "https://shop.example/cancel", gotForm["cancel_url"])
}

func TestCreateCheckoutSession_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"invalid key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))

	_, err := c.CreateCheckoutSession(context.Background(), "City Cruiser", decimal.RequireFromString("100"), 1)
	assert.ErrorContains(t, err, "status 401")
}

func TestCreateCheckoutSession_MissingURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"cs_test_1"}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))

	_, err := c.CreateCheckoutSession(context.Background(), "City Cruiser", decimal.RequireFromString("100"), 1)
	assert.ErrorContains(t, err, "without redirect URL")
}
