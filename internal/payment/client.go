// Package payment implements the checkout-session gateway adapter. It speaks
// a Stripe-shaped API: form-encoded session creation with bearer auth, JSON
// response carrying the hosted payment page URL.
package payment

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/pedalworks/bike-rental/internal/domain/order"
)

var _ order.PaymentGateway = (*Client)(nil)

// Config holds the gateway endpoint and checkout presentation settings.
type Config struct {
	// BaseURL is the gateway API root, e.g. https://api.stripe.com.
	BaseURL string
	// SecretKey authenticates requests as a bearer token.
	SecretKey string
	// Currency is the ISO currency code for all sessions.
	Currency string
	// SuccessURL and CancelURL are where the gateway redirects the customer
	// after checkout.
	SuccessURL string
	CancelURL  string
	// Timeout bounds each session-creation call. Zero means 10 seconds.
	Timeout time.Duration
}

// Client creates hosted checkout sessions over HTTP.
type Client struct {
	cfg   Config
	httpc *http.Client
}

// NewClient creates a gateway client from cfg.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:   cfg,
		httpc: &http.Client{Timeout: timeout},
	}
}

// sessionResponse is the subset of the gateway's session object we consume.
type sessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateCheckoutSession creates a single-line-item payment session and
// returns the hosted checkout URL. The amount is the full line total; the
// gateway expects it in minor units.
func (c *Client) CreateCheckoutSession(ctx context.Context, description string, amount decimal.Decimal, quantity int) (string, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("line_items[0][quantity]", strconv.Itoa(quantity))
	form.Set("line_items[0][price_data][currency]", c.cfg.Currency)
	form.Set("line_items[0][price_data][product_data][name]", description)
	form.Set("line_items[0][price_data][unit_amount]", minorUnits(amount, quantity))
	form.Set("success_url", c.cfg.SuccessURL)
	form.Set("cancel_url", c.cfg.CancelURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "create checkout session")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.Wrap(err, "read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.Errorf("gateway returned status %d", resp.StatusCode)
	}

	var session sessionResponse
	if err := json.Unmarshal(body, &session); err != nil {
		return "", errors.Wrap(err, "decode session")
	}
	if session.URL == "" {
		return "", errors.New("gateway returned session without redirect URL")
	}
	return session.URL, nil
}

// minorUnits converts a per-order total into the per-unit minor-unit amount
// the gateway expects. The remainder of an uneven split lands on the unit
// price rounded up, matching how the total was quoted to the customer.
func minorUnits(total decimal.Decimal, quantity int) string {
	perUnit := total.Div(decimal.NewFromInt(int64(quantity)))
	return perUnit.Shift(2).Ceil().String()
}
