// Package billing talks to the payment provider's REST API for checkout
// sessions. Provider failures surface as a structured error that handlers
// log in full and show to end users as a generic failure.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.stripe.com"

var ErrSessionNotFound = errors.New("checkout session not found")

// ProviderError is a non-2xx answer from the payment provider.
type ProviderError struct {
	Status  int
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider: status %d code %q: %s", e.Status, e.Code, e.Message)
}

// CheckoutSession is the provider's checkout session, narrowed to the
// fields the application uses.
type CheckoutSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	CustomerEmail string `json:"customer_email"`
	AmountTotal   int64  `json:"amount_total"`
	Currency      string `json:"currency"`
	ClientRefID   string `json:"client_reference_id"`
}

// CreateParams shapes a checkout-session creation.
type CreateParams struct {
	PriceID       string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	// ClientRefID carries the coach profile id so the completed session can
	// be tied back to the subscribing account.
	ClientRefID string
}

// Client calls the payment provider.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithBaseURL overrides the provider endpoint (tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a billing client from the provider secret key.
func New(secretKey string, opts ...Option) (*Client, error) {
	if secretKey == "" {
		return nil, errors.New("billing: secret key is required")
	}
	c := &Client{
		baseURL:    defaultBaseURL,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CreateCheckoutSession starts a subscription checkout.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CreateParams) (*CheckoutSession, error) {
	if params.PriceID == "" {
		return nil, errors.New("billing: price id is required")
	}
	if params.SuccessURL == "" || params.CancelURL == "" {
		return nil, errors.New("billing: success and cancel URLs are required")
	}

	form := url.Values{}
	form.Set("mode", "subscription")
	form.Set("line_items[0][price]", params.PriceID)
	form.Set("line_items[0][quantity]", "1")
	form.Set("success_url", params.SuccessURL)
	form.Set("cancel_url", params.CancelURL)
	if params.CustomerEmail != "" {
		form.Set("customer_email", params.CustomerEmail)
	}
	if params.ClientRefID != "" {
		form.Set("client_reference_id", params.ClientRefID)
	}

	var session CheckoutSession
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", form, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetCheckoutSession retrieves a checkout session by id.
func (c *Client) GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	if id == "" {
		return nil, errors.New("billing: session id is required")
	}

	var session CheckoutSession
	err := c.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+url.PathEscape(id), nil, &session)
	if err != nil {
		var pe *ProviderError
		if errors.As(err, &pe) && pe.Status == http.StatusNotFound {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, dest any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("billing: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("billing: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("billing: read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(raw, &errResp)
		return &ProviderError{
			Status:  resp.StatusCode,
			Code:    errResp.Error.Code,
			Message: errResp.Error.Message,
		}
	}

	if dest != nil {
		if err := json.Unmarshal(raw, dest); err != nil {
			return fmt.Errorf("billing: decode response: %w", err)
		}
	}
	return nil
}
