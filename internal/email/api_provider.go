package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultAPIBaseURL = "https://api.resend.com"

// DeliveryError is a non-2xx answer from the delivery API.
type DeliveryError struct {
	Status  int
	Message string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("email delivery: status %d: %s", e.Status, e.Message)
}

// APIProvider sends mail through the delivery service's REST API.
type APIProvider struct {
	baseURL    string
	apiKey     string
	from       string
	httpClient *http.Client
}

// APIOption configures the provider.
type APIOption func(*APIProvider)

// WithAPIBaseURL overrides the delivery endpoint (tests).
func WithAPIBaseURL(u string) APIOption {
	return func(p *APIProvider) { p.baseURL = strings.TrimSuffix(u, "/") }
}

// WithAPIHTTPClient overrides the HTTP client.
func WithAPIHTTPClient(hc *http.Client) APIOption {
	return func(p *APIProvider) { p.httpClient = hc }
}

// NewAPIProvider creates a provider sending from the given address.
func NewAPIProvider(apiKey, from string, opts ...APIOption) (*APIProvider, error) {
	if apiKey == "" {
		return nil, errors.New("email: API key is required")
	}
	if from == "" {
		return nil, errors.New("email: from address is required")
	}
	p := &APIProvider{
		baseURL:    defaultAPIBaseURL,
		apiKey:     apiKey,
		from:       from,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

// Send delivers the message. Validation failures return before any network
// traffic.
func (p *APIProvider) Send(ctx context.Context, email *Email) error {
	if err := email.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(sendRequest{
		From:    p.from,
		To:      email.To,
		Subject: email.Subject,
		HTML:    email.HTML,
		Text:    email.Text,
		ReplyTo: email.ReplyTo,
	})
	if err != nil {
		return fmt.Errorf("email: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("email: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("email: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var errResp struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &errResp)
		msg := errResp.Message
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return &DeliveryError{Status: resp.StatusCode, Message: msg}
	}
	return nil
}
