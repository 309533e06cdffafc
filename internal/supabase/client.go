// Package supabase is the single remote data client: every query, mutation,
// auth call, storage call, and realtime subscription in the application goes
// through one *Client configured once from the environment. Constructing a
// second client with its own URL or key is a defect.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is the configured handle to the backend service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Config holds client configuration.
type Config struct {
	URL        string
	APIKey     string
	HTTPClient *http.Client
}

// New creates the remote data client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase: URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("supabase: APIKey is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}, nil
}

// BaseURL returns the configured backend URL.
func (c *Client) BaseURL() string { return c.baseURL }

// From starts a query builder for a table.
func (c *Client) From(table string) *Query {
	return &Query{client: c, table: table}
}

// Query builds PostgREST requests against one table.
type Query struct {
	client  *Client
	table   string
	columns string
	filters []string
	orders  []string
	limit   int
	single  bool
	token   string // user access token; row-level policy applies
}

// Select specifies columns (and embedded resources) to select.
func (q *Query) Select(columns string) *Query {
	q.columns = columns
	return q
}

// Eq adds an equality filter.
func (q *Query) Eq(column string, value any) *Query {
	q.filters = append(q.filters, fmt.Sprintf("%s=eq.%v", column, value))
	return q
}

// Neq adds a not-equal filter.
func (q *Query) Neq(column string, value any) *Query {
	q.filters = append(q.filters, fmt.Sprintf("%s=neq.%v", column, value))
	return q
}

// Gte adds a greater-than-or-equal filter.
func (q *Query) Gte(column string, value any) *Query {
	q.filters = append(q.filters, fmt.Sprintf("%s=gte.%v", column, value))
	return q
}

// Lte adds a less-than-or-equal filter.
func (q *Query) Lte(column string, value any) *Query {
	q.filters = append(q.filters, fmt.Sprintf("%s=lte.%v", column, value))
	return q
}

// In adds an IN filter.
func (q *Query) In(column string, values []string) *Query {
	q.filters = append(q.filters, fmt.Sprintf("%s=in.(%s)", column, strings.Join(values, ",")))
	return q
}

// Is adds an IS filter (for null, true, false).
func (q *Query) Is(column string, value any) *Query {
	q.filters = append(q.filters, fmt.Sprintf("%s=is.%v", column, value))
	return q
}

// Order adds an ORDER BY clause.
func (q *Query) Order(column string, ascending bool) *Query {
	dir := "asc"
	if !ascending {
		dir = "desc"
	}
	q.orders = append(q.orders, fmt.Sprintf("%s.%s", column, dir))
	return q
}

// Limit sets the LIMIT.
func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// Single expects exactly one row. A miss decodes to ErrNotFound.
func (q *Query) Single() *Query {
	q.single = true
	return q
}

// AsUser attaches a user's access token so the backend evaluates row-level
// policy for that principal instead of the client's own key.
func (q *Query) AsUser(accessToken string) *Query {
	q.token = accessToken
	return q
}

func (q *Query) params() url.Values {
	params := url.Values{}
	if q.columns != "" {
		params.Set("select", q.columns)
	}
	for _, f := range q.filters {
		parts := strings.SplitN(f, "=", 2)
		if len(parts) == 2 {
			params.Add(parts[0], parts[1])
		}
	}
	if len(q.orders) > 0 {
		params.Set("order", strings.Join(q.orders, ","))
	}
	if q.limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", q.limit))
	}
	return params
}

func (q *Query) url() string {
	reqURL := fmt.Sprintf("%s/rest/v1/%s", q.client.baseURL, q.table)
	if params := q.params(); len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	return reqURL
}

// Get executes a SELECT and decodes the result into dest (a *[]T, or *T when
// Single was requested).
func (q *Query) Get(ctx context.Context, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, q.url(), nil)
	if err != nil {
		return fmt.Errorf("supabase: create request: %w", err)
	}
	q.setHeaders(req)
	if q.single {
		req.Header.Set("Accept", "application/vnd.pgrst.object+json")
	}
	return q.client.do(req, dest)
}

// Insert executes an INSERT. When dest is non-nil the created row(s) are
// decoded into it (return=representation).
func (q *Query) Insert(ctx context.Context, data any, dest any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("supabase: marshal insert: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, q.url(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("supabase: create request: %w", err)
	}
	q.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	prefer := "return=representation"
	if dest == nil {
		prefer = "return=minimal"
	}
	req.Header.Set("Prefer", prefer)
	if q.single {
		req.Header.Set("Accept", "application/vnd.pgrst.object+json")
	}
	return q.client.do(req, dest)
}

// Update executes an UPDATE against the filtered rows.
func (q *Query) Update(ctx context.Context, data any, dest any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("supabase: marshal update: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, q.url(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("supabase: create request: %w", err)
	}
	q.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	prefer := "return=representation"
	if dest == nil {
		prefer = "return=minimal"
	}
	req.Header.Set("Prefer", prefer)
	if q.single {
		req.Header.Set("Accept", "application/vnd.pgrst.object+json")
	}
	return q.client.do(req, dest)
}

// Delete executes a DELETE against the filtered rows.
func (q *Query) Delete(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, q.url(), nil)
	if err != nil {
		return fmt.Errorf("supabase: create request: %w", err)
	}
	q.setHeaders(req)
	req.Header.Set("Prefer", "return=minimal")
	return q.client.do(req, nil)
}

func (q *Query) setHeaders(req *http.Request) {
	token := q.token
	if token == "" {
		token = q.client.apiKey
	}
	req.Header.Set("apikey", q.client.apiKey)
	req.Header.Set("Authorization", "Bearer "+token)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
}

// do runs the request and maps the response onto the error taxonomy. When
// dest is non-nil a 2xx body is JSON-decoded into it.
func (c *Client) do(req *http.Request, dest any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: req.Method + " " + req.URL.Path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: "read response", Err: err}
	}

	if resp.StatusCode >= 400 {
		return mapStatusError(resp.StatusCode, body)
	}

	if dest != nil && len(body) > 0 {
		if err := json.Unmarshal(body, dest); err != nil {
			return fmt.Errorf("supabase: decode response: %w", err)
		}
	}
	return nil
}

func mapStatusError(status int, body []byte) error {
	var errResp struct {
		Message string `json:"message"`
		Msg     string `json:"msg"`
		Error   string `json:"error"`
		Code    string `json:"code"`
	}
	_ = json.Unmarshal(body, &errResp)

	msg := errResp.Message
	if msg == "" {
		msg = errResp.Msg
	}
	if msg == "" {
		msg = errResp.Error
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		if msg != "" {
			return fmt.Errorf("%w: %s", ErrPermissionDenied, msg)
		}
		return ErrPermissionDenied
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusNotAcceptable:
		// PostgREST signals a single-row miss with 406 and code PGRST116.
		if errResp.Code == "PGRST116" || strings.Contains(msg, "0 rows") {
			return ErrNotFound
		}
	}
	return &APIError{Status: status, Code: errResp.Code, Message: msg}
}
