package billing

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBilling(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New("sk_test_123", WithBaseURL(srv.URL))
	require.NoError(t, err)
	return client
}

func TestNewRequiresSecretKey(t *testing.T) {
	_, err := New("")
	require.Error(t, err)
}

func TestCreateCheckoutSessionSendsForm(t *testing.T) {
	var gotAuth, gotContentType string
	var gotForm url.Values
	client := newTestBilling(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotForm, _ = url.ParseQuery(string(body))
		w.Write([]byte(`{"id":"cs_1","url":"https://pay.example/cs_1","status":"open","payment_status":"unpaid"}`))
	})

	session, err := client.CreateCheckoutSession(context.Background(), CreateParams{
		PriceID:       "price_pro_monthly",
		CustomerEmail: "coach@example.com",
		SuccessURL:    "https://app.example.com/success",
		CancelURL:     "https://app.example.com/cancel",
		ClientRefID:   "coach-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_1", session.ID)
	assert.Equal(t, "https://pay.example/cs_1", session.URL)

	assert.Equal(t, "Bearer sk_test_123", gotAuth)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Equal(t, "subscription", gotForm.Get("mode"))
	assert.Equal(t, "price_pro_monthly", gotForm.Get("line_items[0][price]"))
	assert.Equal(t, "1", gotForm.Get("line_items[0][quantity]"))
	assert.Equal(t, "coach-1", gotForm.Get("client_reference_id"))
}

func TestCreateCheckoutSessionValidatesParams(t *testing.T) {
	client := newTestBilling(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	})

	_, err := client.CreateCheckoutSession(context.Background(), CreateParams{
		SuccessURL: "https://a", CancelURL: "https://b",
	})
	require.Error(t, err)

	_, err = client.CreateCheckoutSession(context.Background(), CreateParams{PriceID: "price_1"})
	require.Error(t, err)
}

func TestGetCheckoutSession(t *testing.T) {
	var gotPath string
	client := newTestBilling(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"id":"cs_1","status":"complete","payment_status":"paid"}`))
	})

	session, err := client.GetCheckoutSession(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.Equal(t, "/v1/checkout/sessions/cs_1", gotPath)
	assert.Equal(t, "paid", session.PaymentStatus)
}

func TestGetCheckoutSessionNotFound(t *testing.T) {
	client := newTestBilling(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"code":"resource_missing","message":"No such checkout session"}}`))
	})

	_, err := client.GetCheckoutSession(context.Background(), "cs_missing")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestProviderErrorCarriesDetails(t *testing.T) {
	client := newTestBilling(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"code":"card_declined","message":"Your card was declined."}}`))
	})

	_, err := client.CreateCheckoutSession(context.Background(), CreateParams{
		PriceID: "price_1", SuccessURL: "https://a", CancelURL: "https://b",
	})
	require.Error(t, err)

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusPaymentRequired, pe.Status)
	assert.Equal(t, "card_declined", pe.Code)
	assert.Equal(t, "Your card was declined.", pe.Message)
}
