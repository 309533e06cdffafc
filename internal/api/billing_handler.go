package api

import (
	"errors"
	"fmt"
	"net/http"

	"peakform/coach-app/internal/billing"

	"github.com/gin-gonic/gin"
)

// BillingHandler exposes the checkout-session function endpoints.
type BillingHandler struct {
	billing    *billing.Client
	appBaseURL string
}

func NewBillingHandler(billingClient *billing.Client, appBaseURL string) *BillingHandler {
	return &BillingHandler{billing: billingClient, appBaseURL: appBaseURL}
}

type createCheckoutRequest struct {
	PriceID       string `json:"priceId" binding:"required"`
	CustomerEmail string `json:"customerEmail"`
}

type checkoutSessionResponse struct {
	ID            string `json:"id"`
	URL           string `json:"url,omitempty"`
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
}

// CreateCheckoutSession starts a subscription checkout for the signed-in
// coach. The provider redirect URLs always point back at the app.
func (h *BillingHandler) CreateCheckoutSession(c *gin.Context) {
	var req createCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return
	}

	session, err := h.billing.CreateCheckoutSession(c.Request.Context(), billing.CreateParams{
		PriceID:       req.PriceID,
		CustomerEmail: req.CustomerEmail,
		SuccessURL:    h.appBaseURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     h.appBaseURL + "/billing/cancelled",
		ClientRefID:   userID,
	})
	if err != nil {
		abortInternal(c, err, "Could not start checkout")
		return
	}

	respondData(c, http.StatusCreated, checkoutSessionResponse{
		ID:            session.ID,
		URL:           session.URL,
		Status:        session.Status,
		PaymentStatus: session.PaymentStatus,
	})
}

// GetCheckoutSession reports the state of a checkout session, used by the
// success page to confirm payment before unlocking the plan.
func (h *BillingHandler) GetCheckoutSession(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		abortWithError(c, http.StatusBadRequest, "Session id is required")
		return
	}

	session, err := h.billing.GetCheckoutSession(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, billing.ErrSessionNotFound) {
			abortWithError(c, http.StatusNotFound, "Checkout session not found")
			return
		}
		abortInternal(c, err, "Could not retrieve checkout session")
		return
	}

	respondData(c, http.StatusOK, checkoutSessionResponse{
		ID:            session.ID,
		URL:           session.URL,
		Status:        session.Status,
		PaymentStatus: session.PaymentStatus,
	})
}
