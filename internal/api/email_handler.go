package api

import (
	"errors"
	"fmt"
	"net/http"

	"peakform/coach-app/internal/email"

	"github.com/gin-gonic/gin"
)

// EmailHandler exposes the transactional-email function endpoint.
type EmailHandler struct {
	mail email.Provider
}

func NewEmailHandler(mail email.Provider) *EmailHandler {
	return &EmailHandler{mail: mail}
}

type sendEmailRequest struct {
	To       []string           `json:"to" binding:"required"`
	Subject  string             `json:"subject" binding:"required"`
	Template string             `json:"template"`
	Data     email.TemplateData `json:"data"`
	HTML     string             `json:"html"`
	Text     string             `json:"text"`
}

// SendEmail delivers one transactional message, either from a named built-in
// template or from a raw body.
func (h *EmailHandler) SendEmail(c *gin.Context) {
	var req sendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	html := req.HTML
	if req.Template != "" {
		rendered, err := email.Render(req.Template, req.Data)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Template error: %v", err))
			return
		}
		html = rendered
	}

	msg := &email.Email{
		To:      req.To,
		Subject: req.Subject,
		HTML:    html,
		Text:    req.Text,
	}
	if err := h.mail.Send(c.Request.Context(), msg); err != nil {
		if errors.Is(err, email.ErrMissingRecipient) ||
			errors.Is(err, email.ErrMissingSubject) ||
			errors.Is(err, email.ErrMissingBody) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		abortInternal(c, err, "Could not send email")
		return
	}

	respondData(c, http.StatusOK, gin.H{"delivered": len(req.To)})
}
