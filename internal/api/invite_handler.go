package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"peakform/coach-app/internal/domain"
	"peakform/coach-app/internal/service"

	"github.com/gin-gonic/gin"
)

// InviteHandler exposes the invitation function endpoints.
type InviteHandler struct {
	invites service.InviteService
}

func NewInviteHandler(invites service.InviteService) *InviteHandler {
	return &InviteHandler{invites: invites}
}

type inviteRequest struct {
	Email     string      `json:"email" binding:"required,email"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Role      domain.Role `json:"role" binding:"required"`
	CoachName string      `json:"coachName"`
}

type inviteResponse struct {
	InvitationID string `json:"invitationId"`
	UserID       string `json:"userId"`
	AcceptURL    string `json:"acceptUrl"`
	ExpiresAt    string `json:"expiresAt"`
}

// CreateInvitation creates an account on the invitee's behalf and records
// the invitation. Coaches only; client invitations join the coach's roster.
func (h *InviteHandler) CreateInvitation(c *gin.Context) {
	var req inviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	if req.Role != domain.RoleCoach && req.Role != domain.RoleClient {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Role %q is not valid", req.Role))
		return
	}

	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user.")
		return
	}

	params := service.InviteParams{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		CoachName: req.CoachName,
		InvitedBy: userID,
	}
	if req.Role == domain.RoleClient {
		params.CoachID = userID
	}

	result, err := h.invites.Invite(c.Request.Context(), params)
	if err != nil {
		abortInternal(c, err, "Could not create invitation")
		return
	}

	respondData(c, http.StatusCreated, inviteResponse{
		InvitationID: result.Invitation.ID,
		UserID:       result.UserID,
		AcceptURL:    result.AcceptURL,
		ExpiresAt:    result.Invitation.ExpiresAt.Format(time.RFC3339),
	})
}

// AcceptInvitation validates an invitation token from the emailed link and
// marks it used.
func (h *InviteHandler) AcceptInvitation(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		abortWithError(c, http.StatusBadRequest, "Invitation token is required")
		return
	}

	invitation, err := h.invites.Accept(c.Request.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvitationNotFound), errors.Is(err, service.ErrInvitationToken):
			abortWithError(c, http.StatusNotFound, "Invitation not found")
		case errors.Is(err, service.ErrInvitationExpired):
			abortWithError(c, http.StatusGone, "Invitation has expired")
		case errors.Is(err, service.ErrInvitationUsed):
			abortWithError(c, http.StatusConflict, "Invitation was already accepted")
		default:
			abortInternal(c, err, "Could not accept invitation")
		}
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"email": invitation.Email,
		"role":  invitation.Role,
	})
}
