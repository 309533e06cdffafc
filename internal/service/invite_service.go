package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"peakform/coach-app/internal/domain"
	"peakform/coach-app/internal/email"
	"peakform/coach-app/internal/logger"
	"peakform/coach-app/internal/supabase"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// InvitationTTL is how long an invitation link stays usable.
const InvitationTTL = 7 * 24 * time.Hour

var (
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrInvitationExpired  = errors.New("invitation has expired")
	ErrInvitationUsed     = errors.New("invitation was already accepted")
	ErrInvitationToken    = errors.New("invitation token does not match")
)

// InviteResult carries what the caller needs after issuing an invitation.
// The raw token and temporary password appear here once and are never stored.
type InviteResult struct {
	Invitation   *domain.Invitation
	UserID       string
	AcceptURL    string
	TempPassword string
}

// InviteParams shapes an invitation.
type InviteParams struct {
	Email     string
	FirstName string
	LastName  string
	Role      domain.Role
	// CoachID links a client invitation to the inviting coach's roster.
	CoachID string
	// CoachName appears in the invitation email.
	CoachName string
	// InvitedBy is the principal issuing the invitation, recorded for audit.
	InvitedBy string
}

// InviteService creates accounts by invitation. Every created account leaves
// an invitation row behind; account creation without one does not exist.
type InviteService interface {
	Invite(ctx context.Context, params InviteParams) (*InviteResult, error)
	// Accept validates a raw invitation token and marks the row accepted.
	Accept(ctx context.Context, token string) (*domain.Invitation, error)
}

type inviteService struct {
	sb      *supabase.Client
	mail    email.Provider
	baseURL string
	now     func() time.Time
}

// NewInviteService creates an invite service. It acts with the client's
// configured key, which must be the service key for the admin auth calls.
func NewInviteService(sb *supabase.Client, mail email.Provider, appBaseURL string) InviteService {
	return &inviteService{
		sb:      sb,
		mail:    mail,
		baseURL: strings.TrimSuffix(appBaseURL, "/"),
		now:     time.Now,
	}
}

func (s *inviteService) Invite(ctx context.Context, params InviteParams) (*InviteResult, error) {
	if params.Email == "" {
		return nil, errors.New("invitation email is required")
	}
	if params.Role != domain.RoleCoach && params.Role != domain.RoleClient {
		return nil, fmt.Errorf("invitation role %q is not valid", params.Role)
	}

	tempPassword, err := randomSecret(12)
	if err != nil {
		return nil, fmt.Errorf("generate password: %w", err)
	}

	user, err := s.sb.Auth().AdminCreateUser(ctx, supabase.AdminCreateUserParams{
		Email:        params.Email,
		Password:     tempPassword,
		EmailConfirm: true,
		UserMetadata: map[string]any{
			"role":       string(params.Role),
			"first_name": params.FirstName,
			"last_name":  params.LastName,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create invited user: %w", err)
	}

	secret, err := randomSecret(24)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash token: %w", err)
	}

	row := map[string]any{
		"id":         uuid.NewString(),
		"email":      params.Email,
		"role":       params.Role,
		"token_hash": string(hash),
		"invited_by": params.InvitedBy,
		"expires_at": s.now().Add(InvitationTTL).UTC().Format(time.RFC3339),
	}
	if params.CoachID != "" {
		row["coach_id"] = params.CoachID
	}

	var invitation domain.Invitation
	if err := s.sb.From("invitations").Single().Insert(ctx, row, &invitation); err != nil {
		// The auth user exists but the audit row does not; that account must
		// not survive.
		if delErr := s.sb.Auth().AdminDeleteUser(context.WithoutCancel(ctx), user.ID); delErr != nil {
			logger.Warn("invited user cleanup failed", "user_id", user.ID, "error", delErr)
		}
		return nil, fmt.Errorf("record invitation for user %s: %w", user.ID, err)
	}

	result := &InviteResult{
		Invitation:   &invitation,
		UserID:       user.ID,
		AcceptURL:    fmt.Sprintf("%s/invite/%s.%s", s.baseURL, invitation.ID, secret),
		TempPassword: tempPassword,
	}

	if s.mail != nil {
		if err := s.sendInvitationMail(ctx, params, result); err != nil {
			// The account and audit row are in place; delivery can be retried.
			logger.Warn("invitation email failed", "email", params.Email, "error", err)
		}
	}
	return result, nil
}

func (s *inviteService) Accept(ctx context.Context, token string) (*domain.Invitation, error) {
	id, secret, ok := strings.Cut(token, ".")
	if !ok || id == "" || secret == "" {
		return nil, ErrInvitationToken
	}

	var invitation domain.Invitation
	err := s.sb.From("invitations").
		Select("*").
		Eq("id", id).
		Single().
		Get(ctx, &invitation)
	if err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(invitation.TokenHash), []byte(secret)) != nil {
		return nil, ErrInvitationToken
	}
	if invitation.AcceptedAt != nil {
		return nil, ErrInvitationUsed
	}
	if invitation.Expired(s.now()) {
		return nil, ErrInvitationExpired
	}

	var accepted domain.Invitation
	err = s.sb.From("invitations").
		Eq("id", id).
		Single().
		Update(ctx, map[string]any{
			"accepted_at": s.now().UTC().Format(time.RFC3339),
		}, &accepted)
	if err != nil {
		return nil, err
	}
	return &accepted, nil
}

func (s *inviteService) sendInvitationMail(ctx context.Context, params InviteParams, result *InviteResult) error {
	coachName := params.CoachName
	if coachName == "" {
		coachName = "Your coach"
	}
	html, err := email.Render("invitation", email.TemplateData{
		RecipientName: strings.TrimSpace(params.FirstName),
		CoachName:     coachName,
		AppName:       "PeakForm",
		ActionURL:     result.AcceptURL,
		TempPassword:  result.TempPassword,
	})
	if err != nil {
		return err
	}
	return s.mail.Send(ctx, &email.Email{
		To:      []string{params.Email},
		Subject: "You have been invited to PeakForm",
		HTML:    html,
	})
}

func randomSecret(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
