// Package authgate decides what an incoming session is allowed to see:
// nothing (back to login), the forced password-change flow, or one of the
// two role dashboards.
package authgate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"peakform/coach-app/internal/domain"
	"peakform/coach-app/internal/service"
	"peakform/coach-app/internal/supabase"

	"github.com/golang-jwt/jwt/v4"
)

// Route is the top-level view selection for a resolved session.
type Route string

const (
	RouteLogin           Route = "login"
	RoutePasswordChange  Route = "password_change"
	RouteCoachDashboard  Route = "coach_dashboard"
	RouteClientDashboard Route = "client_dashboard"
)

// FirstLoginWindow is the age under which a coach account is considered
// fresh from invitation and must change its password before anything else.
const FirstLoginWindow = 5 * time.Minute

var (
	ErrSessionExpired = errors.New("session has expired")
	ErrSessionInvalid = errors.New("session token is not valid")
	// ErrProfileMissing covers a sessioned user with no profile row. That
	// state is an error surface, never a silently authenticated user.
	ErrProfileMissing = errors.New("authenticated user has no profile")
)

// Resolution is the outcome of resolving a session.
type Resolution struct {
	Route   Route
	Profile *domain.Profile
	Session *supabase.Session
}

// Gate resolves sessions into routes.
type Gate struct {
	sb        *supabase.Client
	jwtSecret string
	now       func() time.Time
}

// New creates a gate verifying session tokens with the backend's JWT secret.
func New(sb *supabase.Client, jwtSecret string) *Gate {
	return &Gate{sb: sb, jwtSecret: jwtSecret, now: time.Now}
}

// Resolve routes a session. A nil or empty session routes to login; an
// expired one is refreshed when possible and otherwise routes to login; a
// live session without a profile is an error.
func (g *Gate) Resolve(ctx context.Context, session *supabase.Session) (*Resolution, error) {
	if session == nil || session.AccessToken == "" {
		return &Resolution{Route: RouteLogin}, nil
	}

	claims, err := g.introspect(session.AccessToken)
	if errors.Is(err, ErrSessionExpired) {
		if session.RefreshToken == "" {
			return &Resolution{Route: RouteLogin}, nil
		}
		refreshed, refreshErr := g.sb.Auth().RefreshSession(ctx, session.RefreshToken)
		if refreshErr != nil {
			return &Resolution{Route: RouteLogin}, nil
		}
		session = refreshed
		claims, err = g.introspect(session.AccessToken)
	}
	if err != nil {
		return nil, err
	}

	profiles := service.NewProfileService(g.sb, session.AccessToken)
	profile, err := profiles.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrProfileMissing, claims.Subject)
		}
		return nil, err
	}

	resolution := &Resolution{Profile: profile, Session: session}
	switch {
	case profile.IsCoach() && g.isFirstLogin(profile):
		resolution.Route = RoutePasswordChange
	case profile.IsCoach():
		resolution.Route = RouteCoachDashboard
	case profile.IsClient():
		resolution.Route = RouteClientDashboard
	default:
		return nil, fmt.Errorf("profile %s has unknown role %q", profile.ID, profile.Role)
	}
	return resolution, nil
}

// ChangePassword completes the forced password-change flow. It re-checks
// session validity first: the flow can sit open long enough for the session
// to die under it.
func (g *Gate) ChangePassword(ctx context.Context, session *supabase.Session, newPassword string) error {
	if session == nil || session.AccessToken == "" {
		return ErrSessionInvalid
	}
	if _, err := g.introspect(session.AccessToken); err != nil {
		return err
	}
	if len(newPassword) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	return g.sb.Auth().UpdatePassword(ctx, session.AccessToken, newPassword)
}

// isFirstLogin derives the forced-change condition from account age rather
// than a stored flag: invited coaches arrive with a generated password and
// a profile created moments earlier.
func (g *Gate) isFirstLogin(profile *domain.Profile) bool {
	if profile.CreatedAt.IsZero() {
		return false
	}
	return g.now().Sub(profile.CreatedAt) < FirstLoginWindow
}

func (g *Gate) introspect(accessToken string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(accessToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(g.jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrSessionInvalid, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrSessionInvalid
	}
	return claims, nil
}
