package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Auth returns the auth sub-client.
func (c *Client) Auth() *AuthClient {
	return &AuthClient{client: c}
}

// AuthClient handles authentication operations against the backend's auth
// service. Admin methods require the client to be configured with the service
// key; they are called only from the functions server, never from anything
// browser-facing.
type AuthClient struct {
	client *Client
}

// Session is an authenticated principal's token pair.
type Session struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	RefreshToken string    `json:"refresh_token"`
	User         *AuthUser `json:"user"`
}

// AuthUser is the auth service's view of a user (distinct from the Profile
// row the application keeps).
type AuthUser struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Role      string         `json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	Metadata  map[string]any `json:"user_metadata"`
}

// SignUp creates a new user with email and password.
func (a *AuthClient) SignUp(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	err := a.post(ctx, "/auth/v1/signup", "", map[string]string{
		"email":    email,
		"password": password,
	}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// SignInWithPassword authenticates with the password grant.
func (a *AuthClient) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	err := a.post(ctx, "/auth/v1/token?grant_type=password", "", map[string]string{
		"email":    email,
		"password": password,
	}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// RefreshSession exchanges a refresh token for a fresh session.
func (a *AuthClient) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	var session Session
	err := a.post(ctx, "/auth/v1/token?grant_type=refresh_token", "", map[string]string{
		"refresh_token": refreshToken,
	}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// GetUser fetches the user the access token belongs to.
func (a *AuthClient) GetUser(ctx context.Context, accessToken string) (*AuthUser, error) {
	reqURL := a.client.baseURL + "/auth/v1/user"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("supabase: create request: %w", err)
	}
	a.setHeaders(req, accessToken)

	var user AuthUser
	if err := a.client.do(req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdatePassword sets a new password for the sessioned user.
func (a *AuthClient) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	return a.put(ctx, "/auth/v1/user", accessToken, map[string]string{
		"password": newPassword,
	}, nil)
}

// SignOut revokes the session's refresh token.
func (a *AuthClient) SignOut(ctx context.Context, accessToken string) error {
	return a.post(ctx, "/auth/v1/logout", accessToken, struct{}{}, nil)
}

// AdminCreateUserParams shapes the admin user-creation call.
type AdminCreateUserParams struct {
	Email        string         `json:"email"`
	Password     string         `json:"password,omitempty"`
	EmailConfirm bool           `json:"email_confirm"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// AdminCreateUser creates a user directly (service key required).
func (a *AuthClient) AdminCreateUser(ctx context.Context, params AdminCreateUserParams) (*AuthUser, error) {
	var user AuthUser
	if err := a.post(ctx, "/auth/v1/admin/users", "", params, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// AdminDeleteUser removes a user directly (service key required).
func (a *AuthClient) AdminDeleteUser(ctx context.Context, userID string) error {
	reqURL := a.client.baseURL + "/auth/v1/admin/users/" + userID
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, reqURL, nil)
	if err != nil {
		return fmt.Errorf("supabase: create request: %w", err)
	}
	a.setHeaders(req, "")
	return a.client.do(req, nil)
}

// GeneratedLink is the result of an admin link generation.
type GeneratedLink struct {
	ActionLink string `json:"action_link"`
	EmailOTP   string `json:"email_otp"`
}

// AdminGenerateLink mints a magic-link/invite URL for a user (service key
// required). linkType is one of "magiclink", "invite", "recovery".
func (a *AuthClient) AdminGenerateLink(ctx context.Context, linkType, email, redirectTo string) (*GeneratedLink, error) {
	payload := map[string]string{
		"type":  linkType,
		"email": email,
	}
	if redirectTo != "" {
		payload["redirect_to"] = redirectTo
	}
	var link GeneratedLink
	if err := a.post(ctx, "/auth/v1/admin/generate_link", "", payload, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

func (a *AuthClient) post(ctx context.Context, path, accessToken string, payload, dest any) error {
	return a.send(ctx, http.MethodPost, path, accessToken, payload, dest)
}

func (a *AuthClient) put(ctx context.Context, path, accessToken string, payload, dest any) error {
	return a.send(ctx, http.MethodPut, path, accessToken, payload, dest)
}

func (a *AuthClient) send(ctx context.Context, method, path, accessToken string, payload, dest any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("supabase: marshal auth payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.client.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("supabase: create request: %w", err)
	}
	a.setHeaders(req, accessToken)
	req.Header.Set("Content-Type", "application/json")
	return a.client.do(req, dest)
}

func (a *AuthClient) setHeaders(req *http.Request, accessToken string) {
	token := accessToken
	if token == "" {
		token = a.client.apiKey
	}
	req.Header.Set("apikey", a.client.apiKey)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
}
