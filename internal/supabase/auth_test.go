package supabase

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignInWithPassword(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "test-key", r.Header.Get("apikey"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "coach@example.com", body["email"])

		w.Write([]byte(`{"access_token":"at","refresh_token":"rt","user":{"id":"u1","email":"coach@example.com"}}`))
	})

	session, err := client.Auth().SignInWithPassword(context.Background(), "coach@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "at", session.AccessToken)
	assert.Equal(t, "u1", session.User.ID)
}

func TestSignInWithPasswordBadCredentials(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Invalid login credentials"}`))
	})

	_, err := client.Auth().SignInWithPassword(context.Background(), "coach@example.com", "wrong")
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestAdminCreateUserUsesServiceAuth(t *testing.T) {
	var gotBody []byte
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/admin/users", r.URL.Path)
		// No session token on admin calls; the API key is the bearer.
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"id":"u2","email":"client@example.com"}`))
	})

	user, err := client.Auth().AdminCreateUser(context.Background(), AdminCreateUserParams{
		Email:        "client@example.com",
		Password:     "temp",
		EmailConfirm: true,
		UserMetadata: map[string]any{"role": "client"},
	})
	require.NoError(t, err)
	assert.Equal(t, "u2", user.ID)

	var body map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &body))
	assert.Equal(t, true, body["email_confirm"])
}

func TestAdminDeleteUser(t *testing.T) {
	var gotMethod, gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(`{}`))
	})

	err := client.Auth().AdminDeleteUser(context.Background(), "u2")
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/auth/v1/admin/users/u2", gotPath)
}

func TestAdminGenerateLink(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/admin/generate_link", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "magiclink", body["type"])
		assert.Equal(t, "https://app.example.com/dashboard", body["redirect_to"])

		w.Write([]byte(`{"action_link":"https://backend.example/verify?token=x"}`))
	})

	link, err := client.Auth().AdminGenerateLink(context.Background(), "magiclink", "client@example.com", "https://app.example.com/dashboard")
	require.NoError(t, err)
	assert.Equal(t, "https://backend.example/verify?token=x", link.ActionLink)
}

func TestUpdatePasswordUsesSessionToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		assert.Equal(t, "Bearer session-token", r.Header.Get("Authorization"))
		w.Write([]byte(`{}`))
	})

	err := client.Auth().UpdatePassword(context.Background(), "session-token", "newpassword")
	require.NoError(t, err)
}
