package authgate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"peakform/coach-app/internal/supabase"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret"

func mintToken(t *testing.T, subject string, expiresIn time.Duration) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func newGateWithBackend(t *testing.T, handler http.HandlerFunc) *Gate {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sb, err := supabase.New(supabase.Config{URL: srv.URL, APIKey: "anon-key"})
	require.NoError(t, err)
	return New(sb, testSecret)
}

func profileBody(role string, createdAt time.Time) string {
	return `{"id":"user-1","email":"u@example.com","role":"` + role +
		`","created_at":"` + createdAt.UTC().Format(time.RFC3339) + `"}`
}

func TestResolveNilSessionRoutesToLogin(t *testing.T) {
	gate := newGateWithBackend(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	})

	res, err := gate.Resolve(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, RouteLogin, res.Route)

	res, err = gate.Resolve(context.Background(), &supabase.Session{})
	require.NoError(t, err)
	assert.Equal(t, RouteLogin, res.Route)
}

func TestResolveCoachDashboard(t *testing.T) {
	gate := newGateWithBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(profileBody("coach", time.Now().Add(-24*time.Hour))))
	})

	session := &supabase.Session{AccessToken: mintToken(t, "user-1", time.Hour)}
	res, err := gate.Resolve(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, RouteCoachDashboard, res.Route)
	require.NotNil(t, res.Profile)
	assert.Equal(t, "user-1", res.Profile.ID)
}

func TestResolveClientDashboard(t *testing.T) {
	gate := newGateWithBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(profileBody("client", time.Now().Add(-24*time.Hour))))
	})

	session := &supabase.Session{AccessToken: mintToken(t, "user-1", time.Hour)}
	res, err := gate.Resolve(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, RouteClientDashboard, res.Route)
}

func TestResolveFreshCoachForcedToPasswordChange(t *testing.T) {
	gate := newGateWithBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(profileBody("coach", time.Now().Add(-2*time.Minute))))
	})

	session := &supabase.Session{AccessToken: mintToken(t, "user-1", time.Hour)}
	res, err := gate.Resolve(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, RoutePasswordChange, res.Route)
}

func TestResolveFreshClientNotForced(t *testing.T) {
	// Only invited coaches carry the forced-change window.
	gate := newGateWithBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(profileBody("client", time.Now().Add(-2*time.Minute))))
	})

	session := &supabase.Session{AccessToken: mintToken(t, "user-1", time.Hour)}
	res, err := gate.Resolve(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, RouteClientDashboard, res.Route)
}

func TestResolveExpiredWithoutRefreshRoutesToLogin(t *testing.T) {
	gate := newGateWithBackend(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	})

	session := &supabase.Session{AccessToken: mintToken(t, "user-1", -time.Minute)}
	res, err := gate.Resolve(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, RouteLogin, res.Route)
}

func TestResolveExpiredRefreshesSession(t *testing.T) {
	fresh := ""
	gate := newGateWithBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			w.Write([]byte(`{"access_token":"` + fresh + `","refresh_token":"next-refresh"}`))
		case "/rest/v1/profiles":
			w.Write([]byte(profileBody("coach", time.Now().Add(-24*time.Hour))))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})
	fresh = mintToken(t, "user-1", time.Hour)

	session := &supabase.Session{
		AccessToken:  mintToken(t, "user-1", -time.Minute),
		RefreshToken: "old-refresh",
	}
	res, err := gate.Resolve(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, RouteCoachDashboard, res.Route)
	require.NotNil(t, res.Session)
	assert.Equal(t, fresh, res.Session.AccessToken)
}

func TestResolveFailedRefreshRoutesToLogin(t *testing.T) {
	gate := newGateWithBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"refresh token revoked"}`))
	})

	session := &supabase.Session{
		AccessToken:  mintToken(t, "user-1", -time.Minute),
		RefreshToken: "revoked",
	}
	res, err := gate.Resolve(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, RouteLogin, res.Route)
}

func TestResolveSessionWithoutProfileIsError(t *testing.T) {
	gate := newGateWithBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotAcceptable)
		w.Write([]byte(`{"code":"PGRST116","message":"0 rows"}`))
	})

	session := &supabase.Session{AccessToken: mintToken(t, "user-1", time.Hour)}
	_, err := gate.Resolve(context.Background(), session)
	require.ErrorIs(t, err, ErrProfileMissing)
}

func TestResolveRejectsForgedToken(t *testing.T) {
	gate := newGateWithBackend(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	})

	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	_, err = gate.Resolve(context.Background(), &supabase.Session{AccessToken: forged})
	require.ErrorIs(t, err, ErrSessionInvalid)
}

func TestChangePassword(t *testing.T) {
	var updated bool
	gate := newGateWithBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/auth/v1/user" {
			updated = true
			w.Write([]byte(`{}`))
			return
		}
		t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	})

	session := &supabase.Session{AccessToken: mintToken(t, "user-1", time.Hour)}

	err := gate.ChangePassword(context.Background(), session, "short")
	require.Error(t, err)
	assert.False(t, updated)

	err = gate.ChangePassword(context.Background(), session, "long-enough-password")
	require.NoError(t, err)
	assert.True(t, updated)

	err = gate.ChangePassword(context.Background(), nil, "long-enough-password")
	require.ErrorIs(t, err, ErrSessionInvalid)
}
