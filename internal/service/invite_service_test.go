package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"peakform/coach-app/internal/domain"
	"peakform/coach-app/internal/email"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []*email.Email
}

func (m *recordingMailer) Send(ctx context.Context, e *email.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, e)
	return nil
}

func TestInviteCreatesUserAuditRowAndEmail(t *testing.T) {
	var createUserBody, insertBody []byte
	_, client := newFakeBackend(t, func(r *http.Request) (int, string) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/auth/v1/admin/users":
			createUserBody, _ = io.ReadAll(r.Body)
			return http.StatusOK, `{"id":"user-9","email":"client@example.com"}`
		case r.Method == http.MethodPost && r.URL.Path == "/rest/v1/invitations":
			insertBody, _ = io.ReadAll(r.Body)
			return http.StatusCreated, `{"id":"inv-1","email":"client@example.com","role":"client"}`
		}
		return http.StatusNotFound, `{}`
	})

	mailer := &recordingMailer{}
	svc := NewInviteService(client, mailer, "https://app.example.com")

	result, err := svc.Invite(context.Background(), InviteParams{
		Email:     "client@example.com",
		FirstName: "Ada",
		Role:      domain.RoleClient,
		CoachID:   "coach-1",
		CoachName: "Coach Sam",
		InvitedBy: "coach-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "user-9", result.UserID)
	assert.NotEmpty(t, result.TempPassword)
	assert.True(t, strings.HasPrefix(result.AcceptURL, "https://app.example.com/invite/"))

	var userReq struct {
		Email        string         `json:"email"`
		Password     string         `json:"password"`
		EmailConfirm bool           `json:"email_confirm"`
		UserMetadata map[string]any `json:"user_metadata"`
	}
	require.NoError(t, json.Unmarshal(createUserBody, &userReq))
	assert.Equal(t, "client@example.com", userReq.Email)
	assert.True(t, userReq.EmailConfirm)
	assert.Equal(t, "client", userReq.UserMetadata["role"])

	// The audit row stores a hash, never the raw token or password.
	var row map[string]any
	require.NoError(t, json.Unmarshal(insertBody, &row))
	hash, _ := row["token_hash"].(string)
	require.NotEmpty(t, hash)
	assert.NotContains(t, string(insertBody), result.TempPassword)

	secret := strings.TrimPrefix(result.AcceptURL, "https://app.example.com/invite/")
	_, rawToken, ok := strings.Cut(secret, ".")
	require.True(t, ok)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(rawToken)))

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"client@example.com"}, mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].HTML, "Coach Sam")
	assert.Contains(t, mailer.sent[0].HTML, result.TempPassword)
}

func TestInviteCleansUpUserWhenAuditRowFails(t *testing.T) {
	backend, client := newFakeBackend(t, func(r *http.Request) (int, string) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/auth/v1/admin/users":
			return http.StatusOK, `{"id":"user-9","email":"client@example.com"}`
		case r.Method == http.MethodPost && r.URL.Path == "/rest/v1/invitations":
			return http.StatusInternalServerError, `{"message":"insert failed"}`
		case r.Method == http.MethodDelete && r.URL.Path == "/auth/v1/admin/users/user-9":
			return http.StatusOK, `{}`
		}
		return http.StatusNotFound, `{}`
	})

	svc := NewInviteService(client, nil, "https://app.example.com")
	_, err := svc.Invite(context.Background(), InviteParams{
		Email: "client@example.com",
		Role:  domain.RoleClient,
	})
	require.Error(t, err)

	// An account with no audit row must not survive the failed insert.
	var deletes []recordedRequest
	for _, req := range backend.recorded() {
		if req.Method == http.MethodDelete {
			deletes = append(deletes, req)
		}
	}
	require.Len(t, deletes, 1)
	assert.Equal(t, "/auth/v1/admin/users/user-9", deletes[0].Path)
}

func TestInviteRejectsBadRole(t *testing.T) {
	backend, client := newFakeBackend(t, func(r *http.Request) (int, string) {
		return http.StatusInternalServerError, `{}`
	})
	svc := NewInviteService(client, nil, "https://app.example.com")

	_, err := svc.Invite(context.Background(), InviteParams{Email: "x@example.com", Role: "admin"})
	require.Error(t, err)
	assert.Empty(t, backend.recorded())
}

func TestAcceptValidatesTokenAndMarksUsed(t *testing.T) {
	secret := "raw-secret"
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	require.NoError(t, err)

	expires := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	row := `{"id":"inv-1","email":"client@example.com","role":"client","token_hash":` +
		string(mustJSON(t, string(hash))) + `,"expires_at":"` + expires + `"}`

	var patched bool
	_, client := newFakeBackend(t, func(r *http.Request) (int, string) {
		switch r.Method {
		case http.MethodGet:
			return http.StatusOK, row
		case http.MethodPatch:
			patched = true
			return http.StatusOK, `{"id":"inv-1","email":"client@example.com","role":"client","accepted_at":"` + expires + `"}`
		}
		return http.StatusNotFound, `{}`
	})

	svc := NewInviteService(client, nil, "https://app.example.com")
	accepted, err := svc.Accept(context.Background(), "inv-1."+secret)
	require.NoError(t, err)
	assert.True(t, patched)
	assert.Equal(t, "client@example.com", accepted.Email)

	// Wrong secret fails without touching the row.
	_, err = svc.Accept(context.Background(), "inv-1.wrong-secret")
	require.ErrorIs(t, err, ErrInvitationToken)
}

func TestAcceptRejectsExpiredAndUsed(t *testing.T) {
	secret := "raw-secret"
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	require.NoError(t, err)
	hashJSON := string(mustJSON(t, string(hash)))

	past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)

	t.Run("expired", func(t *testing.T) {
		_, client := newFakeBackend(t, func(r *http.Request) (int, string) {
			return http.StatusOK, `{"id":"inv-1","token_hash":` + hashJSON + `,"expires_at":"` + past + `"}`
		})
		svc := NewInviteService(client, nil, "https://app.example.com")
		_, err := svc.Accept(context.Background(), "inv-1."+secret)
		require.ErrorIs(t, err, ErrInvitationExpired)
	})

	t.Run("already accepted", func(t *testing.T) {
		_, client := newFakeBackend(t, func(r *http.Request) (int, string) {
			return http.StatusOK, `{"id":"inv-1","token_hash":` + hashJSON +
				`,"expires_at":"` + future + `","accepted_at":"` + past + `"}`
		})
		svc := NewInviteService(client, nil, "https://app.example.com")
		_, err := svc.Accept(context.Background(), "inv-1."+secret)
		require.ErrorIs(t, err, ErrInvitationUsed)
	})

	t.Run("missing row", func(t *testing.T) {
		_, client := newFakeBackend(t, func(r *http.Request) (int, string) {
			return http.StatusNotAcceptable, `{"code":"PGRST116"}`
		})
		svc := NewInviteService(client, nil, "https://app.example.com")
		_, err := svc.Accept(context.Background(), "inv-1."+secret)
		require.ErrorIs(t, err, ErrInvitationNotFound)
	})
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
