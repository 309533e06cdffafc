package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"peakform/coach-app/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionScheduleRejectsBadDate(t *testing.T) {
	backend, client := newFakeBackend(t, func(r *http.Request) (int, string) {
		return http.StatusInternalServerError, `{}`
	})

	svc := NewSessionService(client, "token")
	_, err := svc.Schedule(context.Background(), "c1", "w1", "tomorrow")
	require.Error(t, err)
	assert.Empty(t, backend.recorded())
}

func TestSessionTransitionCompletedSetsTimestamp(t *testing.T) {
	var patchBody []byte
	_, client := newFakeBackend(t, func(r *http.Request) (int, string) {
		switch r.Method {
		case http.MethodGet:
			return http.StatusOK, `{"id":"s1","status":"in-progress"}`
		case http.MethodPatch:
			patchBody, _ = io.ReadAll(r.Body)
			return http.StatusOK, `{"id":"s1","status":"completed"}`
		}
		return http.StatusNotFound, `{}`
	})

	svc := NewSessionService(client, "token")
	updated, err := svc.Transition(context.Background(), "s1", domain.SessionCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, updated.Status)

	var patch map[string]any
	require.NoError(t, json.Unmarshal(patchBody, &patch))
	assert.Equal(t, "completed", patch["status"])
	assert.NotEmpty(t, patch["completed_at"])
}

func TestSessionMissedCanBeReprogrammed(t *testing.T) {
	var patchBody []byte
	_, client := newFakeBackend(t, func(r *http.Request) (int, string) {
		switch r.Method {
		case http.MethodGet:
			return http.StatusOK, `{"id":"s1","status":"missed","completed_at":null}`
		case http.MethodPatch:
			patchBody, _ = io.ReadAll(r.Body)
			return http.StatusOK, `{"id":"s1","status":"scheduled"}`
		}
		return http.StatusNotFound, `{}`
	})

	svc := NewSessionService(client, "token")
	updated, err := svc.Transition(context.Background(), "s1", domain.SessionScheduled)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionScheduled, updated.Status)

	// Reprogramming clears stale completion data.
	var patch map[string]any
	require.NoError(t, json.Unmarshal(patchBody, &patch))
	val, present := patch["completed_at"]
	assert.True(t, present)
	assert.Nil(t, val)
}

func TestSessionCompletedIsTerminal(t *testing.T) {
	_, client := newFakeBackend(t, func(r *http.Request) (int, string) {
		return http.StatusOK, `{"id":"s1","status":"completed"}`
	})

	svc := NewSessionService(client, "token")
	_, err := svc.Transition(context.Background(), "s1", domain.SessionScheduled)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSessionCompleteWithFeedback(t *testing.T) {
	var patchBody []byte
	_, client := newFakeBackend(t, func(r *http.Request) (int, string) {
		switch r.Method {
		case http.MethodGet:
			return http.StatusOK, `{"id":"s1","status":"scheduled"}`
		case http.MethodPatch:
			patchBody, _ = io.ReadAll(r.Body)
			return http.StatusOK, `{"id":"s1","status":"completed","intensity":7,"mood":"good"}`
		}
		return http.StatusNotFound, `{}`
	})

	svc := NewSessionService(client, "token")
	updated, err := svc.CompleteWithFeedback(context.Background(), "s1", domain.SessionFeedback{
		Intensity: 7,
		Mood:      "good",
		Notes:     "new PR on squats",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, updated.Status)

	var patch map[string]any
	require.NoError(t, json.Unmarshal(patchBody, &patch))
	assert.Equal(t, float64(7), patch["intensity"])
	assert.Equal(t, "good", patch["mood"])
	assert.NotEmpty(t, patch["completed_at"])
}
