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

func TestFeedbackSendInstantiatesResponsesInQuestionOrder(t *testing.T) {
	var insertedBody []byte
	_, client := newFakeBackend(t, func(r *http.Request) (int, string) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/rest/v1/feedback_templates":
			// Questions arrive out of position order.
			return http.StatusOK, `{"id":"t1","coach_id":"coach-1","name":"Weekly","questions":[
				{"id":"q2","text":"Energy level?","type":"scale","position":1},
				{"id":"q1","text":"How was the week?","type":"text","position":0}
			]}`
		case r.Method == http.MethodPost && r.URL.Path == "/rest/v1/weekly_feedbacks":
			insertedBody, _ = io.ReadAll(r.Body)
			return http.StatusCreated, `{"id":"f1","status":"sent","week_start":"2026-08-03","week_end":"2026-08-09"}`
		}
		return http.StatusNotFound, `{}`
	})

	svc := NewFeedbackService(client, "token")
	created, err := svc.Send(context.Background(), "coach-1", "c1", "t1", "2026-08-03")
	require.NoError(t, err)
	assert.Equal(t, "f1", created.ID)

	var row struct {
		WeekEnd   string                    `json:"week_end"`
		Status    string                    `json:"status"`
		Responses []domain.FeedbackResponse `json:"responses"`
	}
	require.NoError(t, json.Unmarshal(insertedBody, &row))
	assert.Equal(t, "2026-08-09", row.WeekEnd)
	assert.Equal(t, string(domain.FeedbackSent), row.Status)
	require.Len(t, row.Responses, 2)
	assert.Equal(t, "q1", row.Responses[0].QuestionID)
	assert.Equal(t, "q2", row.Responses[1].QuestionID)
}

func TestFeedbackSendRejectsBadWeekStart(t *testing.T) {
	backend, client := newFakeBackend(t, func(r *http.Request) (int, string) {
		return http.StatusInternalServerError, `{}`
	})

	svc := NewFeedbackService(client, "token")
	_, err := svc.Send(context.Background(), "coach-1", "c1", "t1", "next monday")
	require.Error(t, err)
	assert.Empty(t, backend.recorded())
}

func TestFeedbackSubmitCompletesWithScore(t *testing.T) {
	var patchBody []byte
	_, client := newFakeBackend(t, func(r *http.Request) (int, string) {
		switch r.Method {
		case http.MethodGet:
			return http.StatusOK, `{"id":"f1","status":"sent","responses":[
				{"question_id":"q1","text":"How was the week?","type":"text"},
				{"question_id":"q2","text":"Energy level?","type":"scale"},
				{"question_id":"q3","text":"Sleep quality?","type":"scale"}
			]}`
		case http.MethodPatch:
			patchBody, _ = io.ReadAll(r.Body)
			return http.StatusOK, `{"id":"f1","status":"completed","score":6}`
		}
		return http.StatusNotFound, `{}`
	})

	svc := NewFeedbackService(client, "token")
	updated, err := svc.Submit(context.Background(), "f1", []string{"Tough but good", "7", "5"})
	require.NoError(t, err)
	assert.Equal(t, domain.FeedbackCompleted, updated.Status)

	var patch struct {
		Status    string                    `json:"status"`
		Score     float64                   `json:"score"`
		Responses []domain.FeedbackResponse `json:"responses"`
	}
	require.NoError(t, json.Unmarshal(patchBody, &patch))
	assert.Equal(t, string(domain.FeedbackCompleted), patch.Status)
	// Only the two scale answers count: (7+5)/2.
	assert.Equal(t, 6.0, patch.Score)
	require.Len(t, patch.Responses, 3)
	assert.Equal(t, "Tough but good", patch.Responses[0].Answer)
	assert.Equal(t, "7", patch.Responses[1].Answer)
}

func TestFeedbackSubmitAnswerCountMismatch(t *testing.T) {
	_, client := newFakeBackend(t, func(r *http.Request) (int, string) {
		return http.StatusOK, `{"id":"f1","status":"sent","responses":[
			{"question_id":"q1","type":"text"},
			{"question_id":"q2","type":"scale"}
		]}`
	})

	svc := NewFeedbackService(client, "token")
	_, err := svc.Submit(context.Background(), "f1", []string{"only one"})
	require.ErrorIs(t, err, ErrResponsesMismatch)
}

func TestFeedbackSubmitRequiresSentStatus(t *testing.T) {
	_, client := newFakeBackend(t, func(r *http.Request) (int, string) {
		return http.StatusOK, `{"id":"f1","status":"completed","responses":[{"question_id":"q1","type":"text"}]}`
	})

	svc := NewFeedbackService(client, "token")
	_, err := svc.Submit(context.Background(), "f1", []string{"again"})
	require.ErrorIs(t, err, ErrFeedbackNotSent)
}
