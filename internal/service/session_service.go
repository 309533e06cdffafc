package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"peakform/coach-app/internal/domain"
	"peakform/coach-app/internal/supabase"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidTransition = errors.New("session status transition not allowed")
)

// SessionService manages scheduled workout occurrences and their
// user-driven status transitions.
type SessionService interface {
	// ListForClient returns the client's sessions ordered by scheduled date
	// ascending.
	ListForClient(ctx context.Context, clientID string) ([]domain.Session, error)
	Schedule(ctx context.Context, clientID, workoutID, date string) (*domain.Session, error)
	// Transition moves a session to a new status if the change is allowed
	// (missed sessions may be reprogrammed back to scheduled).
	Transition(ctx context.Context, id string, to domain.SessionStatus) (*domain.Session, error)
	// CompleteWithFeedback marks the session completed, records the
	// post-session answers and sets completed_at.
	CompleteWithFeedback(ctx context.Context, id string, feedback domain.SessionFeedback) (*domain.Session, error)
}

type sessionService struct {
	sb    *supabase.Client
	token string
}

func NewSessionService(sb *supabase.Client, accessToken string) SessionService {
	return &sessionService{sb: sb, token: accessToken}
}

func (s *sessionService) ListForClient(ctx context.Context, clientID string) ([]domain.Session, error) {
	var sessions []domain.Session
	err := s.sb.From("sessions").
		Select("*").
		Eq("client_id", clientID).
		Order("date", true).
		AsUser(s.token).
		Get(ctx, &sessions)
	if err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []domain.Session{}
	}
	return sessions, nil
}

func (s *sessionService) Schedule(ctx context.Context, clientID, workoutID, date string) (*domain.Session, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("invalid session date %q: %w", date, err)
	}

	row := map[string]any{
		"client_id":  clientID,
		"workout_id": workoutID,
		"date":       date,
		"status":     domain.SessionScheduled,
	}

	var created domain.Session
	err := s.sb.From("sessions").
		Single().
		AsUser(s.token).
		Insert(ctx, row, &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *sessionService) Transition(ctx context.Context, id string, to domain.SessionStatus) (*domain.Session, error) {
	session, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.CanTransition(to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, session.Status, to)
	}

	patch := map[string]any{"status": to}
	if to == domain.SessionCompleted {
		patch["completed_at"] = time.Now().UTC().Format(time.RFC3339)
	}
	if to == domain.SessionScheduled {
		// Reprogramming clears any stale completion data.
		patch["completed_at"] = nil
	}

	var updated domain.Session
	err = s.sb.From("sessions").
		Eq("id", id).
		Single().
		AsUser(s.token).
		Update(ctx, patch, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *sessionService) CompleteWithFeedback(ctx context.Context, id string, feedback domain.SessionFeedback) (*domain.Session, error) {
	session, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !session.CanTransition(domain.SessionCompleted) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, session.Status, domain.SessionCompleted)
	}

	patch := map[string]any{
		"status":       domain.SessionCompleted,
		"intensity":    feedback.Intensity,
		"mood":         feedback.Mood,
		"notes":        feedback.Notes,
		"completed_at": time.Now().UTC().Format(time.RFC3339),
	}

	var updated domain.Session
	err = s.sb.From("sessions").
		Eq("id", id).
		Single().
		AsUser(s.token).
		Update(ctx, patch, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *sessionService) get(ctx context.Context, id string) (*domain.Session, error) {
	var session domain.Session
	err := s.sb.From("sessions").
		Select("*").
		Eq("id", id).
		Single().
		AsUser(s.token).
		Get(ctx, &session)
	if err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &session, nil
}
