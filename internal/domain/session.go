package domain

import "time"

// SessionStatus is the lifecycle flag of a scheduled workout occurrence.
type SessionStatus string

const (
	SessionScheduled  SessionStatus = "scheduled"
	SessionInProgress SessionStatus = "in-progress"
	SessionCompleted  SessionStatus = "completed"
	SessionMissed     SessionStatus = "missed"
)

// Session is a scheduled occurrence of a Workout for a Client on a date.
// "missed" is only informally terminal: reprogramming moves it back to
// "scheduled".
type Session struct {
	ID          string        `json:"id"`
	ClientID    string        `json:"client_id"`
	WorkoutID   string        `json:"workout_id"`
	Date        string        `json:"date"` // YYYY-MM-DD
	Status      SessionStatus `json:"status"`
	Intensity   int           `json:"intensity,omitempty"`
	Mood        string        `json:"mood,omitempty"`
	Notes       string        `json:"notes,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// SessionFeedback carries the post-session answers recorded on completion.
type SessionFeedback struct {
	Intensity int    `json:"intensity"`
	Mood      string `json:"mood"`
	Notes     string `json:"notes"`
}

// CanTransition reports whether a status change is allowed.
func (s *Session) CanTransition(to SessionStatus) bool {
	switch s.Status {
	case SessionScheduled:
		return to == SessionInProgress || to == SessionCompleted || to == SessionMissed
	case SessionInProgress:
		return to == SessionCompleted || to == SessionMissed
	case SessionMissed:
		// Reprogramming a missed session.
		return to == SessionScheduled
	default:
		return false
	}
}
