package domain

import "time"

// Invitation is the audit record for an account created on someone's behalf.
// Every invited account has exactly one row here; there is no side door.
type Invitation struct {
	ID         string     `json:"id"`
	CoachID    string     `json:"coach_id,omitempty"`
	Email      string     `json:"email"`
	Role       Role       `json:"role"`
	TokenHash  string     `json:"token_hash"`
	InvitedBy  string     `json:"invited_by"`
	ExpiresAt  time.Time  `json:"expires_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Expired reports whether the invitation can no longer be accepted.
func (i *Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
