package domain

import "time"

// Role type to distinguish between user roles
type Role string

const (
	RoleCoach  Role = "coach"
	RoleClient Role = "client"
)

// Profile is the identity record for an authenticated principal. Exactly one
// profile exists per principal; the role never changes after creation in the
// normal flow.
type Profile struct {
	ID                 string     `json:"id"`
	Email              string     `json:"email"`
	Role               Role       `json:"role"`
	FirstName          string     `json:"first_name"`
	LastName           string     `json:"last_name"`
	AvatarPath         string     `json:"avatar_path,omitempty"`
	Plan               PlanKey    `json:"plan"`
	SubscriptionStatus string     `json:"subscription_status,omitempty"`
	Limits             PlanLimits `json:"limits"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (p *Profile) IsCoach() bool {
	return p.Role == RoleCoach
}

func (p *Profile) IsClient() bool {
	return p.Role == RoleClient
}

func (p *Profile) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
