package domain

import "time"

// Client is a coach's trainee record. It is distinct from Profile: a client
// record may exist before (or without) an associated login.
type Client struct {
	ID        string    `json:"id"`
	CoachID   string    `json:"coach_id"`
	ProfileID string    `json:"profile_id,omitempty"` // set once the trainee has a login
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Age       int       `json:"age,omitempty"`
	WeightKg  float64   `json:"weight_kg,omitempty"`
	HeightCm  float64   `json:"height_cm,omitempty"`
	Goal      string    `json:"goal,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ClientUpdate carries the fields a client edit may change. Pointers so that
// absent fields are left untouched by the merge.
type ClientUpdate struct {
	FirstName *string  `json:"first_name,omitempty"`
	LastName  *string  `json:"last_name,omitempty"`
	Email     *string  `json:"email,omitempty"`
	Age       *int     `json:"age,omitempty"`
	WeightKg  *float64 `json:"weight_kg,omitempty"`
	HeightCm  *float64 `json:"height_cm,omitempty"`
	Goal      *string  `json:"goal,omitempty"`
}
