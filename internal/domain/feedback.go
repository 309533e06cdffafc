package domain

import "time"

// FeedbackStatus is the lifecycle flag of a weekly feedback instance.
type FeedbackStatus string

const (
	FeedbackDraft      FeedbackStatus = "draft"
	FeedbackSent       FeedbackStatus = "sent"
	FeedbackInProgress FeedbackStatus = "in_progress"
	FeedbackCompleted  FeedbackStatus = "completed"
)

// FeedbackTemplate is a coach-owned questionnaire definition.
type FeedbackTemplate struct {
	ID        string             `json:"id"`
	CoachID   string             `json:"coach_id"`
	Name      string             `json:"name"`
	Questions []FeedbackQuestion `json:"questions,omitempty"` // ordered by Position
	CreatedAt time.Time          `json:"created_at"`
}

// FeedbackQuestion is one ordered question of a template.
type FeedbackQuestion struct {
	ID         string `json:"id"`
	TemplateID string `json:"template_id"`
	Position   int    `json:"position"`
	Text       string `json:"text"`
	Type       string `json:"type"` // "scale", "text", "boolean"
}

// WeeklyFeedback is a per-client, per-week questionnaire instance derived
// from a template. When complete, Responses must match the template's
// question ordering, and status reaches "completed" only once CompletedAt is
// set.
type WeeklyFeedback struct {
	ID          string             `json:"id"`
	ClientID    string             `json:"client_id"`
	CoachID     string             `json:"coach_id"`
	TemplateID  string             `json:"template_id"`
	WeekStart   string             `json:"week_start"` // YYYY-MM-DD
	WeekEnd     string             `json:"week_end"`
	Status      FeedbackStatus     `json:"status"`
	Responses   []FeedbackResponse `json:"responses"`
	Score       float64            `json:"score,omitempty"`
	SentAt      *time.Time         `json:"sent_at,omitempty"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
}

// FeedbackResponse is one answered (or pending) question of an instance.
type FeedbackResponse struct {
	QuestionID string `json:"question_id"`
	Text       string `json:"text"`
	Type       string `json:"type"`
	Answer     string `json:"answer"`
}
