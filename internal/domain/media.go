package domain

import "time"

// ProgressPhoto is a client-owned image record. StoragePath references the
// stored object; signed download URLs are minted on read and never persisted.
type ProgressPhoto struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"client_id"`
	StoragePath string    `json:"storage_path"`
	Caption     string    `json:"caption,omitempty"`
	TakenOn     string    `json:"taken_on"` // YYYY-MM-DD
	CreatedAt   time.Time `json:"created_at"`

	// Time-limited, populated per read. Excluded from writes.
	SignedURL string `json:"signed_url,omitempty"`
}

// VoiceMessage is an audio note exchanged between a coach and a client.
type VoiceMessage struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	StoragePath string    `json:"storage_path"`
	DurationSec int       `json:"duration_seconds"`
	CreatedAt   time.Time `json:"created_at"`

	SignedURL string `json:"signed_url,omitempty"`
}
