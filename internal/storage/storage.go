package storage

import (
	"context"
	"time"
)

// Default expiry duration for signed download URLs
const DefaultSignedURLExpiry = 15 * time.Minute

// FileStorage defines the interface for object storage operations. Services
// persist object keys in the database and mint signed URLs per read; raw
// bytes and time-limited URLs never land in rows.
type FileStorage interface {
	// Upload stores an object under objectKey with the given content type.
	Upload(ctx context.Context, objectKey string, data []byte, contentType string) error

	// SignedURL creates a temporary GET URL for an object.
	SignedURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// Delete removes an object.
	Delete(ctx context.Context, objectKey string) error
}
