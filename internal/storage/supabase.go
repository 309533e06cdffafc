package storage

import (
	"context"
	"time"

	"peakform/coach-app/internal/supabase"
)

// supabaseStorage implements FileStorage on the backend's bucket API. This is
// the default driver.
type supabaseStorage struct {
	bucket *supabase.Bucket
}

// NewSupabaseStorage creates a FileStorage backed by a named backend bucket.
func NewSupabaseStorage(client *supabase.Client, bucket string) FileStorage {
	return &supabaseStorage{
		bucket: client.Storage().From(bucket),
	}
}

func (s *supabaseStorage) Upload(ctx context.Context, objectKey string, data []byte, contentType string) error {
	return s.bucket.Upload(ctx, objectKey, data, supabase.UploadOptions{
		ContentType:  contentType,
		CacheControl: "3600",
	})
}

func (s *supabaseStorage) SignedURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	if expires <= 0 {
		expires = DefaultSignedURLExpiry
	}
	return s.bucket.CreateSignedURL(ctx, objectKey, expires)
}

func (s *supabaseStorage) Delete(ctx context.Context, objectKey string) error {
	return s.bucket.Remove(ctx, []string{objectKey})
}
