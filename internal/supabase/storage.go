package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Storage returns the storage sub-client.
func (c *Client) Storage() *StorageClient {
	return &StorageClient{client: c}
}

// StorageClient handles bucket operations.
type StorageClient struct {
	client *Client
}

// From returns a handle on a named bucket.
func (s *StorageClient) From(bucket string) *Bucket {
	return &Bucket{client: s.client, bucket: bucket}
}

// Bucket scopes storage operations to one bucket.
type Bucket struct {
	client *Client
	bucket string
}

// UploadOptions control object headers on upload.
type UploadOptions struct {
	ContentType  string
	CacheControl string
	Upsert       bool
}

// Upload stores an object under path. The database keeps the object key,
// never a signed URL (those are time-limited).
func (b *Bucket) Upload(ctx context.Context, path string, data []byte, opts UploadOptions) error {
	reqURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", b.client.baseURL, b.bucket, strings.TrimPrefix(path, "/"))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("supabase: create request: %w", err)
	}
	b.setHeaders(req)
	if opts.ContentType != "" {
		req.Header.Set("Content-Type", opts.ContentType)
	}
	if opts.CacheControl != "" {
		req.Header.Set("Cache-Control", opts.CacheControl)
	}
	if opts.Upsert {
		req.Header.Set("x-upsert", "true")
	}
	return b.client.do(req, nil)
}

// CreateSignedURL mints a time-limited download URL for an object.
func (b *Bucket) CreateSignedURL(ctx context.Context, path string, expires time.Duration) (string, error) {
	reqURL := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", b.client.baseURL, b.bucket, strings.TrimPrefix(path, "/"))

	body, _ := json.Marshal(map[string]int{
		"expiresIn": int(expires.Seconds()),
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("supabase: create request: %w", err)
	}
	b.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	var signed struct {
		SignedURL string `json:"signedURL"`
	}
	if err := b.client.do(req, &signed); err != nil {
		return "", err
	}
	if signed.SignedURL == "" {
		return "", fmt.Errorf("supabase: empty signed URL for %q", path)
	}
	// The API returns a path relative to the storage root.
	return b.client.baseURL + "/storage/v1" + signed.SignedURL, nil
}

// Remove deletes objects from the bucket.
func (b *Bucket) Remove(ctx context.Context, paths []string) error {
	reqURL := fmt.Sprintf("%s/storage/v1/object/%s", b.client.baseURL, b.bucket)

	body, _ := json.Marshal(map[string][]string{
		"prefixes": paths,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, reqURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("supabase: create request: %w", err)
	}
	b.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	return b.client.do(req, nil)
}

func (b *Bucket) setHeaders(req *http.Request) {
	req.Header.Set("apikey", b.client.apiKey)
	req.Header.Set("Authorization", "Bearer "+b.client.apiKey)
}
