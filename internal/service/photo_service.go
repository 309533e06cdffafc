package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"peakform/coach-app/internal/domain"
	"peakform/coach-app/internal/logger"
	"peakform/coach-app/internal/storage"
	"peakform/coach-app/internal/supabase"
)

// MaxPhotoBytes is the upload ceiling for progress photos. Checked before
// any network call.
const MaxPhotoBytes = 10 << 20 // 10MB

var (
	ErrPhotoTooLarge    = fmt.Errorf("photo exceeds the %dMB limit", MaxPhotoBytes>>20)
	ErrPhotoBadType     = errors.New("photo must be a JPEG, PNG or WebP image")
	ErrPhotoEmpty       = errors.New("photo data cannot be empty")
	ErrPhotoNotFound    = errors.New("progress photo not found")
	ErrPhotoDateInvalid = errors.New("photo capture date must be YYYY-MM-DD")
)

var photoMIMETypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

// PhotoService manages client progress photos: validated uploads into object
// storage, database rows referencing the object key, and time-limited signed
// URLs on read.
type PhotoService interface {
	Upload(ctx context.Context, clientID, filename, contentType string, data []byte, caption, takenOn string) (*domain.ProgressPhoto, error)
	// List returns the client's photos newest first, each carrying a fresh
	// signed URL.
	List(ctx context.Context, clientID string) ([]domain.ProgressPhoto, error)
	Delete(ctx context.Context, id string) error
}

type photoService struct {
	sb     *supabase.Client
	files  storage.FileStorage
	expiry time.Duration
	token  string
}

func NewPhotoService(sb *supabase.Client, files storage.FileStorage, signedURLExpiry time.Duration, accessToken string) PhotoService {
	if signedURLExpiry <= 0 {
		signedURLExpiry = storage.DefaultSignedURLExpiry
	}
	return &photoService{sb: sb, files: files, expiry: signedURLExpiry, token: accessToken}
}

func (s *photoService) Upload(ctx context.Context, clientID, filename, contentType string, data []byte, caption, takenOn string) (*domain.ProgressPhoto, error) {
	// Shape-level validation happens before any network call so an invalid
	// upload costs nothing and fails with a specific message.
	if len(data) == 0 {
		return nil, ErrPhotoEmpty
	}
	if len(data) > MaxPhotoBytes {
		return nil, fmt.Errorf("%w (got %.1fMB)", ErrPhotoTooLarge, float64(len(data))/(1<<20))
	}
	if _, ok := photoMIMETypes[contentType]; !ok {
		return nil, fmt.Errorf("%w (got %q)", ErrPhotoBadType, contentType)
	}
	if _, err := time.Parse("2006-01-02", takenOn); err != nil {
		return nil, ErrPhotoDateInvalid
	}

	key := objectKey(clientID, filename)
	if err := s.files.Upload(ctx, key, data, contentType); err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}

	row := map[string]any{
		"client_id":    clientID,
		"storage_path": key,
		"caption":      caption,
		"taken_on":     takenOn,
	}

	var created domain.ProgressPhoto
	err := s.sb.From("progress_photos").
		Single().
		AsUser(s.token).
		Insert(ctx, row, &created)
	if err != nil {
		// The row is the source of truth; an object without one is inert,
		// so clean it up best effort and fail the operation.
		if cleanupErr := s.files.Delete(ctx, key); cleanupErr != nil {
			logger.Warn("orphaned photo object left behind", "key", key, "error", cleanupErr)
		}
		return nil, err
	}
	return &created, nil
}

func (s *photoService) List(ctx context.Context, clientID string) ([]domain.ProgressPhoto, error) {
	var photos []domain.ProgressPhoto
	err := s.sb.From("progress_photos").
		Select("*").
		Eq("client_id", clientID).
		Order("taken_on", false).
		AsUser(s.token).
		Get(ctx, &photos)
	if err != nil {
		return nil, err
	}

	for i := range photos {
		url, err := s.files.SignedURL(ctx, photos[i].StoragePath, s.expiry)
		if err != nil {
			logger.Warn("could not sign photo URL", "path", photos[i].StoragePath, "error", err)
			continue
		}
		photos[i].SignedURL = url
	}
	if photos == nil {
		photos = []domain.ProgressPhoto{}
	}
	return photos, nil
}

func (s *photoService) Delete(ctx context.Context, id string) error {
	var photo domain.ProgressPhoto
	err := s.sb.From("progress_photos").
		Select("*").
		Eq("id", id).
		Single().
		AsUser(s.token).
		Get(ctx, &photo)
	if err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			return ErrPhotoNotFound
		}
		return err
	}

	// Row first: a row pointing at a deleted object would break reads,
	// while an unreferenced object is merely wasted space.
	err = s.sb.From("progress_photos").
		Eq("id", id).
		AsUser(s.token).
		Delete(ctx)
	if err != nil {
		return err
	}
	if err := s.files.Delete(ctx, photo.StoragePath); err != nil {
		logger.Warn("orphaned photo object left behind", "key", photo.StoragePath, "error", err)
	}
	return nil
}
