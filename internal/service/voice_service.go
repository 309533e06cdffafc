package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"peakform/coach-app/internal/domain"
	"peakform/coach-app/internal/logger"
	"peakform/coach-app/internal/storage"
	"peakform/coach-app/internal/supabase"
)

// MaxVoiceBytes is the upload ceiling for voice messages.
const MaxVoiceBytes = 5 << 20 // 5MB

var (
	ErrVoiceTooLarge   = fmt.Errorf("voice message exceeds the %dMB limit", MaxVoiceBytes>>20)
	ErrVoiceBadType    = errors.New("voice message must be an audio recording")
	ErrVoiceEmpty      = errors.New("voice message data cannot be empty")
	ErrVoiceNoFeature  = errors.New("voice messages are not included in the current plan")
	ErrVoiceBadPairing = errors.New("voice message needs both a sender and a recipient")
)

var voiceMIMETypes = map[string]struct{}{
	"audio/webm": {},
	"audio/ogg":  {},
	"audio/mpeg": {},
	"audio/mp4":  {},
	"audio/wav":  {},
}

// VoiceService manages voice messages between a coach and a client. Plan
// gating applies on send: the feature flag comes from the sender's limits
// snapshot.
type VoiceService interface {
	Send(ctx context.Context, sender *domain.Profile, recipientID, filename, contentType string, data []byte, durationSec int) (*domain.VoiceMessage, error)
	// ListConversation returns both directions of a pairing, oldest first,
	// each message carrying a fresh signed URL.
	ListConversation(ctx context.Context, userA, userB string) ([]domain.VoiceMessage, error)
}

type voiceService struct {
	sb     *supabase.Client
	files  storage.FileStorage
	expiry time.Duration
	token  string
}

func NewVoiceService(sb *supabase.Client, files storage.FileStorage, signedURLExpiry time.Duration, accessToken string) VoiceService {
	if signedURLExpiry <= 0 {
		signedURLExpiry = storage.DefaultSignedURLExpiry
	}
	return &voiceService{sb: sb, files: files, expiry: signedURLExpiry, token: accessToken}
}

func (s *voiceService) Send(ctx context.Context, sender *domain.Profile, recipientID, filename, contentType string, data []byte, durationSec int) (*domain.VoiceMessage, error) {
	if sender == nil || sender.ID == "" || recipientID == "" {
		return nil, ErrVoiceBadPairing
	}
	if !sender.Limits.VoiceMessages {
		return nil, ErrVoiceNoFeature
	}
	if len(data) == 0 {
		return nil, ErrVoiceEmpty
	}
	if len(data) > MaxVoiceBytes {
		return nil, fmt.Errorf("%w (got %.1fMB)", ErrVoiceTooLarge, float64(len(data))/(1<<20))
	}
	if _, ok := voiceMIMETypes[contentType]; !ok {
		return nil, fmt.Errorf("%w (got %q)", ErrVoiceBadType, contentType)
	}

	key := objectKey(sender.ID, filename)
	if err := s.files.Upload(ctx, key, data, contentType); err != nil {
		return nil, fmt.Errorf("upload voice message: %w", err)
	}

	row := map[string]any{
		"sender_id":        sender.ID,
		"recipient_id":     recipientID,
		"storage_path":     key,
		"duration_seconds": durationSec,
	}

	var created domain.VoiceMessage
	err := s.sb.From("voice_messages").
		Single().
		AsUser(s.token).
		Insert(ctx, row, &created)
	if err != nil {
		if cleanupErr := s.files.Delete(ctx, key); cleanupErr != nil {
			logger.Warn("orphaned voice object left behind", "key", key, "error", cleanupErr)
		}
		return nil, err
	}
	return &created, nil
}

func (s *voiceService) ListConversation(ctx context.Context, userA, userB string) ([]domain.VoiceMessage, error) {
	// Both directions of the pairing; merged client side because PostgREST
	// or-filters across two columns read worse than two scoped queries.
	sent, err := s.listDirected(ctx, userA, userB)
	if err != nil {
		return nil, err
	}
	received, err := s.listDirected(ctx, userB, userA)
	if err != nil {
		return nil, err
	}

	messages := append(sent, received...)
	sortVoiceMessages(messages)

	for i := range messages {
		url, err := s.files.SignedURL(ctx, messages[i].StoragePath, s.expiry)
		if err != nil {
			logger.Warn("could not sign voice URL", "path", messages[i].StoragePath, "error", err)
			continue
		}
		messages[i].SignedURL = url
	}
	return messages, nil
}

func (s *voiceService) listDirected(ctx context.Context, senderID, recipientID string) ([]domain.VoiceMessage, error) {
	var messages []domain.VoiceMessage
	err := s.sb.From("voice_messages").
		Select("*").
		Eq("sender_id", senderID).
		Eq("recipient_id", recipientID).
		Order("created_at", true).
		AsUser(s.token).
		Get(ctx, &messages)
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func sortVoiceMessages(messages []domain.VoiceMessage) {
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
}
