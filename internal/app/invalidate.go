package app

import (
	"context"

	"peakform/coach-app/internal/cache"
	"peakform/coach-app/internal/domain"
	"peakform/coach-app/internal/service"
)

// Cache-aware service wrappers. Services hands these out instead of the raw
// implementations so every successful mutation marks the covering cache keys
// stale before the caller sees the result. Reads pass straight through via
// the embedded interface.

type cachedProfiles struct {
	service.ProfileService
	cache *cache.Cache
}

func (s cachedProfiles) UpdateSettings(ctx context.Context, id string, firstName, lastName, avatarPath string) (*domain.Profile, error) {
	profile, err := s.ProfileService.UpdateSettings(ctx, id, firstName, lastName, avatarPath)
	if err == nil {
		s.cache.InvalidateFamily("profile", id)
	}
	return profile, err
}

func (s cachedProfiles) SetPlan(ctx context.Context, id string, plan domain.PlanKey, status string) (*domain.Profile, error) {
	profile, err := s.ProfileService.SetPlan(ctx, id, plan, status)
	if err == nil {
		s.cache.InvalidateFamily("profile", id)
	}
	return profile, err
}

type cachedClients struct {
	service.ClientService
	cache *cache.Cache
}

func (s cachedClients) Create(ctx context.Context, coach *domain.Profile, client domain.Client) (*domain.Client, error) {
	created, err := s.ClientService.Create(ctx, coach, client)
	if err == nil {
		s.cache.InvalidateFamily("clients")
	}
	return created, err
}

func (s cachedClients) Update(ctx context.Context, id string, update domain.ClientUpdate) (*domain.Client, error) {
	updated, err := s.ClientService.Update(ctx, id, update)
	if err == nil {
		s.cache.InvalidateFamily("clients")
		s.cache.InvalidateFamily("client", id)
	}
	return updated, err
}

func (s cachedClients) Delete(ctx context.Context, id string) error {
	err := s.ClientService.Delete(ctx, id)
	if err == nil {
		s.cache.InvalidateFamily("clients")
		s.cache.InvalidateFamily("client", id)
	}
	return err
}

type cachedWorkouts struct {
	service.WorkoutService
	cache *cache.Cache
}

func (s cachedWorkouts) Create(ctx context.Context, coach *domain.Profile, workout domain.Workout, exercises []domain.WorkoutExercise) (*domain.Workout, error) {
	created, err := s.WorkoutService.Create(ctx, coach, workout, exercises)
	if err == nil {
		s.cache.InvalidateFamily("workouts")
	}
	return created, err
}

func (s cachedWorkouts) Update(ctx context.Context, id string, patch map[string]any) (*domain.Workout, error) {
	updated, err := s.WorkoutService.Update(ctx, id, patch)
	if err == nil {
		s.cache.InvalidateFamily("workouts")
		s.cache.InvalidateFamily("workout", id)
	}
	return updated, err
}

func (s cachedWorkouts) Delete(ctx context.Context, id string) error {
	err := s.WorkoutService.Delete(ctx, id)
	if err == nil {
		s.cache.InvalidateFamily("workouts")
		s.cache.InvalidateFamily("workout", id)
	}
	return err
}

type cachedSessions struct {
	service.SessionService
	cache *cache.Cache
}

func (s cachedSessions) Schedule(ctx context.Context, clientID, workoutID, date string) (*domain.Session, error) {
	created, err := s.SessionService.Schedule(ctx, clientID, workoutID, date)
	if err == nil {
		s.cache.InvalidateFamily("sessions", clientID)
	}
	return created, err
}

func (s cachedSessions) Transition(ctx context.Context, id string, to domain.SessionStatus) (*domain.Session, error) {
	updated, err := s.SessionService.Transition(ctx, id, to)
	if err == nil {
		// Only the session id is known here; the whole family goes stale.
		s.cache.InvalidateFamily("sessions")
	}
	return updated, err
}

func (s cachedSessions) CompleteWithFeedback(ctx context.Context, id string, feedback domain.SessionFeedback) (*domain.Session, error) {
	updated, err := s.SessionService.CompleteWithFeedback(ctx, id, feedback)
	if err == nil {
		s.cache.InvalidateFamily("sessions")
	}
	return updated, err
}

type cachedFeedback struct {
	service.FeedbackService
	cache *cache.Cache
}

func (s cachedFeedback) Send(ctx context.Context, coachID, clientID, templateID, weekStart string) (*domain.WeeklyFeedback, error) {
	sent, err := s.FeedbackService.Send(ctx, coachID, clientID, templateID, weekStart)
	if err == nil {
		s.cache.InvalidateFamily("feedback")
	}
	return sent, err
}

func (s cachedFeedback) Submit(ctx context.Context, id string, answers []string) (*domain.WeeklyFeedback, error) {
	submitted, err := s.FeedbackService.Submit(ctx, id, answers)
	if err == nil {
		s.cache.InvalidateFamily("feedback")
	}
	return submitted, err
}

type cachedPhotos struct {
	service.PhotoService
	cache *cache.Cache
}

func (s cachedPhotos) Upload(ctx context.Context, clientID, filename, contentType string, data []byte, caption, takenOn string) (*domain.ProgressPhoto, error) {
	uploaded, err := s.PhotoService.Upload(ctx, clientID, filename, contentType, data, caption, takenOn)
	if err == nil {
		s.cache.InvalidateFamily("photos", clientID)
	}
	return uploaded, err
}

func (s cachedPhotos) Delete(ctx context.Context, id string) error {
	err := s.PhotoService.Delete(ctx, id)
	if err == nil {
		s.cache.InvalidateFamily("photos")
	}
	return err
}

type cachedVoice struct {
	service.VoiceService
	cache *cache.Cache
}

func (s cachedVoice) Send(ctx context.Context, sender *domain.Profile, recipientID, filename, contentType string, data []byte, durationSec int) (*domain.VoiceMessage, error) {
	sent, err := s.VoiceService.Send(ctx, sender, recipientID, filename, contentType, data, durationSec)
	if err == nil {
		s.cache.InvalidateFamily("voice")
	}
	return sent, err
}

type cachedNutrition struct {
	service.NutritionService
	cache *cache.Cache
}

func (s cachedNutrition) UpsertEntry(ctx context.Context, owner *domain.Profile, entry domain.NutritionEntry) (*domain.NutritionEntry, error) {
	saved, err := s.NutritionService.UpsertEntry(ctx, owner, entry)
	if err == nil {
		s.cache.InvalidateFamily("nutrition", entry.ClientID)
	}
	return saved, err
}
