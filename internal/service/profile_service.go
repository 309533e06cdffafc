package service

import (
	"context"
	"errors"

	"peakform/coach-app/internal/domain"
	"peakform/coach-app/internal/supabase"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
)

// ProfileService reads and updates the identity record of the signed-in
// principal.
type ProfileService interface {
	// GetByID returns the profile, or ErrProfileNotFound when none exists.
	// A sessioned user without a profile is an error state, never an
	// authenticated one, so there is no maybe-variant here.
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	UpdateSettings(ctx context.Context, id string, firstName, lastName, avatarPath string) (*domain.Profile, error)
	// SetPlan records a subscription change and snapshots the tier's limits
	// onto the profile.
	SetPlan(ctx context.Context, id string, plan domain.PlanKey, status string) (*domain.Profile, error)
}

type profileService struct {
	sb    *supabase.Client
	token string
}

// NewProfileService creates a profile service acting as the principal that
// owns accessToken. An empty token acts with the client's configured key.
func NewProfileService(sb *supabase.Client, accessToken string) ProfileService {
	return &profileService{sb: sb, token: accessToken}
}

func (s *profileService) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	var profile domain.Profile
	err := s.sb.From("profiles").
		Select("*").
		Eq("id", id).
		Single().
		AsUser(s.token).
		Get(ctx, &profile)
	if err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (s *profileService) UpdateSettings(ctx context.Context, id string, firstName, lastName, avatarPath string) (*domain.Profile, error) {
	patch := map[string]any{
		"first_name": firstName,
		"last_name":  lastName,
	}
	if avatarPath != "" {
		patch["avatar_path"] = avatarPath
	}

	var profile domain.Profile
	err := s.sb.From("profiles").
		Eq("id", id).
		Single().
		AsUser(s.token).
		Update(ctx, patch, &profile)
	if err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (s *profileService) SetPlan(ctx context.Context, id string, plan domain.PlanKey, status string) (*domain.Profile, error) {
	patch := map[string]any{
		"plan":                plan,
		"subscription_status": status,
		"limits":              domain.LimitsFor(plan),
	}

	var profile domain.Profile
	err := s.sb.From("profiles").
		Eq("id", id).
		Single().
		AsUser(s.token).
		Update(ctx, patch, &profile)
	if err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}
