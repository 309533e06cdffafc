package service

import (
	"context"
	"errors"

	"peakform/coach-app/internal/domain"
	"peakform/coach-app/internal/supabase"
)

var (
	ErrClientNotFound   = errors.New("client not found")
	ErrClientLimit      = errors.New("client limit reached for the current plan")
	ErrMissingCoach     = errors.New("client must belong to a coach")
	ErrClientEmailEmpty = errors.New("client email cannot be empty")
)

// ClientService manages a coach's trainee records.
type ClientService interface {
	// ListByCoach returns the coach's clients, newest first.
	ListByCoach(ctx context.Context, coachID string) ([]domain.Client, error)
	// GetByID returns (nil, nil) when no row matches: an absent client is a
	// valid empty state for lookups, not an error.
	GetByID(ctx context.Context, id string) (*domain.Client, error)
	// Create checks the coach's plan ceiling before inserting.
	Create(ctx context.Context, coach *domain.Profile, client domain.Client) (*domain.Client, error)
	Update(ctx context.Context, id string, update domain.ClientUpdate) (*domain.Client, error)
	Delete(ctx context.Context, id string) error
}

type clientService struct {
	sb    *supabase.Client
	token string
}

func NewClientService(sb *supabase.Client, accessToken string) ClientService {
	return &clientService{sb: sb, token: accessToken}
}

func (s *clientService) ListByCoach(ctx context.Context, coachID string) ([]domain.Client, error) {
	var clients []domain.Client
	err := s.sb.From("clients").
		Select("*").
		Eq("coach_id", coachID).
		Order("created_at", false).
		AsUser(s.token).
		Get(ctx, &clients)
	if err != nil {
		return nil, err
	}
	if clients == nil {
		clients = []domain.Client{}
	}
	return clients, nil
}

func (s *clientService) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	var client domain.Client
	err := s.sb.From("clients").
		Select("*").
		Eq("id", id).
		Single().
		AsUser(s.token).
		Get(ctx, &client)
	if err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &client, nil
}

func (s *clientService) Create(ctx context.Context, coach *domain.Profile, client domain.Client) (*domain.Client, error) {
	if client.Email == "" {
		return nil, ErrClientEmailEmpty
	}
	if coach == nil || coach.ID == "" {
		return nil, ErrMissingCoach
	}

	existing, err := s.ListByCoach(ctx, coach.ID)
	if err != nil {
		return nil, err
	}
	if !coach.Limits.Allows(coach.Limits.MaxClients, len(existing)) {
		return nil, ErrClientLimit
	}

	client.CoachID = coach.ID

	var created domain.Client
	err = s.sb.From("clients").
		Single().
		AsUser(s.token).
		Insert(ctx, insertClient(client), &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (s *clientService) Update(ctx context.Context, id string, update domain.ClientUpdate) (*domain.Client, error) {
	var updated domain.Client
	err := s.sb.From("clients").
		Eq("id", id).
		Single().
		AsUser(s.token).
		Update(ctx, update, &updated)
	if err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	return &updated, nil
}

func (s *clientService) Delete(ctx context.Context, id string) error {
	return s.sb.From("clients").
		Eq("id", id).
		AsUser(s.token).
		Delete(ctx)
}

// insertClient shapes the insert payload so server-generated columns (id,
// created_at) are never sent.
func insertClient(c domain.Client) map[string]any {
	row := map[string]any{
		"coach_id":   c.CoachID,
		"first_name": c.FirstName,
		"last_name":  c.LastName,
		"email":      c.Email,
	}
	if c.ProfileID != "" {
		row["profile_id"] = c.ProfileID
	}
	if c.Age > 0 {
		row["age"] = c.Age
	}
	if c.WeightKg > 0 {
		row["weight_kg"] = c.WeightKg
	}
	if c.HeightCm > 0 {
		row["height_cm"] = c.HeightCm
	}
	if c.Goal != "" {
		row["goal"] = c.Goal
	}
	return row
}
