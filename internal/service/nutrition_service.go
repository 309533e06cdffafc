package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"peakform/coach-app/internal/domain"
	"peakform/coach-app/internal/supabase"
)

var (
	ErrNutritionNoFeature  = errors.New("nutrition tracking is not included in the current plan")
	ErrNutritionBadDate    = errors.New("nutrition date must be YYYY-MM-DD")
	ErrNutritionBadAmounts = errors.New("nutrition amounts cannot be negative")
)

// NutritionService manages daily intake entries, one row per (client, day).
type NutritionService interface {
	// UpsertEntry creates or replaces the client's entry for the date.
	UpsertEntry(ctx context.Context, owner *domain.Profile, entry domain.NutritionEntry) (*domain.NutritionEntry, error)
	// ListRange returns entries between from and to inclusive, oldest first.
	ListRange(ctx context.Context, clientID, from, to string) ([]domain.NutritionEntry, error)
	// WeeklySummary aggregates the week starting at weekStart.
	WeeklySummary(ctx context.Context, clientID, weekStart string) (*domain.NutritionSummary, error)
}

type nutritionService struct {
	sb    *supabase.Client
	token string
}

func NewNutritionService(sb *supabase.Client, accessToken string) NutritionService {
	return &nutritionService{sb: sb, token: accessToken}
}

func (s *nutritionService) UpsertEntry(ctx context.Context, owner *domain.Profile, entry domain.NutritionEntry) (*domain.NutritionEntry, error) {
	if owner != nil && !owner.Limits.NutritionTrack {
		return nil, ErrNutritionNoFeature
	}
	if _, err := time.Parse("2006-01-02", entry.Date); err != nil {
		return nil, ErrNutritionBadDate
	}
	if entry.Calories < 0 || entry.ProteinG < 0 || entry.CarbsG < 0 || entry.FatG < 0 || entry.WaterMl < 0 {
		return nil, ErrNutritionBadAmounts
	}

	row := map[string]any{
		"client_id": entry.ClientID,
		"date":      entry.Date,
		"calories":  entry.Calories,
		"protein_g": entry.ProteinG,
		"carbs_g":   entry.CarbsG,
		"fat_g":     entry.FatG,
		"water_ml":  entry.WaterMl,
		"notes":     entry.Notes,
	}

	// One row per (client, day): replace the existing entry if there is one.
	existing, err := s.entryFor(ctx, entry.ClientID, entry.Date)
	if err != nil {
		return nil, err
	}

	var saved domain.NutritionEntry
	if existing != nil {
		err = s.sb.From("nutrition_entries").
			Eq("id", existing.ID).
			Single().
			AsUser(s.token).
			Update(ctx, row, &saved)
	} else {
		err = s.sb.From("nutrition_entries").
			Single().
			AsUser(s.token).
			Insert(ctx, row, &saved)
	}
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (s *nutritionService) ListRange(ctx context.Context, clientID, from, to string) ([]domain.NutritionEntry, error) {
	var entries []domain.NutritionEntry
	err := s.sb.From("nutrition_entries").
		Select("*").
		Eq("client_id", clientID).
		Gte("date", from).
		Lte("date", to).
		Order("date", true).
		AsUser(s.token).
		Get(ctx, &entries)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.NutritionEntry{}
	}
	return entries, nil
}

func (s *nutritionService) WeeklySummary(ctx context.Context, clientID, weekStart string) (*domain.NutritionSummary, error) {
	start, err := time.Parse("2006-01-02", weekStart)
	if err != nil {
		return nil, fmt.Errorf("invalid week start %q: %w", weekStart, err)
	}
	weekEnd := start.AddDate(0, 0, 6).Format("2006-01-02")

	entries, err := s.ListRange(ctx, clientID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}

	summary := &domain.NutritionSummary{
		ClientID:  clientID,
		WeekStart: weekStart,
		Days:      len(entries),
	}
	if len(entries) == 0 {
		return summary, nil
	}

	var calories, protein, carbs, fat int
	for _, e := range entries {
		calories += e.Calories
		protein += e.ProteinG
		carbs += e.CarbsG
		fat += e.FatG
		summary.TotalWater += e.WaterMl
	}
	n := float64(len(entries))
	summary.AvgCalories = float64(calories) / n
	summary.AvgProteinG = float64(protein) / n
	summary.AvgCarbsG = float64(carbs) / n
	summary.AvgFatG = float64(fat) / n

	return summary, nil
}

func (s *nutritionService) entryFor(ctx context.Context, clientID, date string) (*domain.NutritionEntry, error) {
	var entry domain.NutritionEntry
	err := s.sb.From("nutrition_entries").
		Select("*").
		Eq("client_id", clientID).
		Eq("date", date).
		Single().
		AsUser(s.token).
		Get(ctx, &entry)
	if err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}
