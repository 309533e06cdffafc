package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"peakform/coach-app/internal/domain"
	"peakform/coach-app/internal/supabase"
)

var (
	ErrWorkoutNotFound  = errors.New("workout not found")
	ErrWorkoutNameEmpty = errors.New("workout name cannot be empty")
	ErrWorkoutLimit     = errors.New("workout limit reached for the current plan")
)

// WorkoutService manages workout templates and their ordered exercise
// associations. The backend has no cascade between the two tables, so the
// dependent writes here run in dependency order: children are deleted before
// the parent, and a create that fails on the child step fails the whole
// operation.
type WorkoutService interface {
	ListByCreator(ctx context.Context, coachID string) ([]domain.Workout, error)
	// GetWithExercises returns (nil, nil) when no workout matches.
	GetWithExercises(ctx context.Context, id string) (*domain.Workout, error)
	Create(ctx context.Context, coach *domain.Profile, workout domain.Workout, exercises []domain.WorkoutExercise) (*domain.Workout, error)
	Update(ctx context.Context, id string, patch map[string]any) (*domain.Workout, error)
	// Delete removes the exercise associations first, then the workout.
	Delete(ctx context.Context, id string) error
}

type workoutService struct {
	sb    *supabase.Client
	token string
}

func NewWorkoutService(sb *supabase.Client, accessToken string) WorkoutService {
	return &workoutService{sb: sb, token: accessToken}
}

func (s *workoutService) ListByCreator(ctx context.Context, coachID string) ([]domain.Workout, error) {
	var workouts []domain.Workout
	err := s.sb.From("workouts").
		Select("*,exercises:workout_exercises(*)").
		Eq("created_by", coachID).
		Order("created_at", false).
		AsUser(s.token).
		Get(ctx, &workouts)
	if err != nil {
		return nil, err
	}
	for i := range workouts {
		sortExercises(workouts[i].Exercises)
	}
	if workouts == nil {
		workouts = []domain.Workout{}
	}
	return workouts, nil
}

func (s *workoutService) GetWithExercises(ctx context.Context, id string) (*domain.Workout, error) {
	var workout domain.Workout
	err := s.sb.From("workouts").
		Select("*,exercises:workout_exercises(*)").
		Eq("id", id).
		Single().
		AsUser(s.token).
		Get(ctx, &workout)
	if err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	sortExercises(workout.Exercises)
	return &workout, nil
}

func (s *workoutService) Create(ctx context.Context, coach *domain.Profile, workout domain.Workout, exercises []domain.WorkoutExercise) (*domain.Workout, error) {
	if workout.Name == "" {
		return nil, ErrWorkoutNameEmpty
	}
	if coach == nil || coach.ID == "" {
		return nil, ErrMissingCoach
	}

	existing, err := s.ListByCreator(ctx, coach.ID)
	if err != nil {
		return nil, err
	}
	if !coach.Limits.Allows(coach.Limits.MaxWorkouts, len(existing)) {
		return nil, ErrWorkoutLimit
	}

	row := map[string]any{
		"name":       workout.Name,
		"created_by": coach.ID,
	}
	if len(workout.Themes) > 0 {
		row["themes"] = workout.Themes
	}
	if workout.Difficulty != "" {
		row["difficulty"] = workout.Difficulty
	}
	if workout.DurationMn > 0 {
		row["duration_minutes"] = workout.DurationMn
	}

	var created domain.Workout
	err = s.sb.From("workouts").
		Single().
		AsUser(s.token).
		Insert(ctx, row, &created)
	if err != nil {
		return nil, err
	}

	if len(exercises) > 0 {
		rows := make([]map[string]any, len(exercises))
		for i, ex := range exercises {
			rows[i] = map[string]any{
				"workout_id":   created.ID,
				"exercise_id":  ex.ExerciseID,
				"name":         ex.Name,
				"position":     i,
				"sets":         ex.Sets,
				"reps":         ex.Reps,
				"rest_seconds": ex.RestSec,
			}
		}
		var createdExercises []domain.WorkoutExercise
		err = s.sb.From("workout_exercises").
			AsUser(s.token).
			Insert(ctx, rows, &createdExercises)
		if err != nil {
			// No multi-statement transaction is available: the child step
			// failed, so the whole create fails and the caller must not use
			// the parent. Best effort compensating cleanup.
			_ = s.sb.From("workouts").Eq("id", created.ID).AsUser(s.token).Delete(ctx)
			return nil, fmt.Errorf("create workout exercises: %w", err)
		}
		sortExercises(createdExercises)
		created.Exercises = createdExercises
	}

	return &created, nil
}

func (s *workoutService) Update(ctx context.Context, id string, patch map[string]any) (*domain.Workout, error) {
	var updated domain.Workout
	err := s.sb.From("workouts").
		Eq("id", id).
		Single().
		AsUser(s.token).
		Update(ctx, patch, &updated)
	if err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	return &updated, nil
}

func (s *workoutService) Delete(ctx context.Context, id string) error {
	// Children first; an orphaned association row would otherwise survive
	// the workout it points at.
	err := s.sb.From("workout_exercises").
		Eq("workout_id", id).
		AsUser(s.token).
		Delete(ctx)
	if err != nil {
		return fmt.Errorf("delete workout exercises: %w", err)
	}

	return s.sb.From("workouts").
		Eq("id", id).
		AsUser(s.token).
		Delete(ctx)
}

func sortExercises(exercises []domain.WorkoutExercise) {
	sort.Slice(exercises, func(i, j int) bool {
		return exercises[i].Position < exercises[j].Position
	})
}
