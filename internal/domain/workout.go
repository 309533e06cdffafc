package domain

import "time"

// Workout is a named exercise program template owned by a coach.
type Workout struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Themes     []string  `json:"themes,omitempty"`
	Difficulty string    `json:"difficulty,omitempty"`
	DurationMn int       `json:"duration_minutes,omitempty"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Populated by reads that join the association table; ordered by Position.
	Exercises []WorkoutExercise `json:"exercises,omitempty"`
}

// WorkoutExercise associates one exercise with a workout, ordered by
// Position. These rows are owned by the workout: deleting the workout
// removes them first (the backend has no cascade here).
type WorkoutExercise struct {
	ID         string `json:"id"`
	WorkoutID  string `json:"workout_id"`
	ExerciseID string `json:"exercise_id"`
	Name       string `json:"name"`
	Position   int    `json:"position"`
	Sets       int    `json:"sets"`
	Reps       int    `json:"reps"`
	RestSec    int    `json:"rest_seconds"`
}
