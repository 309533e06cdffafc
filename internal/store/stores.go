package store

import "peakform/coach-app/internal/domain"

// NewClientStore creates the client roster store.
func NewClientStore() *Collection[domain.Client] {
	return NewCollection(func(c domain.Client) string { return c.ID })
}

// NewWorkoutStore creates the workout catalog store.
func NewWorkoutStore() *Collection[domain.Workout] {
	return NewCollection(func(w domain.Workout) string { return w.ID })
}
