package cache

import (
	"context"
	"math"
	"math/rand"
	"time"

	"peakform/coach-app/internal/supabase"
)

// RetryPolicy retries transient failures with exponential backoff and
// jitter. Authorization denials are never retried: the backend already said
// no, and asking again the same way cannot change the answer.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	Jitter         float64
	// Retryable classifies errors; defaults to the remote data client's
	// taxonomy (transport and 5xx yes, permission and not-found no).
	Retryable func(error) bool
}

// DefaultRetryPolicy returns the standard policy: three attempts total.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2.0,
		Jitter:         0.1,
		Retryable:      supabase.IsRetryable,
	}
}

// Do runs fn, retrying per the policy.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = supabase.IsRetryable
	}

	var val any
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.backoff(attempt)):
			}
		}

		val, err = fn(ctx)
		if err == nil {
			return val, nil
		}
		if !retryable(err) {
			return nil, err
		}
	}
	return nil, err
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	d := float64(p.InitialBackoff) * math.Pow(p.Multiplier, float64(attempt-1))
	if max := float64(p.MaxBackoff); p.MaxBackoff > 0 && d > max {
		d = max
	}
	if p.Jitter > 0 {
		d += d * p.Jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(d)
}
