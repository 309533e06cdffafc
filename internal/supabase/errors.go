package supabase

import (
	"errors"
	"fmt"
)

// Error taxonomy for the remote data plane. Callers branch on these instead
// of inspecting raw payloads:
//
//   - TransportError: no response arrived. Recoverable by retry.
//   - ErrPermissionDenied: row-level policy or auth rejected the call. Never
//     retried; surfaced to the user as a permission message.
//   - ErrNotFound: a single-row lookup matched nothing. Not an error for
//     "maybe" reads, which map it to a nil result.
//   - APIError: everything else the backend said no to (constraint
//     violations, bad requests).
var (
	ErrNotFound         = errors.New("no rows found")
	ErrPermissionDenied = errors.New("permission denied")
)

// TransportError wraps a network-level failure (no HTTP response).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("supabase: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("supabase: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("supabase: status %d", e.Status)
}

// IsRetryable reports whether an error represents a transient failure that a
// retry might resolve. Permission denials are explicitly not retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrPermissionDenied) || errors.Is(err, ErrNotFound) {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	var ae *APIError
	if errors.As(err, &ae) {
		switch ae.Status {
		case 429, 500, 502, 503, 504:
			return true
		}
	}
	return false
}
