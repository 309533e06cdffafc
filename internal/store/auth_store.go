package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"peakform/coach-app/internal/domain"
	"peakform/coach-app/internal/supabase"
)

// AuthStore holds the signed-in principal's session and profile. Unlike the
// entity stores, it survives restarts: a minimal identity subset (never
// tokens) is persisted to disk and reloaded on start; everything else is
// repopulated from the backend.
type AuthStore struct {
	mu         sync.RWMutex
	session    *supabase.Session
	profile    *domain.Profile
	firstLogin bool
	loading    bool
	path       string
}

// persistedIdentity is the subset written to disk.
type persistedIdentity struct {
	UserID    string      `json:"user_id"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	FirstName string      `json:"first_name"`
}

// NewAuthStore creates an auth store persisting to path ("" disables
// persistence).
func NewAuthStore(path string) *AuthStore {
	return &AuthStore{path: path}
}

// SetSession records the active session.
func (s *AuthStore) SetSession(session *supabase.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = session
}

// Session returns the active session, if any.
func (s *AuthStore) Session() *supabase.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// SetProfile records the resolved profile and persists the identity subset.
func (s *AuthStore) SetProfile(profile *domain.Profile) error {
	s.mu.Lock()
	s.profile = profile
	s.mu.Unlock()
	return s.save()
}

// Profile returns the resolved profile, if any.
func (s *AuthStore) Profile() *domain.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// SetFirstLogin flags the forced password-change condition.
func (s *AuthStore) SetFirstLogin(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.firstLogin = v
}

// FirstLogin reports whether the password-change flow is pending.
func (s *AuthStore) FirstLogin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.firstLogin
}

// SetLoading flips the loading flag.
func (s *AuthStore) SetLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
}

// Loading reports whether session resolution is in progress.
func (s *AuthStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Clear drops all state and the persisted identity (sign-out).
func (s *AuthStore) Clear() error {
	s.mu.Lock()
	s.session = nil
	s.profile = nil
	s.firstLogin = false
	s.mu.Unlock()

	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear persisted identity: %w", err)
	}
	return nil
}

// Load reads the persisted identity subset, if present. The result carries
// no session: callers still have to re-authenticate through the gate.
func (s *AuthStore) Load() (userID string, role domain.Role, ok bool) {
	if s.path == "" {
		return "", "", false
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", "", false
	}
	var id persistedIdentity
	if err := json.Unmarshal(data, &id); err != nil || id.UserID == "" {
		return "", "", false
	}
	return id.UserID, id.Role, true
}

func (s *AuthStore) save() error {
	if s.path == "" {
		return nil
	}
	s.mu.RLock()
	profile := s.profile
	s.mu.RUnlock()
	if profile == nil {
		return nil
	}

	data, err := json.Marshal(persistedIdentity{
		UserID:    profile.ID,
		Email:     profile.Email,
		Role:      profile.Role,
		FirstName: profile.FirstName,
	})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("persist identity: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("persist identity: %w", err)
	}
	return nil
}
