// Package app is the composition root for the client-facing side. It owns
// the one remote data client handle every other component borrows; nothing
// outside this package constructs its own connection from raw credentials.
package app

import (
	"context"
	"fmt"

	"peakform/coach-app/internal/authgate"
	"peakform/coach-app/internal/cache"
	"peakform/coach-app/internal/config"
	"peakform/coach-app/internal/domain"
	"peakform/coach-app/internal/presence"
	"peakform/coach-app/internal/service"
	"peakform/coach-app/internal/storage"
	"peakform/coach-app/internal/store"
	"peakform/coach-app/internal/supabase"
)

// App wires the remote data client, cache, stores, and session routing.
type App struct {
	cfg   config.Config
	sb    *supabase.Client
	cache *cache.Cache
	files storage.FileStorage

	Auth     *store.AuthStore
	Clients  *store.Collection[domain.Client]
	Workouts *store.Collection[domain.Workout]
	gate     *authgate.Gate
	realtime *supabase.RealtimeClient
}

// New builds the application from configuration. The anon key is the only
// credential this side ever holds.
func New(cfg config.Config, statePath string) (*App, error) {
	sb, err := supabase.New(supabase.Config{
		URL:    cfg.Supabase.URL,
		APIKey: cfg.Supabase.AnonKey,
	})
	if err != nil {
		return nil, err
	}

	var files storage.FileStorage
	switch cfg.Storage.Driver {
	case "", "supabase":
		files = storage.NewSupabaseStorage(sb, cfg.Storage.Bucket)
	case "s3":
		files, err = storage.NewS3Storage(cfg.Storage)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	return &App{
		cfg:      cfg,
		sb:       sb,
		cache:    cache.New(),
		files:    files,
		Auth:     store.NewAuthStore(statePath),
		Clients:  store.NewClientStore(),
		Workouts: store.NewWorkoutStore(),
		gate:     authgate.New(sb, cfg.Supabase.JWTSecret),
		realtime: sb.Realtime(),
	}, nil
}

// Cache returns the shared query cache.
func (a *App) Cache() *cache.Cache {
	return a.cache
}

// Files returns the media storage driver.
func (a *App) Files() storage.FileStorage {
	return a.files
}

// Session is the service bundle scoped to one signed-in principal. Each
// service acts with the session's token so row-level policies apply.
type Session struct {
	Token     string
	Profiles  service.ProfileService
	Clients   service.ClientService
	Workouts  service.WorkoutService
	Sessions  service.SessionService
	Feedback  service.FeedbackService
	Photos    service.PhotoService
	Voice     service.VoiceService
	Nutrition service.NutritionService
}

// Services builds the per-session service bundle for an access token. Every
// service is wrapped so its mutations invalidate the covering cache keys on
// success; a consumer reading through the cache right after a write never
// sees the pre-write value served as fresh.
func (a *App) Services(accessToken string) *Session {
	return &Session{
		Token:     accessToken,
		Profiles:  cachedProfiles{service.NewProfileService(a.sb, accessToken), a.cache},
		Clients:   cachedClients{service.NewClientService(a.sb, accessToken), a.cache},
		Workouts:  cachedWorkouts{service.NewWorkoutService(a.sb, accessToken), a.cache},
		Sessions:  cachedSessions{service.NewSessionService(a.sb, accessToken), a.cache},
		Feedback:  cachedFeedback{service.NewFeedbackService(a.sb, accessToken), a.cache},
		Photos:    cachedPhotos{service.NewPhotoService(a.sb, a.files, a.cfg.Storage.SignedURLExpiry, accessToken), a.cache},
		Voice:     cachedVoice{service.NewVoiceService(a.sb, a.files, a.cfg.Storage.SignedURLExpiry, accessToken), a.cache},
		Nutrition: cachedNutrition{service.NewNutritionService(a.sb, accessToken), a.cache},
	}
}

// SignIn authenticates, stores the session, and resolves the landing route.
func (a *App) SignIn(ctx context.Context, email, password string) (*authgate.Resolution, error) {
	a.Auth.SetLoading(true)
	defer a.Auth.SetLoading(false)

	session, err := a.sb.Auth().SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	a.Auth.SetSession(session)

	resolution, err := a.gate.Resolve(ctx, session)
	if err != nil {
		return nil, err
	}
	if resolution.Session != nil {
		a.Auth.SetSession(resolution.Session)
	}
	if resolution.Profile != nil {
		if err := a.Auth.SetProfile(resolution.Profile); err != nil {
			return nil, err
		}
	}
	return resolution, nil
}

// Resolve routes the stored session, refreshing it when the gate does.
func (a *App) Resolve(ctx context.Context) (*authgate.Resolution, error) {
	resolution, err := a.gate.Resolve(ctx, a.Auth.Session())
	if err != nil {
		return nil, err
	}
	if resolution.Session != nil {
		a.Auth.SetSession(resolution.Session)
	}
	if resolution.Profile != nil {
		if err := a.Auth.SetProfile(resolution.Profile); err != nil {
			return nil, err
		}
	}
	return resolution, nil
}

// ChangePassword completes the forced password-change flow.
func (a *App) ChangePassword(ctx context.Context, newPassword string) error {
	return a.gate.ChangePassword(ctx, a.Auth.Session(), newPassword)
}

// SignOut revokes the session and drops all local state.
func (a *App) SignOut(ctx context.Context) error {
	if session := a.Auth.Session(); session != nil && session.AccessToken != "" {
		if err := a.sb.Auth().SignOut(ctx, session.AccessToken); err != nil {
			return err
		}
	}
	_ = a.realtime.Disconnect()
	return a.Auth.Clear()
}

// PresenceWatcher creates a watcher for the counterpart on a pairing topic.
// The caller owns the watcher and must Stop it.
func (a *App) PresenceWatcher(ctx context.Context, topic, selfKey, counterpartKey string) (*presence.Watcher, error) {
	if err := a.realtime.Connect(ctx); err != nil {
		return nil, err
	}
	channel := a.realtime.Channel(topic)
	return presence.NewWatcher(channel, selfKey, counterpartKey), nil
}
