// Command functions serves the server-side function endpoints: checkout
// sessions, transactional email, and invitations. Everything else in the
// application talks to the hosted backend directly.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"peakform/coach-app/internal/api"
	"peakform/coach-app/internal/billing"
	"peakform/coach-app/internal/config"
	"peakform/coach-app/internal/email"
	"peakform/coach-app/internal/logger"
	"peakform/coach-app/internal/service"
	"peakform/coach-app/internal/supabase"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Error("could not load config", "error", err)
		os.Exit(1)
	}
	logger.Init(cfg.Server.Env)
	logger.Info("configuration loaded", "env", cfg.Server.Env)

	// The function endpoints act with the service key: invitation issuing
	// needs admin auth calls. This is the only process that holds it.
	sb, err := supabase.New(supabase.Config{
		URL:    cfg.Supabase.URL,
		APIKey: cfg.Supabase.ServiceKey,
	})
	if err != nil {
		logger.Error("could not create backend client", "error", err)
		os.Exit(1)
	}

	billingClient, err := billing.New(cfg.Payment.SecretKey)
	if err != nil {
		logger.Error("could not create billing client", "error", err)
		os.Exit(1)
	}

	mail, err := email.NewAPIProvider(cfg.Email.APIKey, cfg.Email.FromAddress)
	if err != nil {
		logger.Error("could not create email provider", "error", err)
		os.Exit(1)
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
	}

	invites := service.NewInviteService(sb, mail, cfg.App.BaseURL)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	api.SetupRoutes(router, api.RouteDeps{
		JWTSecret:     cfg.Supabase.JWTSecret,
		AppBaseURL:    cfg.App.BaseURL,
		AllowedOrigin: cfg.App.BaseURL,
		Billing:       billingClient,
		Mail:          mail,
		Invites:       invites,
		Redis:         rdb,
	})

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server starting", "address", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen and serve", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server exited")
}
