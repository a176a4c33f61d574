// Command server runs the threads backend: the client-facing HTTP API,
// the identity webhook, and the notification subscriber.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/threadsapp/threads-backend/api"
	"github.com/threadsapp/threads-backend/api/validator"
	"github.com/threadsapp/threads-backend/auth"
	"github.com/threadsapp/threads-backend/config"
	"github.com/threadsapp/threads-backend/events"
	natsclient "github.com/threadsapp/threads-backend/nats"
	"github.com/threadsapp/threads-backend/notify"
	"github.com/threadsapp/threads-backend/postgres"
	"github.com/threadsapp/threads-backend/push"
	"github.com/threadsapp/threads-backend/redis"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pg, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		logger.Error("Could not connect to postgres", "error", err.Error())
		os.Exit(1)
	}

	cache, err := redis.Connect(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("Could not connect to redis", "error", err.Error())
		os.Exit(1)
	}

	var verifier *auth.Verifier
	if cfg.JWTSecret == "" {
		logger.Warn("JWT_SECRET not set, authenticated endpoints will reject all callers")
	} else {
		verifier, err = auth.NewVerifier(cfg.JWTSecret)
		if err != nil {
			logger.Error("Could not create verifier", "error", err.Error())
			os.Exit(1)
		}
	}

	pusher := &push.Client{
		AccessToken: cfg.ExpoAccessToken,
		Logger:      logger,
	}
	if cfg.ExpoAccessToken == "" {
		logger.Warn("EXPO_ACCESS_TOKEN not set, push delivery is disabled")
	}

	// NATS is optional: without it the API still serves, only event
	// publishing and push notifications are off.
	var publisher *events.Publisher
	nc, err := natsclient.Connect(natsclient.Config{
		URL:           cfg.NATSURL,
		MaxReconnects: cfg.NATSMaxReconnects,
		ReconnectWait: cfg.NATSReconnectWait,
	}, logger)
	if err != nil {
		logger.Warn("Could not connect to NATS, event publishing is disabled", "error", err.Error())
	} else {
		defer nc.Close()
		publisher = events.NewPublisher(nc, logger)

		subscriber := notify.NewSubscriber(nc, pg, pusher, logger)
		if err := subscriber.Start(context.Background()); err != nil {
			logger.Error("Could not start notification subscriber", "error", err.Error())
			os.Exit(1)
		}
	}

	a := &api.API{
		Logger: logger,
		DB:     pg,
		Users:  pg,
		Cache:  cache,
		Blobs:  postgres.NewBlobStore(pg, cfg.MediaBaseURL),
		Val:    validator.New(),
	}
	if verifier != nil {
		a.Auth = verifier
	}
	if publisher != nil {
		a.Events = publisher
	}

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      a,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "addr", cfg.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err.Error())
			os.Exit(1)
		}

	case sig := <-quit:
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown failed", "error", err.Error())
			os.Exit(1)
		}
		logger.Info("Server stopped gracefully")
	}
}
