package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/mateusfaissal/batepapo-api/internal/api"
	"github.com/mateusfaissal/batepapo-api/internal/config"
	"github.com/mateusfaissal/batepapo-api/internal/messaging"
	"github.com/mateusfaissal/batepapo-api/internal/presence"
	"github.com/mateusfaissal/batepapo-api/internal/store"
	"github.com/mateusfaissal/batepapo-api/internal/sweep"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Pick the store backend: Postgres, then Redis, then local SQLite.
	var (
		st  store.DataStore
		err error
	)
	switch {
	case cfg.DatabaseURL != "":
		st, err = store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		logger.Info().Msg("connected to PostgreSQL")
	case cfg.RedisURL != "":
		st, err = store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		logger.Info().Msg("connected to Redis")
	default:
		st, err = store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		logger.Info().Msg("using local SQLite store")
	}
	defer st.Close()

	tracker := presence.NewTracker(st, logger)
	router := messaging.NewRouter(st)

	// Start the inactivity sweep, decoupled from request handling.
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	scheduler := sweep.NewScheduler(tracker, cfg.SweepInterval, cfg.PresenceTimeout, logger)
	go scheduler.Run(sweepCtx)

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(logger, st, tracker, router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Dur("presence_timeout", cfg.PresenceTimeout).
			Dur("sweep_interval", cfg.SweepInterval).
			Msg("starting batepapo server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")
	stopSweep()

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
