package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/mateusfaissal/batepapo-api/internal/api/middleware"
	"github.com/mateusfaissal/batepapo-api/internal/handlers"
	"github.com/mateusfaissal/batepapo-api/internal/messaging"
	"github.com/mateusfaissal/batepapo-api/internal/presence"
	"github.com/mateusfaissal/batepapo-api/internal/store"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(logger zerolog.Logger, st store.DataStore, tracker *presence.Tracker, router *messaging.Router) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware (order matters!)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(8 * 1024)) // 8KB max body
	r.Use(middleware.RequireJSON)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// CORS - allow all origins (the room is open to any client)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "User"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(tracker, router, st, logger)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Get("/stats", h.Stats)

	r.Post("/participants", h.AddParticipant)
	r.Get("/participants", h.ListParticipants)
	r.Post("/messages", h.PostMessage)
	r.Get("/messages", h.GetMessages)
	r.Post("/status", h.Heartbeat)

	return r
}
