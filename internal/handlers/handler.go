package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/mateusfaissal/batepapo-api/internal/messaging"
	"github.com/mateusfaissal/batepapo-api/internal/presence"
	"github.com/mateusfaissal/batepapo-api/internal/store"
)

// validate aggregates every violated constraint of a request struct, so a
// client gets all its mistakes back in one response.
var validate = validator.New()

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	tracker *presence.Tracker
	router  *messaging.Router
	store   store.DataStore
	logger  zerolog.Logger
}

// NewHandler creates a new Handler with the given collaborators.
func NewHandler(tracker *presence.Tracker, router *messaging.Router, st store.DataStore, logger zerolog.Logger) *Handler {
	return &Handler{tracker: tracker, router: router, store: st, logger: logger}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// ValidationError sends every violated constraint in one 422 response.
func (h *Handler) ValidationError(w http.ResponseWriter, errs []string) {
	h.JSON(w, http.StatusUnprocessableEntity, map[string][]string{"errors": errs})
}

// StoreError logs the underlying failure and reports a generic server error;
// internal error text is never leaked to clients.
func (h *Handler) StoreError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("store operation failed")
	h.Error(w, http.StatusInternalServerError, "store unavailable")
}

// constraintMessages flattens validator output into readable messages.
func constraintMessages(err error) []string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{"invalid request body"}
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return msgs
}

// sanitizeName trims and limits a display name to 100 characters, removing
// control characters.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)

	// Remove control characters
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)

	// Limit to 100 characters
	if len(name) > 100 {
		name = name[:100]
	}

	return name
}
