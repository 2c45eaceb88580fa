package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mateusfaissal/batepapo-api/internal/metrics"
	"github.com/mateusfaissal/batepapo-api/internal/models"
	"github.com/mateusfaissal/batepapo-api/internal/presence"
)

// AddParticipantRequest represents the registration request body.
type AddParticipantRequest struct {
	Name string `json:"name" validate:"required"`
}

// AddParticipant handles participant registration.
func (h *Handler) AddParticipant(w http.ResponseWriter, r *http.Request) {
	var req AddParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return
	}

	req.Name = sanitizeName(req.Name)
	if err := validate.Struct(req); err != nil {
		h.ValidationError(w, constraintMessages(err))
		return
	}

	p, err := h.tracker.Register(r.Context(), req.Name)
	if err != nil {
		switch {
		case errors.Is(err, presence.ErrNameTaken):
			h.Error(w, http.StatusConflict, "name already registered")
		case errors.Is(err, presence.ErrEmptyName):
			h.ValidationError(w, []string{"name is required"})
		default:
			h.StoreError(w, r, err)
		}
		return
	}

	metrics.ParticipantsRegistered.Inc()

	h.JSON(w, http.StatusCreated, p)
}

// ListParticipants handles listing all active participants.
func (h *Handler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := h.tracker.ListActive(r.Context())
	if err != nil {
		h.StoreError(w, r, err)
		return
	}

	if participants == nil {
		participants = []models.Participant{}
	}
	h.JSON(w, http.StatusOK, participants)
}
