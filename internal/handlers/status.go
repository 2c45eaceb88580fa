package handlers

import (
	"errors"
	"net/http"

	"github.com/mateusfaissal/batepapo-api/internal/presence"
)

// Heartbeat handles presence refresh. A missing header and an unknown user
// both map to 404 per the external contract.
func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	name := r.Header.Get(userHeader)
	if name == "" {
		h.Error(w, http.StatusNotFound, "User header is required")
		return
	}

	if err := h.tracker.Heartbeat(r.Context(), name); err != nil {
		switch {
		case errors.Is(err, presence.ErrUnknownParticipant), errors.Is(err, presence.ErrEmptyName):
			h.Error(w, http.StatusNotFound, "unknown participant")
		default:
			h.StoreError(w, r, err)
		}
		return
	}

	h.JSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}
