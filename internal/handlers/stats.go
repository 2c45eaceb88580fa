package handlers

import (
	"net/http"
	"time"
)

// StatsResponse represents the response from the stats endpoint.
type StatsResponse struct {
	ActiveParticipants int64  `json:"active_participants"`
	TotalMessages      int64  `json:"total_messages"`
	LastMessageAt      string `json:"last_message_at"`
}

// Stats returns room activity aggregates.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	active, err := h.store.CountParticipants(ctx)
	if err != nil {
		h.StoreError(w, r, err)
		return
	}

	total, err := h.store.CountMessages(ctx)
	if err != nil {
		h.StoreError(w, r, err)
		return
	}

	lastAt, err := h.store.LastMessageAt(ctx)
	if err != nil {
		h.StoreError(w, r, err)
		return
	}

	last := "no messages yet"
	if lastAt > 0 {
		last = time.UnixMilli(lastAt).UTC().Format(time.RFC3339)
	}

	h.JSON(w, http.StatusOK, StatsResponse{
		ActiveParticipants: active,
		TotalMessages:      total,
		LastMessageAt:      last,
	})
}
