package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/mateusfaissal/batepapo-api/internal/messaging"
	"github.com/mateusfaissal/batepapo-api/internal/metrics"
	"github.com/mateusfaissal/batepapo-api/internal/models"
)

// userHeader carries the sender/viewer identity, preserved from the original
// wire contract. Handlers turn it into an explicit parameter immediately.
const userHeader = "User"

// PostMessageRequest represents the send message request body.
type PostMessageRequest struct {
	To   string `json:"to" validate:"required"`
	Text string `json:"text" validate:"required"`
	Type string `json:"type" validate:"required,oneof=message private_message"`
}

// PostMessage handles sending a broadcast or private message.
func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	from := r.Header.Get(userHeader)

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return
	}

	if err := validate.Struct(req); err != nil {
		h.ValidationError(w, constraintMessages(err))
		return
	}

	msg, err := h.router.Send(r.Context(), from, req.To, req.Text, req.Type)
	if err != nil {
		switch {
		case errors.Is(err, messaging.ErrInvalidSender):
			h.Error(w, http.StatusUnprocessableEntity, "sender is not an active participant")
		case errors.Is(err, messaging.ErrInvalidType),
			errors.Is(err, messaging.ErrEmptyRecipient),
			errors.Is(err, messaging.ErrEmptyText):
			h.Error(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.StoreError(w, r, err)
		}
		return
	}

	metrics.MessagesPosted.WithLabelValues(msg.Type).Inc()

	h.JSON(w, http.StatusCreated, msg)
}

// GetMessages handles retrieving the newest messages visible to the caller.
// The limit query parameter is mandatory; there is no "all messages"
// fallback.
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	viewer := r.Header.Get(userHeader)
	if viewer == "" {
		h.Error(w, http.StatusUnprocessableEntity, "User header is required")
		return
	}

	limitStr := r.URL.Query().Get("limit")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		h.Error(w, http.StatusUnprocessableEntity, "limit must be a positive integer")
		return
	}

	msgs, err := h.router.Retrieve(r.Context(), viewer, limit)
	if err != nil {
		switch {
		case errors.Is(err, messaging.ErrInvalidLimit), errors.Is(err, messaging.ErrEmptyViewer):
			h.Error(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.StoreError(w, r, err)
		}
		return
	}

	if msgs == nil {
		msgs = []models.Message{}
	}
	h.JSON(w, http.StatusOK, msgs)
}
