// Package messaging owns the message lifecycle: addressing and type
// validation, authorship binding to an active participant, and visibility
// filtering on retrieval.
package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mateusfaissal/batepapo-api/internal/models"
	"github.com/mateusfaissal/batepapo-api/internal/store"
)

var (
	// ErrInvalidType is returned when a client submits a type other than
	// broadcast or private. Status messages are system-generated only.
	ErrInvalidType = errors.New("messaging: type must be message or private_message")
	// ErrEmptyRecipient is returned when the recipient is missing.
	ErrEmptyRecipient = errors.New("messaging: to must not be empty")
	// ErrEmptyText is returned when the message body is missing.
	ErrEmptyText = errors.New("messaging: text must not be empty")
	// ErrInvalidSender is returned when the sender is empty or does not name
	// a currently active participant.
	ErrInvalidSender = errors.New("messaging: sender is not an active participant")
	// ErrInvalidLimit is returned when a retrieval limit is missing or not a
	// positive integer. There is no "all messages" fallback.
	ErrInvalidLimit = errors.New("messaging: limit must be a positive integer")
	// ErrEmptyViewer is returned when retrieval lacks a viewer identity.
	ErrEmptyViewer = errors.New("messaging: viewer must not be empty")
)

// Router implements message sending and retrieval over a DataStore. Sender
// identity is always an explicit parameter, never ambient state.
type Router struct {
	store store.DataStore
}

// NewRouter creates a Router backed by the given store.
func NewRouter(st store.DataStore) *Router {
	return &Router{store: st}
}

// Send validates addressing and type, binds authorship to an active
// participant, and persists the message. The activity check happens at send
// time; the sender may be evicted immediately after, which is accepted.
func (r *Router) Send(ctx context.Context, from, to, text, msgType string) (*models.Message, error) {
	if msgType != models.TypeBroadcast && msgType != models.TypePrivate {
		return nil, ErrInvalidType
	}
	if to == "" {
		return nil, ErrEmptyRecipient
	}
	if text == "" {
		return nil, ErrEmptyText
	}

	if from == "" {
		return nil, ErrInvalidSender
	}
	sender, err := r.store.GetParticipant(ctx, from)
	if err != nil {
		return nil, err
	}
	if sender == nil {
		return nil, ErrInvalidSender
	}

	msg := &models.Message{
		ID:        ulid.Make().String(),
		From:      from,
		To:        to,
		Text:      text,
		Type:      msgType,
		CreatedAt: time.Now().UnixMilli(),
	}

	if err := r.store.InsertMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Retrieve returns the newest messages visible to viewer, newest-first,
// truncated to limit. Each call is a fresh snapshot; no stability is
// promised across calls.
func (r *Router) Retrieve(ctx context.Context, viewer string, limit int) ([]models.Message, error) {
	if viewer == "" {
		return nil, ErrEmptyViewer
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	return r.store.ListVisibleMessages(ctx, viewer, limit)
}
