// Package presence owns the participant lifecycle: registration, heartbeat
// refresh, inactivity detection and eviction. Join and leave events are
// announced as status messages.
package presence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/mateusfaissal/batepapo-api/internal/models"
	"github.com/mateusfaissal/batepapo-api/internal/store"
)

// DefaultTimeout is how long a participant may stay silent before a sweep
// evicts it.
const DefaultTimeout = 10 * time.Second

// Announcement texts from the original wire contract; clients render them.
const (
	JoinedText = "entra na sala..."
	LeftText   = "sai da sala..."
)

var (
	// ErrEmptyName is returned when a name is missing from the request.
	ErrEmptyName = errors.New("presence: name must not be empty")
	// ErrNameTaken is returned when the name is already registered.
	ErrNameTaken = errors.New("presence: name already registered")
	// ErrUnknownParticipant is returned on heartbeat for a name that is not
	// currently active.
	ErrUnknownParticipant = errors.New("presence: unknown participant")
)

// Tracker implements participant presence over a DataStore.
type Tracker struct {
	store  store.DataStore
	logger zerolog.Logger
}

// NewTracker creates a Tracker backed by the given store.
func NewTracker(st store.DataStore, logger zerolog.Logger) *Tracker {
	return &Tracker{store: st, logger: logger}
}

// Register creates a participant and announces its arrival. The record and
// the announcement are written as one unit by the store; name uniqueness is
// enforced by the store's constraint rather than check-then-insert.
func (t *Tracker) Register(ctx context.Context, name string) (*models.Participant, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	now := time.Now()
	p := &models.Participant{
		ID:         uuid.New(),
		Name:       name,
		LastStatus: now.UnixMilli(),
	}

	err := t.store.CreateParticipant(ctx, p, statusMessage(name, JoinedText, now))
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrNameTaken
		}
		return nil, err
	}

	return p, nil
}

// ListActive returns all current participants.
func (t *Tracker) ListActive(ctx context.Context) ([]models.Participant, error) {
	return t.store.ListParticipants(ctx)
}

// Heartbeat refreshes the named participant's freshness timestamp. It is a
// refresh, not a state change; no other field is touched.
func (t *Tracker) Heartbeat(ctx context.Context, name string) error {
	if name == "" {
		return ErrEmptyName
	}

	ok, err := t.store.TouchParticipant(ctx, name, time.Now().UnixMilli())
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownParticipant
	}
	return nil
}

// SweepExpired evicts every participant silent for longer than timeout,
// announcing each departure. The stale set is materialized first, then
// processed sequentially; one participant's failure is logged and counted
// but never aborts the pass. Returns how many were evicted and how many
// evictions failed.
func (t *Tracker) SweepExpired(ctx context.Context, now time.Time, timeout time.Duration) (evicted, failed int, err error) {
	threshold := now.UnixMilli() - timeout.Milliseconds()

	stale, err := t.store.ListStaleParticipants(ctx, threshold)
	if err != nil {
		return 0, 0, err
	}

	for _, p := range stale {
		if err := t.store.RemoveParticipant(ctx, p.Name, statusMessage(p.Name, LeftText, now)); err != nil {
			failed++
			t.logger.Error().Err(err).Str("participant", p.Name).Msg("eviction failed")
			continue
		}
		evicted++
	}

	return evicted, failed, nil
}

// statusMessage builds a system-generated join/leave announcement.
func statusMessage(name, text string, at time.Time) *models.Message {
	return &models.Message{
		ID:        ulid.Make().String(),
		From:      name,
		To:        models.BroadcastRecipient,
		Text:      text,
		Type:      models.TypeStatus,
		CreatedAt: at.UnixMilli(),
	}
}
