package store

import (
	"context"
	"errors"

	"github.com/mateusfaissal/batepapo-api/internal/models"
)

// ErrDuplicate is returned by CreateParticipant when the name is already
// registered. All backends enforce uniqueness natively (constraint or SETNX)
// rather than by check-then-insert.
var ErrDuplicate = errors.New("store: duplicate participant name")

// DataStore defines the interface for persistent storage of participants and
// messages. PostgresStore, SQLiteStore, RedisStore and MemoryStore implement
// this interface.
type DataStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// Participant operations. CreateParticipant persists the participant and
	// its join announcement as one unit (a transaction where the backend has
	// one). RemoveParticipant does the same for eviction and its farewell.
	CreateParticipant(ctx context.Context, p *models.Participant, announce *models.Message) error
	GetParticipant(ctx context.Context, name string) (*models.Participant, error)
	ListParticipants(ctx context.Context) ([]models.Participant, error)
	TouchParticipant(ctx context.Context, name string, lastStatus int64) (bool, error)
	ListStaleParticipants(ctx context.Context, olderThan int64) ([]models.Participant, error)
	RemoveParticipant(ctx context.Context, name string, farewell *models.Message) error

	// Message operations. ListVisibleMessages returns newest-first, at most
	// limit messages matching the visibility predicate for viewer.
	InsertMessage(ctx context.Context, msg *models.Message) error
	ListVisibleMessages(ctx context.Context, viewer string, limit int) ([]models.Message, error)

	// Aggregates for the stats endpoint.
	CountParticipants(ctx context.Context) (int64, error)
	CountMessages(ctx context.Context) (int64, error)
	LastMessageAt(ctx context.Context) (int64, error)
}
