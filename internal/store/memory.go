package store

import (
	"context"
	"sort"
	"sync"

	"github.com/mateusfaissal/batepapo-api/internal/models"
)

// MemoryStore is an in-process DataStore used by tests and local
// experiments. It mirrors the transactional pairing of the durable backends
// under a single mutex.
type MemoryStore struct {
	mu           sync.Mutex
	participants map[string]models.Participant
	messages     []models.Message
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		participants: make(map[string]models.Participant),
	}
}

// Close is a no-op.
func (s *MemoryStore) Close() {}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// CreateParticipant registers the participant and its join announcement.
// Returns ErrDuplicate when the name is already registered.
func (s *MemoryStore) CreateParticipant(ctx context.Context, p *models.Participant, announce *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.participants[p.Name]; ok {
		return ErrDuplicate
	}
	s.participants[p.Name] = *p
	s.messages = append(s.messages, *announce)
	return nil
}

// GetParticipant retrieves a participant by name. Returns nil, nil when no
// such participant exists.
func (s *MemoryStore) GetParticipant(ctx context.Context, name string) (*models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[name]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// ListParticipants retrieves all active participants, ordered by name so
// repeated calls are deterministic.
func (s *MemoryStore) ListParticipants(ctx context.Context) ([]models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// TouchParticipant refreshes lastStatus for the named participant. Returns
// false when no such participant exists.
func (s *MemoryStore) TouchParticipant(ctx context.Context, name string, lastStatus int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[name]
	if !ok {
		return false, nil
	}
	p.LastStatus = lastStatus
	s.participants[name] = p
	return true, nil
}

// ListStaleParticipants retrieves participants whose lastStatus is strictly
// older than the given threshold.
func (s *MemoryStore) ListStaleParticipants(ctx context.Context, olderThan int64) ([]models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Participant
	for _, p := range s.participants {
		if p.LastStatus < olderThan {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// RemoveParticipant deletes the participant and records its farewell
// announcement.
func (s *MemoryStore) RemoveParticipant(ctx context.Context, name string, farewell *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.participants, name)
	s.messages = append(s.messages, *farewell)
	return nil
}

// InsertMessage persists a message.
func (s *MemoryStore) InsertMessage(ctx context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = append(s.messages, *msg)
	return nil
}

// ListVisibleMessages retrieves the newest messages visible to viewer,
// newest-first, at most limit.
func (s *MemoryStore) ListVisibleMessages(ctx context.Context, viewer string, limit int) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := make([]models.Message, 0, limit)
	for i := len(s.messages) - 1; i >= 0 && len(msgs) < limit; i-- {
		if s.messages[i].VisibleTo(viewer) {
			msgs = append(msgs, s.messages[i])
		}
	}
	return msgs, nil
}

// CountParticipants returns the number of active participants.
func (s *MemoryStore) CountParticipants(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.participants)), nil
}

// CountMessages returns the total number of stored messages.
func (s *MemoryStore) CountMessages(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.messages)), nil
}

// LastMessageAt returns the creation time of the most recent message, or 0
// when no messages exist.
func (s *MemoryStore) LastMessageAt(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.messages) == 0 {
		return 0, nil
	}
	return s.messages[len(s.messages)-1].CreatedAt, nil
}
