package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mateusfaissal/batepapo-api/internal/models"
)

const (
	presenceKey = "participants:by_status" // ZSet: member=name, score=lastStatus
	messagesKey = "messages"               // ZSet: member=JSON, score=createdAt

	// visibilityPage is how many messages each ZRevRange page fetches while
	// filtering for a viewer.
	visibilityPage = 200
)

// RedisStore handles Redis operations for participants and messages.
// Participants live under one key each plus a sorted set scored by
// lastStatus, so the stale scan is a single ZRangeByScore.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() {
	s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// participantKey returns the key holding a participant's record.
func participantKey(name string) string {
	return fmt.Sprintf("participant:%s", name)
}

// CreateParticipant registers the participant and its join announcement.
// SETNX on the participant key enforces name uniqueness; the presence score
// and the announcement are then written atomically (MULTI/EXEC).
func (s *RedisStore) CreateParticipant(ctx context.Context, p *models.Participant, announce *models.Message) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}

	set, err := s.client.SetNX(ctx, participantKey(p.Name), string(data), 0).Result()
	if err != nil {
		return err
	}
	if !set {
		return ErrDuplicate
	}

	msgData, err := json.Marshal(announce)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, presenceKey, redis.Z{Score: float64(p.LastStatus), Member: p.Name})
		pipe.ZAdd(ctx, messagesKey, redis.Z{Score: float64(announce.CreatedAt), Member: string(msgData)})
		return nil
	})
	return err
}

// GetParticipant retrieves a participant by name. Returns nil, nil when no
// such participant exists.
func (s *RedisStore) GetParticipant(ctx context.Context, name string) (*models.Participant, error) {
	data, err := s.client.Get(ctx, participantKey(name)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p := &models.Participant{}
	if err := json.Unmarshal([]byte(data), p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListParticipants retrieves all active participants, ordered by freshness.
func (s *RedisStore) ListParticipants(ctx context.Context) ([]models.Participant, error) {
	names, err := s.client.ZRange(ctx, presenceKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return s.fetchParticipants(ctx, names)
}

// TouchParticipant refreshes lastStatus for the named participant. Returns
// false when no such participant exists.
func (s *RedisStore) TouchParticipant(ctx context.Context, name string, lastStatus int64) (bool, error) {
	p, err := s.GetParticipant(ctx, name)
	if err != nil {
		return false, err
	}
	if p == nil {
		return false, nil
	}

	p.LastStatus = lastStatus
	data, err := json.Marshal(p)
	if err != nil {
		return false, err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, participantKey(name), string(data), 0)
		pipe.ZAdd(ctx, presenceKey, redis.Z{Score: float64(lastStatus), Member: name})
		return nil
	})
	return err == nil, err
}

// ListStaleParticipants retrieves participants whose lastStatus is strictly
// older than the given threshold.
func (s *RedisStore) ListStaleParticipants(ctx context.Context, olderThan int64) ([]models.Participant, error) {
	names, err := s.client.ZRangeByScore(ctx, presenceKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("(%d", olderThan), // exclusive
	}).Result()
	if err != nil {
		return nil, err
	}
	return s.fetchParticipants(ctx, names)
}

// RemoveParticipant deletes the participant and records its farewell
// announcement atomically (MULTI/EXEC).
func (s *RedisStore) RemoveParticipant(ctx context.Context, name string, farewell *models.Message) error {
	msgData, err := json.Marshal(farewell)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, participantKey(name))
		pipe.ZRem(ctx, presenceKey, name)
		pipe.ZAdd(ctx, messagesKey, redis.Z{Score: float64(farewell.CreatedAt), Member: string(msgData)})
		return nil
	})
	return err
}

// InsertMessage persists a message in the message sorted set.
func (s *RedisStore) InsertMessage(ctx context.Context, msg *models.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return s.client.ZAdd(ctx, messagesKey, redis.Z{
		Score:  float64(msg.CreatedAt),
		Member: string(data),
	}).Err()
}

// ListVisibleMessages retrieves the newest messages visible to viewer,
// newest-first, at most limit. Visibility cannot be expressed as a score
// range, so pages are fetched newest-first and filtered until limit is met.
func (s *RedisStore) ListVisibleMessages(ctx context.Context, viewer string, limit int) ([]models.Message, error) {
	msgs := make([]models.Message, 0, limit)

	for offset := int64(0); ; offset += visibilityPage {
		page, err := s.client.ZRevRange(ctx, messagesKey, offset, offset+visibilityPage-1).Result()
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		for _, data := range page {
			var m models.Message
			if err := json.Unmarshal([]byte(data), &m); err != nil {
				continue
			}
			if !m.VisibleTo(viewer) {
				continue
			}
			msgs = append(msgs, m)
			if len(msgs) >= limit {
				return msgs, nil
			}
		}
	}

	return msgs, nil
}

// CountParticipants returns the number of active participants.
func (s *RedisStore) CountParticipants(ctx context.Context) (int64, error) {
	return s.client.ZCard(ctx, presenceKey).Result()
}

// CountMessages returns the total number of stored messages.
func (s *RedisStore) CountMessages(ctx context.Context) (int64, error) {
	return s.client.ZCard(ctx, messagesKey).Result()
}

// LastMessageAt returns the creation time of the most recent message, or 0
// when no messages exist.
func (s *RedisStore) LastMessageAt(ctx context.Context) (int64, error) {
	results, err := s.client.ZRevRangeWithScores(ctx, messagesKey, 0, 0).Result()
	if err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return int64(results[0].Score), nil
}

// fetchParticipants resolves a list of names into participant records.
// Names whose record vanished mid-scan are skipped.
func (s *RedisStore) fetchParticipants(ctx context.Context, names []string) ([]models.Participant, error) {
	if len(names) == 0 {
		return nil, nil
	}

	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = participantKey(name)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]models.Participant, 0, len(values))
	for _, v := range values {
		data, ok := v.(string)
		if !ok {
			continue
		}
		var p models.Participant
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}
