package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mateusfaissal/batepapo-api/internal/models"
)

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool and
// ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	s := &PostgresStore{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// initSchema creates tables if they don't exist. The unique constraint on
// participants.name is what closes the concurrent-registration race.
func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS participants (
		id UUID PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		last_status BIGINT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		from_name TEXT NOT NULL,
		to_name TEXT NOT NULL,
		text TEXT NOT NULL,
		type TEXT NOT NULL,
		created_at BIGINT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_participants_last_status ON participants(last_status);
	CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_messages_visibility ON messages(to_name, from_name);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// CreateParticipant inserts the participant and its join announcement in one
// transaction. Returns ErrDuplicate when the name is already registered.
func (s *PostgresStore) CreateParticipant(ctx context.Context, p *models.Participant, announce *models.Message) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO participants (id, name, last_status)
		VALUES ($1, $2, $3)
	`, p.ID, p.Name, p.LastStatus)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}

	if err := insertMessageTx(ctx, tx, announce); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetParticipant retrieves a participant by name. Returns nil, nil when no
// such participant exists.
func (s *PostgresStore) GetParticipant(ctx context.Context, name string) (*models.Participant, error) {
	p := &models.Participant{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, last_status
		FROM participants WHERE name = $1
	`, name).Scan(&p.ID, &p.Name, &p.LastStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// ListParticipants retrieves all active participants, ordered by name so
// repeated calls are deterministic.
func (s *PostgresStore) ListParticipants(ctx context.Context) ([]models.Participant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, last_status
		FROM participants
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanParticipants(rows)
}

// TouchParticipant refreshes last_status for the named participant. Returns
// false when no such participant exists.
func (s *PostgresStore) TouchParticipant(ctx context.Context, name string, lastStatus int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE participants SET last_status = $1 WHERE name = $2
	`, lastStatus, name)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListStaleParticipants retrieves participants whose last_status is strictly
// older than the given threshold.
func (s *PostgresStore) ListStaleParticipants(ctx context.Context, olderThan int64) ([]models.Participant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, last_status
		FROM participants
		WHERE last_status < $1
	`, olderThan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanParticipants(rows)
}

// RemoveParticipant deletes the participant and inserts its farewell
// announcement in one transaction. Deleting an already-gone participant is
// not an error; the farewell is still recorded.
func (s *PostgresStore) RemoveParticipant(ctx context.Context, name string, farewell *models.Message) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM participants WHERE name = $1`, name); err != nil {
		return err
	}

	if err := insertMessageTx(ctx, tx, farewell); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// InsertMessage persists a message.
func (s *PostgresStore) InsertMessage(ctx context.Context, msg *models.Message) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (id, from_name, to_name, text, type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, msg.ID, msg.From, msg.To, msg.Text, msg.Type, msg.CreatedAt)
	return err
}

// ListVisibleMessages retrieves the newest messages visible to viewer,
// newest-first, at most limit. ULIDs sort by creation time, so id breaks
// created_at ties in insertion order.
func (s *PostgresStore) ListVisibleMessages(ctx context.Context, viewer string, limit int) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, from_name, to_name, text, type, created_at
		FROM messages
		WHERE to_name = $1 OR to_name = $2 OR from_name = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, models.BroadcastRecipient, viewer, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.From, &m.To, &m.Text, &m.Type, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// CountParticipants returns the number of active participants.
func (s *PostgresStore) CountParticipants(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM participants`).Scan(&count)
	return count, err
}

// CountMessages returns the total number of stored messages.
func (s *PostgresStore) CountMessages(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}

// LastMessageAt returns the creation time of the most recent message, or 0
// when no messages exist.
func (s *PostgresStore) LastMessageAt(ctx context.Context) (int64, error) {
	var last int64
	err := s.pool.QueryRow(ctx, `SELECT COALESCE(MAX(created_at), 0) FROM messages`).Scan(&last)
	return last, err
}

func insertMessageTx(ctx context.Context, tx pgx.Tx, msg *models.Message) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO messages (id, from_name, to_name, text, type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, msg.ID, msg.From, msg.To, msg.Text, msg.Type, msg.CreatedAt)
	return err
}

func scanParticipants(rows pgx.Rows) ([]models.Participant, error) {
	var out []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.Name, &p.LastStatus); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
