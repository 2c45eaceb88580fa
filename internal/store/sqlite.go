package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/mateusfaissal/batepapo-api/internal/models"
)

// SQLiteStore handles SQLite database operations. It is the default backend
// when neither DATABASE_URL nor REDIS_URL is configured.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/batepapo.db".
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/batepapo.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}

	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS participants (
		id TEXT PRIMARY KEY,
		name TEXT UNIQUE NOT NULL,
		last_status INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		from_name TEXT NOT NULL,
		to_name TEXT NOT NULL,
		text TEXT NOT NULL,
		type TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_participants_last_status ON participants(last_status);
	CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_messages_visibility ON messages(to_name, from_name);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateParticipant inserts the participant and its join announcement in one
// transaction. Returns ErrDuplicate when the name is already registered.
func (s *SQLiteStore) CreateParticipant(ctx context.Context, p *models.Participant, announce *models.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO participants (id, name, last_status)
		VALUES (?, ?, ?)
	`, p.ID.String(), p.Name, p.LastStatus)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrDuplicate
		}
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO messages (id, from_name, to_name, text, type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, announce.ID, announce.From, announce.To, announce.Text, announce.Type, announce.CreatedAt); err != nil {
		return err
	}

	return tx.Commit()
}

// GetParticipant retrieves a participant by name. Returns nil, nil when no
// such participant exists.
func (s *SQLiteStore) GetParticipant(ctx context.Context, name string) (*models.Participant, error) {
	p := &models.Participant{}
	var idStr string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, last_status
		FROM participants WHERE name = ?
	`, name).Scan(&idStr, &p.Name, &p.LastStatus)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListParticipants retrieves all active participants, ordered by name so
// repeated calls are deterministic.
func (s *SQLiteStore) ListParticipants(ctx context.Context) ([]models.Participant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, last_status
		FROM participants
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanParticipantRows(rows)
}

// TouchParticipant refreshes last_status for the named participant. Returns
// false when no such participant exists.
func (s *SQLiteStore) TouchParticipant(ctx context.Context, name string, lastStatus int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE participants SET last_status = ? WHERE name = ?
	`, lastStatus, name)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListStaleParticipants retrieves participants whose last_status is strictly
// older than the given threshold.
func (s *SQLiteStore) ListStaleParticipants(ctx context.Context, olderThan int64) ([]models.Participant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, last_status
		FROM participants
		WHERE last_status < ?
	`, olderThan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanParticipantRows(rows)
}

// RemoveParticipant deletes the participant and inserts its farewell
// announcement in one transaction.
func (s *SQLiteStore) RemoveParticipant(ctx context.Context, name string, farewell *models.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM participants WHERE name = ?`, name); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO messages (id, from_name, to_name, text, type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, farewell.ID, farewell.From, farewell.To, farewell.Text, farewell.Type, farewell.CreatedAt); err != nil {
		return err
	}

	return tx.Commit()
}

// InsertMessage persists a message.
func (s *SQLiteStore) InsertMessage(ctx context.Context, msg *models.Message) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, from_name, to_name, text, type, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.From, msg.To, msg.Text, msg.Type, msg.CreatedAt)
	return err
}

// ListVisibleMessages retrieves the newest messages visible to viewer,
// newest-first, at most limit.
func (s *SQLiteStore) ListVisibleMessages(ctx context.Context, viewer string, limit int) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, from_name, to_name, text, type, created_at
		FROM messages
		WHERE to_name = ? OR to_name = ? OR from_name = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, models.BroadcastRecipient, viewer, viewer, limit)
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
func (s *SQLiteStore) CountParticipants(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM participants`).Scan(&count)
	return count, err
}

// CountMessages returns the total number of stored messages.
func (s *SQLiteStore) CountMessages(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}

// LastMessageAt returns the creation time of the most recent message, or 0
// when no messages exist.
func (s *SQLiteStore) LastMessageAt(ctx context.Context) (int64, error) {
	var last int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(created_at), 0) FROM messages`).Scan(&last)
	return last, err
}

func scanParticipantRows(rows *sql.Rows) ([]models.Participant, error) {
	var out []models.Participant
	for rows.Next() {
		var p models.Participant
		var idStr string
		if err := rows.Scan(&idStr, &p.Name, &p.LastStatus); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, err
		}
		p.ID = id
		out = append(out, p)
	}
	return out, rows.Err()
}
