package history

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"roastreel/internal/config"
)

const (
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Store is an append-mostly sqlite ledger of session runs. It exists for
// inspection from the CLI and API; the pipeline never reads it back to make
// decisions.
type Store struct {
	db *sql.DB
}

// Open creates the ledger database under the configured log directory.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(ctx, filepath.Join(cfg.Paths.LogDir, "history.db"))
}

// OpenPath opens (creating if necessary) the ledger at an explicit path.
func OpenPath(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, execErr)
		}
	}

	store := &Store{db: db}
	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			candidate TEXT NOT NULL DEFAULT '',
			industry TEXT NOT NULL DEFAULT '',
			stage TEXT NOT NULL,
			final_media_id TEXT NOT NULL DEFAULT '',
			last_error TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS session_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			stage TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_session_events_session ON session_events(session_id)`,
	}
	for _, statement := range statements {
		if _, err := s.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("migrate history schema: %w", err)
		}
	}
	return nil
}

// Record is one session row as stored in the ledger.
type Record struct {
	ID           string
	Candidate    string
	Industry     string
	Stage        string
	FinalMediaID string
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Event is one lifecycle transition attached to a session.
type Event struct {
	SessionID string
	Stage     string
	Detail    string
	CreatedAt time.Time
}

// RecordSession upserts the session row with its latest state.
func (s *Store) RecordSession(ctx context.Context, record Record) error {
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO sessions (id, candidate, industry, stage, final_media_id, last_error, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				candidate = excluded.candidate,
				industry = excluded.industry,
				stage = excluded.stage,
				final_media_id = excluded.final_media_id,
				last_error = excluded.last_error,
				updated_at = excluded.updated_at`,
			record.ID, record.Candidate, record.Industry, record.Stage,
			record.FinalMediaID, record.LastError,
			record.CreatedAt.Format(time.RFC3339Nano), record.UpdatedAt.Format(time.RFC3339Nano),
		)
		return err
	})
}

// RecordEvent appends a lifecycle event for the session.
func (s *Store) RecordEvent(ctx context.Context, event Event) error {
	when := event.CreatedAt
	if when.IsZero() {
		when = time.Now().UTC()
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO session_events (session_id, stage, detail, created_at)
			VALUES (?, ?, ?, ?)`,
			event.SessionID, event.Stage, event.Detail, when.Format(time.RFC3339Nano),
		)
		return err
	})
}

// Sessions lists ledger rows, newest first.
func (s *Store) Sessions(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, candidate, industry, stage, final_media_id, last_error, created_at, updated_at
		FROM sessions
		ORDER BY updated_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var record Record
		var createdAt, updatedAt string
		if err := rows.Scan(&record.ID, &record.Candidate, &record.Industry, &record.Stage,
			&record.FinalMediaID, &record.LastError, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		record.CreatedAt = parseTimestamp(createdAt)
		record.UpdatedAt = parseTimestamp(updatedAt)
		records = append(records, record)
	}
	return records, rows.Err()
}

// Events lists lifecycle events for one session, oldest first.
func (s *Store) Events(ctx context.Context, sessionID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, stage, detail, created_at
		FROM session_events
		WHERE session_id = ?
		ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list session events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var event Event
		var createdAt string
		if err := rows.Scan(&event.SessionID, &event.Stage, &event.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		event.CreatedAt = parseTimestamp(createdAt)
		events = append(events, event)
	}
	return events, rows.Err()
}

func parseTimestamp(value string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
