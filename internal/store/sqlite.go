package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/agenthands/eventgov/internal/core/model"
)

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = model.ErrNotFound

const timeLayout = time.RFC3339Nano

// Store is the SQLite-backed event store plus the derived taxonomy and
// alias tables.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates (or opens) the database at path and applies the schema.
// ":memory:" yields a private in-memory database.
func Open(path string) (*Store, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		dsn = path + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: writes are serialized, and an in-memory database
	// stays the same database across calls.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// SetClock replaces the time source used for created_at/promoted_at stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Store) Close() error {
	return s.db.Close()
}

// withTx runs fn in a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

// Counts summarizes table sizes for status reporting.
type Counts struct {
	Documents        int            `json:"documents"`
	PendingDocuments int            `json:"pending_documents"`
	Events           map[string]int `json:"events"`
	Tags             map[string]int `json:"tags"`
	Aliases          map[string]int `json:"aliases"`
}

func (s *Store) Counts(ctx context.Context) (*Counts, error) {
	c := &Counts{}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM daily_logs`).Scan(&c.Documents); err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM daily_logs
		WHERE feed_id NOT IN (SELECT DISTINCT doc_id FROM events)
	`).Scan(&c.PendingDocuments); err != nil {
		return nil, fmt.Errorf("failed to count pending documents: %w", err)
	}

	var err error
	if c.Events, err = s.groupCount(ctx, `SELECT consistency_status, COUNT(*) FROM events GROUP BY consistency_status`); err != nil {
		return nil, err
	}
	if c.Tags, err = s.groupCount(ctx, `SELECT status, COUNT(*) FROM taxonomy GROUP BY status`); err != nil {
		return nil, err
	}
	if c.Aliases, err = s.groupCount(ctx, `SELECT entity_type || ':' || status, COUNT(*) FROM entity_aliases GROUP BY entity_type, status`); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) groupCount(ctx context.Context, query string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		out[key] = n
	}
	return out, rows.Err()
}
