// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package clarify

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// clarifySchema holds one pending clarification per session. created_at
// is RFC 3339 so rows stay readable with the sqlite3 shell.
const clarifySchema = `
CREATE TABLE IF NOT EXISTS clarifications (
    session TEXT PRIMARY KEY,
    created_at TEXT NOT NULL,
    options TEXT NOT NULL
);
`

// SQLiteStore persists pending clarifications across process runs, so a
// follow-up typed into a fresh CLI invocation still resolves the question
// the previous run asked.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if needed) the clarification database
// under dir and ensures the schema exists.
func OpenSQLiteStore(dir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating session dir: %w", err)
	}
	path := filepath.Join(dir, "clarify.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening clarification db: %w", err)
	}
	if _, err := db.Exec(clarifySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing clarification schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, session string) (Pending, bool, error) {
	var createdAt, optionsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT created_at, options FROM clarifications WHERE session = ?`,
		session).Scan(&createdAt, &optionsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return Pending{}, false, nil
	}
	if err != nil {
		return Pending{}, false, fmt.Errorf("reading clarification: %w", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Pending{}, false, fmt.Errorf("parsing clarification timestamp: %w", err)
	}
	var options []Option
	if err := json.Unmarshal([]byte(optionsJSON), &options); err != nil {
		return Pending{}, false, fmt.Errorf("decoding clarification options: %w", err)
	}
	return Pending{CreatedAt: ts, Options: options}, true, nil
}

// Put implements Store.
func (s *SQLiteStore) Put(ctx context.Context, session string, p Pending) error {
	optionsJSON, err := json.Marshal(p.Options)
	if err != nil {
		return fmt.Errorf("encoding clarification options: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO clarifications (session, created_at, options)
		VALUES (?, ?, ?)
		ON CONFLICT(session) DO UPDATE SET
			created_at = excluded.created_at,
			options = excluded.options`,
		session, p.CreatedAt.Format(time.RFC3339Nano), string(optionsJSON))
	if err != nil {
		return fmt.Errorf("storing clarification: %w", err)
	}
	return nil
}

// Clear implements Store.
func (s *SQLiteStore) Clear(ctx context.Context, session string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM clarifications WHERE session = ?`, session); err != nil {
		return fmt.Errorf("clearing clarification: %w", err)
	}
	return nil
}
