// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package knowledge persists personal notes and builds the local
// retrieval index the fallback cascade queries first.
package knowledge

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/answer-engine/pkg/types"
)

const (
	notesDir = "notes"
	indexDir = "index"
	dbFile   = "notes.db"
)

// Note is one retrievable statement from the personal knowledge base.
type Note struct {
	ID       string   `yaml:"id"`
	Topic    string   `yaml:"topic"`
	Content  string   `yaml:"content"`
	Language string   `yaml:"language,omitempty"`
	Tags     []string `yaml:"tags,omitempty"`
}

// NoteFile is the on-disk YAML shape under knowledgeDir/notes/.
type NoteFile struct {
	Topic    string   `yaml:"topic"`
	Language string   `yaml:"language,omitempty"`
	Tags     []string `yaml:"tags,omitempty"`
	Notes    []string `yaml:"notes"`
}

// Store manages the notes SQLite database.
type Store struct {
	db           *sql.DB
	knowledgeDir string
	maxResults   int
}

// NewStore opens or creates the notes database at
// knowledgeDir/index/notes.db and ensures the schema exists.
func NewStore(cfg types.KnowledgeConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.KnowledgeDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}

	s := &Store{db: db, knowledgeDir: cfg.KnowledgeDir, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS notes (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			topic TEXT NOT NULL,
			content TEXT NOT NULL,
			language TEXT,
			tags TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notes_topic ON notes(topic)`,
		`CREATE TABLE IF NOT EXISTS ingest_status (
			file TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='notes_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE notes_fts USING fts5(content, topic, content=notes, content_rowid=rowid)`,
			`CREATE TRIGGER notes_ai AFTER INSERT ON notes BEGIN
				INSERT INTO notes_fts(rowid, content, topic) VALUES (new.rowid, new.content, new.topic);
			END`,
			`CREATE TRIGGER notes_ad AFTER DELETE ON notes BEGIN
				INSERT INTO notes_fts(notes_fts, rowid, content, topic) VALUES('delete', old.rowid, old.content, old.topic);
			END`,
			`CREATE TRIGGER notes_au AFTER UPDATE ON notes BEGIN
				INSERT INTO notes_fts(notes_fts, rowid, content, topic) VALUES('delete', old.rowid, old.content, old.topic);
				INSERT INTO notes_fts(rowid, content, topic) VALUES (new.rowid, new.content, new.topic);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}
	return nil
}

// IngestSummary holds counts from one indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of note files processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest reads note YAML files from knowledgeDir/notes/ and populates
// the database, detecting new, changed, and unchanged files for
// incremental updates. Progress lines go to w.
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	dir := filepath.Join(s.knowledgeDir, notesDir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading notes directory %s: %w", dir, err)
	}

	var summary IngestSummary
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		name := entry.Name()
		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM ingest_status WHERE file = ?`, name,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", name)
			summary.Skipped++
			continue
		}
		isUpdate := err == nil

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		var file NoteFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			fmt.Fprintf(w, "failed  %s: parse error: %v\n", name, err)
			summary.Failed++
			continue
		}

		if err := s.ingestFile(ctx, name, &file, modTime, isUpdate); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", name, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d notes)\n", name, len(file.Notes))
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexing %s (%d notes)\n", name, len(file.Notes))
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	return summary, nil
}

func (s *Store) ingestFile(ctx context.Context, file string, nf *NoteFile, modTime string, isUpdate bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if isUpdate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE topic = ?`, nf.Topic); err != nil {
			return fmt.Errorf("deleting old notes: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO notes (id, topic, content, language, tags)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	tagsJSON, _ := json.Marshal(nf.Tags)
	for _, content := range nf.Notes {
		content = strings.TrimSpace(content)
		if content == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx,
			noteID(nf.Topic, content), nf.Topic, content, nf.Language, string(tagsJSON),
		); err != nil {
			return fmt.Errorf("inserting note: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ingest_status (file, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(file) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		file, modTime,
	); err != nil {
		return fmt.Errorf("updating ingest status: %w", err)
	}

	return tx.Commit()
}

// noteID derives a stable identifier so re-ingesting unchanged content
// is idempotent.
func noteID(topic, content string) string {
	sum := sha256.Sum256([]byte(topic + "\x00" + content))
	return hex.EncodeToString(sum[:])[:12]
}

// Export writes all notes as YAML to w, grouped by topic in insertion
// order.
func (s *Store) Export(ctx context.Context, w io.Writer) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, topic, content, language, tags FROM notes ORDER BY topic, rowid`)
	if err != nil {
		return fmt.Errorf("querying notes: %w", err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		var n Note
		var tagsJSON string
		if err := rows.Scan(&n.ID, &n.Topic, &n.Content, &n.Language, &tagsJSON); err != nil {
			return fmt.Errorf("scanning note: %w", err)
		}
		json.Unmarshal([]byte(tagsJSON), &n.Tags)
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating notes: %w", err)
	}

	data, err := yaml.Marshal(struct {
		Notes []Note `yaml:"notes"`
	}{Notes: notes})
	if err != nil {
		return fmt.Errorf("marshaling notes: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	return nil
}
