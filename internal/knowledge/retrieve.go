// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/answer-engine/internal/fallback"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// Retrieve returns up to limit notes matching the query. FTS5 matching
// runs first; because the default tokenizer keeps a CJK run as one
// token, a zero-hit FTS result falls back to substring matching so a
// partial Chinese query still finds its note.
func (s *Store) Retrieve(ctx context.Context, query string, limit int) ([]Note, error) {
	if limit <= 0 || limit > s.maxResults {
		limit = s.maxResults
	}
	terms := strings.Fields(strings.TrimSpace(query))
	if len(terms) == 0 {
		return nil, nil
	}

	notes, err := s.retrieveFTS(ctx, terms, limit)
	if err != nil {
		return nil, err
	}
	if len(notes) > 0 {
		return notes, nil
	}
	return s.retrieveSubstring(ctx, terms, limit)
}

func (s *Store) retrieveFTS(ctx context.Context, terms []string, limit int) ([]Note, error) {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	ftsQuery := strings.Join(quoted, " OR ")

	rows, err := s.db.QueryContext(ctx, `
		SELECT n.id, n.topic, n.content, n.language, n.tags
		FROM notes_fts f
		JOIN notes n ON n.rowid = f.rowid
		WHERE notes_fts MATCH ?
		ORDER BY rank
		LIMIT ?`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("querying FTS index: %w", err)
	}
	defer rows.Close()
	return scanNotes(rows)
}

func (s *Store) retrieveSubstring(ctx context.Context, terms []string, limit int) ([]Note, error) {
	var conds []string
	var args []any
	for _, t := range terms {
		conds = append(conds, `(content LIKE ? OR topic LIKE ?)`)
		pattern := "%" + t + "%"
		args = append(args, pattern, pattern)
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, topic, content, language, tags
		FROM notes
		WHERE `+strings.Join(conds, " OR ")+`
		ORDER BY rowid
		LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying notes by substring: %w", err)
	}
	defer rows.Close()
	return scanNotes(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanNotes(rows rowScanner) ([]Note, error) {
	var notes []Note
	for rows.Next() {
		var n Note
		var tagsJSON string
		if err := rows.Scan(&n.ID, &n.Topic, &n.Content, &n.Language, &tagsJSON); err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		json.Unmarshal([]byte(tagsJSON), &n.Tags)
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notes: %w", err)
	}
	return notes, nil
}

// Lookup adapts the store to the cascade collaborator contract.
func (s *Store) Lookup(ctx context.Context, query, _ string, limit int) (fallback.LookupResult, error) {
	notes, err := s.Retrieve(ctx, query, limit)
	if err != nil {
		return fallback.LookupResult{}, err
	}
	if len(notes) == 0 {
		return fallback.LookupResult{}, nil
	}

	facts := make([]string, 0, len(notes))
	seenTopic := make(map[string]bool)
	var res fallback.LookupResult
	for _, n := range notes {
		facts = append(facts, n.Content)
		if !seenTopic[n.Topic] {
			seenTopic[n.Topic] = true
			res.Sources = append(res.Sources, noteSource(n.Topic))
		}
	}

	res.FinalText = "根据你的笔记：" + notes[0].Content
	res.Facts = facts
	res.Hits = len(notes)
	return res, nil
}

func noteSource(topic string) types.Source {
	return types.Source{Source: "knowledge", Title: topic}
}
