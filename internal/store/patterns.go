package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/triage-ai/crawlgate/internal/patterns"
)

// StoredPattern represents a row in the crawlgate_patterns table.
type StoredPattern struct {
	Name       string
	Definition patterns.Definition
	UpdatedAt  time.Time
}

// ListPatterns returns all stored custom patterns, oldest first, so that
// merge order into the registry is stable across restarts. Rows whose JSONB
// no longer decodes are skipped rather than failing the whole load.
func (s *Store) ListPatterns(ctx context.Context) ([]StoredPattern, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, definition, updated_at
		FROM crawlgate_patterns
		ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("ListPatterns: %w", err)
	}
	defer rows.Close()

	var out []StoredPattern
	for rows.Next() {
		var (
			sp  StoredPattern
			raw json.RawMessage
		)
		if err := rows.Scan(&sp.Name, &raw, &sp.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ListPatterns scan: %w", err)
		}
		if err := json.Unmarshal(raw, &sp.Definition); err != nil {
			continue
		}
		sp.Definition.Name = sp.Name
		out = append(out, sp)
	}
	return out, rows.Err()
}

// GetPattern returns a stored pattern by name, or nil if not found.
func (s *Store) GetPattern(ctx context.Context, name string) (*StoredPattern, error) {
	var (
		sp  StoredPattern
		raw json.RawMessage
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT name, definition, updated_at
		FROM crawlgate_patterns WHERE name = $1`, name,
	).Scan(&sp.Name, &raw, &sp.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetPattern: %w", err)
	}
	if err := json.Unmarshal(raw, &sp.Definition); err != nil {
		return nil, fmt.Errorf("GetPattern decode: %w", err)
	}
	sp.Definition.Name = sp.Name
	return &sp, nil
}

// UpsertPattern inserts or replaces a stored pattern definition.
func (s *Store) UpsertPattern(ctx context.Context, name string, def patterns.Definition) error {
	raw, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("UpsertPattern encode: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO crawlgate_patterns (name, definition, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		ON CONFLICT (name) DO UPDATE SET
			definition = EXCLUDED.definition,
			updated_at = now()`,
		name, raw)
	if err != nil {
		return fmt.Errorf("UpsertPattern: %w", err)
	}
	return nil
}

// DeletePattern removes a stored pattern, reporting whether a row existed.
func (s *Store) DeletePattern(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM crawlgate_patterns WHERE name = $1`, name)
	if err != nil {
		return false, fmt.Errorf("DeletePattern: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("DeletePattern: %w", err)
	}
	return n > 0, nil
}
