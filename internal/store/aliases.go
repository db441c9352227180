package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/agenthands/eventgov/internal/core/model"
)

const aliasColumns = `id, entity_type, alias, canonical, confidence, freq, status, created_at`

// GetAlias looks up an alias by its key. It returns ErrNotFound when absent.
func (s *Store) GetAlias(ctx context.Context, t model.EntityType, alias string) (*model.EntityAlias, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+aliasColumns+` FROM entity_aliases WHERE entity_type = ? AND alias = ?`, string(t), alias)
	a, err := scanAlias(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alias %s/%s: %w", t, alias, err)
	}
	return a, nil
}

// InsertAlias records a new candidate alias. It reports false if the
// (entity_type, alias) key already exists.
func (s *Store) InsertAlias(ctx context.Context, a model.EntityAlias) (bool, error) {
	status := a.Status
	if status == "" {
		status = model.StatusCandidate
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO entity_aliases (entity_type, alias, canonical, confidence, freq, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, string(a.EntityType), a.Alias, a.Canonical, a.Confidence, a.Frequency, string(status), formatTime(s.now()))
	if err != nil {
		return false, fmt.Errorf("failed to insert alias %s/%s: %w", a.EntityType, a.Alias, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// UpdateAliasFrequency raises an alias's observed frequency. Frequencies
// never go down.
func (s *Store) UpdateAliasFrequency(ctx context.Context, id int64, freq int) error {
	_, err := s.db.ExecContext(ctx, `UPDATE entity_aliases SET freq = MAX(freq, ?) WHERE id = ?`, freq, id)
	if err != nil {
		return fmt.Errorf("failed to update alias %d frequency: %w", id, err)
	}
	return nil
}

// PromoteAlias flips a candidate alias to stable; false if it was not a candidate.
func (s *Store) PromoteAlias(ctx context.Context, id int64) (bool, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE entity_aliases SET status = 'stable' WHERE id = ? AND status = 'candidate'`, id)
	if err != nil {
		return false, fmt.Errorf("failed to promote alias %d: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *Store) ListAliases(ctx context.Context, filter model.AliasFilter) ([]model.EntityAlias, error) {
	var where []string
	var args []interface{}
	if filter.EntityType != "" {
		where = append(where, "entity_type = ?")
		args = append(args, string(filter.EntityType))
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	query := "SELECT " + aliasColumns + " FROM entity_aliases"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY entity_type, freq DESC, alias"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query aliases: %w", err)
	}
	defer rows.Close()

	var out []model.EntityAlias
	for rows.Next() {
		a, err := scanAlias(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alias: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAlias(row scanner) (*model.EntityAlias, error) {
	var a model.EntityAlias
	var et, status, createdAt string
	if err := row.Scan(&a.ID, &et, &a.Alias, &a.Canonical, &a.Confidence, &a.Frequency, &status, &createdAt); err != nil {
		return nil, err
	}
	a.EntityType = model.EntityType(et)
	a.Status = model.LifecycleStatus(status)
	a.CreatedAt = parseTime(createdAt)
	return &a, nil
}
