package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/agenthands/eventgov/internal/core/model"
)

// SeedTags inserts tags that do not exist yet and returns how many were added.
// Existing tags, whatever their status, are left alone.
func (s *Store) SeedTags(ctx context.Context, tags []model.TaxonomyTag) (int, error) {
	now := s.now()
	added := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, t := range tags {
			if !t.Dimension.Valid() || strings.TrimSpace(t.Name) == "" {
				return fmt.Errorf("invalid seed tag %q in dimension %q", t.Name, t.Dimension)
			}
			status := t.Status
			if status == "" {
				status = model.StatusStable
			}
			id := t.ID
			if id == "" {
				id = newTagID(t.Dimension)
			}
			var promoted sql.NullString
			if status == model.StatusStable {
				promoted = sql.NullString{String: formatTime(now), Valid: true}
			}
			result, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO taxonomy (tag_id, dimension, name_norm, definition, status, created_at, promoted_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, id, string(t.Dimension), strings.TrimSpace(t.Name), t.Definition, string(status), formatTime(now), promoted)
			if err != nil {
				return fmt.Errorf("failed to seed tag %s/%s: %w", t.Dimension, t.Name, err)
			}
			if n, _ := result.RowsAffected(); n > 0 {
				added++
			}
		}
		return nil
	})
	return added, err
}

const tagColumns = `tag_id, dimension, name_norm, definition, status,
	freq_7d, freq_30d, distinct_schools, consistency_rate, created_at, promoted_at`

// ListTags returns tags matching filter ordered by dimension, then by
// 7-day frequency descending.
func (s *Store) ListTags(ctx context.Context, filter model.TagFilter) ([]model.TaxonomyTag, error) {
	var where []string
	var args []interface{}
	if filter.Dimension != "" {
		where = append(where, "dimension = ?")
		args = append(args, string(filter.Dimension))
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}

	query := "SELECT " + tagColumns + " FROM taxonomy"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY dimension, freq_7d DESC, name_norm"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query taxonomy: %w", err)
	}
	defer rows.Close()

	var tags []model.TaxonomyTag
	for rows.Next() {
		var t model.TaxonomyTag
		var dim, status, createdAt string
		var promotedAt sql.NullString
		if err := rows.Scan(&t.ID, &dim, &t.Name, &t.Definition, &status,
			&t.Freq7d, &t.Freq30d, &t.DistinctSchools, &t.ConsistencyRate, &createdAt, &promotedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		t.Dimension = model.Dimension(dim)
		t.Status = model.LifecycleStatus(status)
		t.CreatedAt = parseTime(createdAt)
		t.PromotedAt = parseNullTime(promotedAt)
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// UpdateTagStats overwrites the cached statistics of a tag.
func (s *Store) UpdateTagStats(ctx context.Context, id string, stats model.TagStats) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE taxonomy
		SET freq_7d = ?, freq_30d = ?, distinct_schools = ?, consistency_rate = ?
		WHERE tag_id = ?
	`, stats.Freq7d, stats.Freq30d, stats.DistinctSchools, stats.ConsistencyRate, id)
	if err != nil {
		return fmt.Errorf("failed to update stats for tag %s: %w", id, err)
	}
	return nil
}

// PromoteTag flips a candidate to stable. It reports false when the tag was
// not a candidate, so a stable tag is never touched twice.
func (s *Store) PromoteTag(ctx context.Context, id string, at time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE taxonomy SET status = 'stable', promoted_at = ?
		WHERE tag_id = ? AND status = 'candidate'
	`, formatTime(at), id)
	if err != nil {
		return false, fmt.Errorf("failed to promote tag %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *Store) SetTagDefinition(ctx context.Context, id, definition string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE taxonomy SET definition = ? WHERE tag_id = ?`, definition, id)
	if err != nil {
		return fmt.Errorf("failed to set definition for tag %s: %w", id, err)
	}
	return nil
}

// RecordSuggestion stores a merge suggestion, refreshing the similarity of
// an existing (dimension, tag, target) entry.
func (s *Store) RecordSuggestion(ctx context.Context, sg model.MergeSuggestion) error {
	created := sg.CreatedAt
	if created.IsZero() {
		created = s.now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO merge_suggestions (dimension, tag, target, similarity, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(dimension, tag, target) DO UPDATE SET
			similarity = excluded.similarity,
			source = excluded.source
	`, string(sg.Dimension), sg.Tag, sg.Target, sg.Similarity, sg.Source, formatTime(created))
	if err != nil {
		return fmt.Errorf("failed to record merge suggestion %s -> %s: %w", sg.Tag, sg.Target, err)
	}
	return nil
}

func (s *Store) ListSuggestions(ctx context.Context) ([]model.MergeSuggestion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT dimension, tag, target, similarity, source, created_at
		FROM merge_suggestions ORDER BY dimension, similarity DESC, tag
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query merge suggestions: %w", err)
	}
	defer rows.Close()

	var out []model.MergeSuggestion
	for rows.Next() {
		var sg model.MergeSuggestion
		var dim, createdAt string
		if err := rows.Scan(&dim, &sg.Tag, &sg.Target, &sg.Similarity, &sg.Source, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan merge suggestion: %w", err)
		}
		sg.Dimension = model.Dimension(dim)
		sg.CreatedAt = parseTime(createdAt)
		out = append(out, sg)
	}
	return out, rows.Err()
}
