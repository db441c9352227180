package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agenthands/eventgov/internal/core/model"
)

// ErrDuplicate reports an event whose (doc_id, school_norm, raw_span) key
// is already stored. PersistDocument swallows it.
var ErrDuplicate = errors.New("duplicate event")

// PersistResult describes the outcome of writing one document's events.
type PersistResult struct {
	Inserted []model.Event
	Skipped  int
	NewTags  []string
}

// PersistDocument writes a document's events in one transaction. Events
// whose key already exists are skipped. Each inserted event bumps the
// frequency of its tag values, creating candidate tags for unseen ones.
func (s *Store) PersistDocument(ctx context.Context, events []model.Event) (*PersistResult, error) {
	res := &PersistResult{}
	now := s.now()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, ev := range events {
			if ev.ID == "" {
				ev.ID = uuid.NewString()
			}
			if ev.CreatedAt.IsZero() {
				ev.CreatedAt = now
			}
			normalizeNames(&ev)
			err := insertEvent(ctx, tx, ev)
			if errors.Is(err, ErrDuplicate) {
				res.Skipped++
				continue
			}
			if err != nil {
				return err
			}
			res.Inserted = append(res.Inserted, ev)

			for _, d := range model.Dimensions() {
				name := ev.Tags.Get(d).Name
				if name == "" {
					continue
				}
				created, err := bumpTag(ctx, tx, d, name, now)
				if err != nil {
					return err
				}
				if created {
					res.NewTags = append(res.NewTags, string(d)+":"+name)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// normalizeNames trims every name that is used as a lookup key, so event
// rows and taxonomy rows agree on the spelling.
func normalizeNames(ev *model.Event) {
	ev.RawSpan = strings.TrimSpace(ev.RawSpan)
	ev.School.Raw = strings.TrimSpace(ev.School.Raw)
	ev.School.Canonical = strings.TrimSpace(ev.School.Canonical)
	ev.Product.Raw = strings.TrimSpace(ev.Product.Raw)
	ev.Product.Canonical = strings.TrimSpace(ev.Product.Canonical)
	ev.Tags = ev.Tags.Trimmed()
}

func insertEvent(ctx context.Context, tx *sql.Tx, ev model.Event) error {
	result, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO events (
			event_id, doc_id, raw_span,
			school_raw, school_norm, school_conf,
			product_raw, product_norm, product_conf,
			action_type, action_type_conf, blocker, blocker_conf, outcome, outcome_conf,
			event_conf, agreement, consistency_status,
			run_a_json, run_b_json, occurrence_date, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ev.ID, ev.DocumentID, ev.RawSpan,
		ev.School.Raw, ev.School.Canonical, ev.School.Confidence,
		ev.Product.Raw, ev.Product.Canonical, ev.Product.Confidence,
		ev.Tags.ActionType.Name, ev.Tags.ActionType.Confidence,
		ev.Tags.Blocker.Name, ev.Tags.Blocker.Confidence,
		ev.Tags.Outcome.Name, ev.Tags.Outcome.Confidence,
		ev.Confidence, ev.Agreement, string(ev.Status),
		nullString(ev.RunA), nullString(ev.RunB), ev.OccurredOn, formatTime(ev.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert event for %s: %w", ev.DocumentID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrDuplicate
	}
	return nil
}

// bumpTag increments both rolling frequencies of an existing tag or creates
// a candidate with frequency 1. It reports whether a tag was created.
func bumpTag(ctx context.Context, tx *sql.Tx, d model.Dimension, name string, now time.Time) (bool, error) {
	result, err := tx.ExecContext(ctx, `
		UPDATE taxonomy SET freq_7d = freq_7d + 1, freq_30d = freq_30d + 1
		WHERE dimension = ? AND name_norm = ?
	`, string(d), name)
	if err != nil {
		return false, fmt.Errorf("failed to update tag %s/%s: %w", d, name, err)
	}
	if n, _ := result.RowsAffected(); n > 0 {
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO taxonomy (tag_id, dimension, name_norm, status, freq_7d, freq_30d, created_at)
		VALUES (?, ?, ?, 'candidate', 1, 1, ?)
	`, newTagID(d), string(d), name, formatTime(now))
	if err != nil {
		return false, fmt.Errorf("failed to create tag %s/%s: %w", d, name, err)
	}
	return true, nil
}

func newTagID(d model.Dimension) string {
	prefix := string(d)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	return prefix + "_" + uuid.NewString()[:8]
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

const eventColumns = `
	event_id, doc_id, raw_span,
	school_raw, school_norm, school_conf,
	product_raw, product_norm, product_conf,
	action_type, action_type_conf, blocker, blocker_conf, outcome, outcome_conf,
	event_conf, agreement, consistency_status,
	run_a_json, run_b_json, occurrence_date, created_at`

// ListEvents returns events matching filter, newest occurrence first.
func (s *Store) ListEvents(ctx context.Context, filter model.EventFilter) ([]model.Event, error) {
	var where []string
	var args []interface{}
	if filter.DocumentID != "" {
		where = append(where, "doc_id = ?")
		args = append(args, filter.DocumentID)
	}
	if filter.School != "" {
		where = append(where, "school_norm = ?")
		args = append(args, filter.School)
	}
	if filter.Status != "" {
		where = append(where, "consistency_status = ?")
		args = append(args, string(filter.Status))
	}

	query := "SELECT " + eventColumns + " FROM events"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY occurrence_date DESC, created_at, event_id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

func scanEvent(rows *sql.Rows) (*model.Event, error) {
	var ev model.Event
	var status, createdAt string
	var runA, runB sql.NullString
	err := rows.Scan(
		&ev.ID, &ev.DocumentID, &ev.RawSpan,
		&ev.School.Raw, &ev.School.Canonical, &ev.School.Confidence,
		&ev.Product.Raw, &ev.Product.Canonical, &ev.Product.Confidence,
		&ev.Tags.ActionType.Name, &ev.Tags.ActionType.Confidence,
		&ev.Tags.Blocker.Name, &ev.Tags.Blocker.Confidence,
		&ev.Tags.Outcome.Name, &ev.Tags.Outcome.Confidence,
		&ev.Confidence, &ev.Agreement, &status,
		&runA, &runB, &ev.OccurredOn, &createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan event: %w", err)
	}
	ev.Status = model.ConsistencyStatus(status)
	ev.RunA = runA.String
	ev.RunB = runB.String
	ev.CreatedAt = parseTime(createdAt)
	return &ev, nil
}

// TagStats recomputes a tag's statistics from the events table. Dates are
// compared as YYYY-MM-DD strings; since7 and since30 are inclusive cutoffs.
func (s *Store) TagStats(ctx context.Context, d model.Dimension, name, since7, since30 string) (model.TagStats, error) {
	var stats model.TagStats
	if !d.Valid() {
		return stats, fmt.Errorf("unknown dimension %q", d)
	}

	var total, silver int
	// d is a closed enum naming one of the events columns.
	query := fmt.Sprintf(`
		SELECT
			COUNT(CASE WHEN occurrence_date >= ? THEN 1 END),
			COUNT(CASE WHEN occurrence_date >= ? THEN 1 END),
			COUNT(DISTINCT NULLIF(school_norm, '')),
			COUNT(CASE WHEN consistency_status = 'silver' THEN 1 END),
			COUNT(*)
		FROM events WHERE %s = ?
	`, string(d))
	err := s.db.QueryRowContext(ctx, query, since7, since30, name).
		Scan(&stats.Freq7d, &stats.Freq30d, &stats.DistinctSchools, &silver, &total)
	if err != nil {
		return stats, fmt.Errorf("failed to compute stats for %s/%s: %w", d, name, err)
	}
	if total > 0 {
		stats.ConsistencyRate = float64(silver) / float64(total)
	}
	return stats, nil
}

// TagExamples returns up to limit distinct raw spans carrying the tag.
func (s *Store) TagExamples(ctx context.Context, d model.Dimension, name string, limit int) ([]string, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("unknown dimension %q", d)
	}
	if limit <= 0 {
		limit = 5
	}
	query := fmt.Sprintf(`
		SELECT DISTINCT raw_span FROM events
		WHERE %s = ? AND raw_span != ''
		ORDER BY raw_span LIMIT ?
	`, string(d))
	rows, err := s.db.QueryContext(ctx, query, name, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query examples for %s/%s: %w", d, name, err)
	}
	defer rows.Close()

	var spans []string
	for rows.Next() {
		var span string
		if err := rows.Scan(&span); err != nil {
			return nil, fmt.Errorf("failed to scan example: %w", err)
		}
		spans = append(spans, span)
	}
	return spans, rows.Err()
}

// NamePairs returns the distinct (raw, canonical) name pairs of an entity
// type where both are set and differ, with occurrence counts, most
// frequent first.
func (s *Store) NamePairs(ctx context.Context, t model.EntityType) ([]model.NamePair, error) {
	var rawCol, normCol string
	switch t {
	case model.EntitySchool:
		rawCol, normCol = "school_raw", "school_norm"
	case model.EntityProduct:
		rawCol, normCol = "product_raw", "product_norm"
	default:
		return nil, fmt.Errorf("unknown entity type %q", t)
	}

	query := fmt.Sprintf(`
		SELECT %[1]s, %[2]s, COUNT(*) FROM events
		WHERE %[1]s != '' AND %[2]s != '' AND %[1]s != %[2]s
		GROUP BY %[1]s, %[2]s
		ORDER BY COUNT(*) DESC, %[1]s, %[2]s
	`, rawCol, normCol)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s name pairs: %w", t, err)
	}
	defer rows.Close()

	var pairs []model.NamePair
	for rows.Next() {
		var p model.NamePair
		if err := rows.Scan(&p.Raw, &p.Canonical, &p.Count); err != nil {
			return nil, fmt.Errorf("failed to scan name pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}
