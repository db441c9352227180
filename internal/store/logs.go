package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/agenthands/eventgov/internal/core/model"
)

// UpsertDocument records or replaces a raw daily log.
func (s *Store) UpsertDocument(ctx context.Context, doc model.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document id is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_logs (feed_id, user_name, department, log_date, content, crawled_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(feed_id) DO UPDATE SET
			user_name = excluded.user_name,
			department = excluded.department,
			log_date = excluded.log_date,
			content = excluded.content
	`, doc.ID, doc.Author, doc.Department, doc.Date, doc.Content, formatTime(s.now()))
	if err != nil {
		return fmt.Errorf("failed to upsert document %s: %w", doc.ID, err)
	}
	return nil
}

func (s *Store) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	var d model.Document
	err := s.db.QueryRowContext(ctx, `
		SELECT feed_id, user_name, department, log_date, content FROM daily_logs WHERE feed_id = ?
	`, id).Scan(&d.ID, &d.Author, &d.Department, &d.Date, &d.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", id, err)
	}
	return &d, nil
}

// PendingDocuments returns logs with no events yet, newest first.
// limit <= 0 means no limit.
func (s *Store) PendingDocuments(ctx context.Context, limit int) ([]model.Document, error) {
	query := `
		SELECT feed_id, user_name, department, log_date, content
		FROM daily_logs
		WHERE feed_id NOT IN (SELECT DISTINCT doc_id FROM events)
		ORDER BY log_date DESC, feed_id
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending documents: %w", err)
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		var d model.Document
		if err := rows.Scan(&d.ID, &d.Author, &d.Department, &d.Date, &d.Content); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
