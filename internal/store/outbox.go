package store

import (
	"context"
	"database/sql"
	"time"

	"PagSeguroNotify/internal/models"
)

func insertOutbox(ctx context.Context, q querier, m models.OutboxMessage) error {
	var noteID *string
	if m.NoteID != "" {
		noteID = &m.NoteID
	}
	_, err := q.Exec(ctx, `
		INSERT INTO notification_outbox (id, kind, order_id, note_id, language, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, m.ID, m.Kind, m.OrderID, noteID, m.Language, m.CreatedAt)
	return err
}

// PendingOutbox returns unsent, unabandoned messages with attempts left,
// oldest first.
func (s *Store) PendingOutbox(ctx context.Context, limit, maxAttempts int) ([]models.OutboxMessage, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, kind, order_id, COALESCE(note_id, ''), language, attempts,
			last_error, created_at, sent_at
		FROM notification_outbox
		WHERE sent_at IS NULL AND abandoned_at IS NULL AND attempts < $2
		ORDER BY created_at, id
		LIMIT $1
	`, limit, maxAttempts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.OutboxMessage
	for rows.Next() {
		var m models.OutboxMessage
		var lastErr sql.NullString
		var sentAt sql.NullTime
		if err := rows.Scan(&m.ID, &m.Kind, &m.OrderID, &m.NoteID, &m.Language, &m.Attempts, &lastErr, &m.CreatedAt, &sentAt); err != nil {
			return nil, err
		}
		if lastErr.Valid {
			m.LastError = &lastErr.String
		}
		if sentAt.Valid {
			m.SentAt = &sentAt.Time
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) MarkOutboxSent(ctx context.Context, id string, sentAt time.Time) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE notification_outbox
		SET sent_at=$2, attempts=attempts+1, last_error=NULL
		WHERE id=$1
	`, id, sentAt)
	return err
}

func (s *Store) MarkOutboxFailed(ctx context.Context, id string, cause error) error {
	msg := truncate(cause.Error(), 500)
	_, err := s.Pool.Exec(ctx, `
		UPDATE notification_outbox
		SET attempts=attempts+1, last_error=$2
		WHERE id=$1
	`, id, msg)
	return err
}

// MarkOutboxAbandoned stops retries for a message that cannot be delivered.
func (s *Store) MarkOutboxAbandoned(ctx context.Context, id string, cause error, at time.Time) error {
	msg := truncate(cause.Error(), 500)
	_, err := s.Pool.Exec(ctx, `
		UPDATE notification_outbox
		SET attempts=attempts+1, last_error=$2, abandoned_at=$3
		WHERE id=$1
	`, id, msg, at)
	return err
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
