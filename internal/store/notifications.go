package store

import (
	"context"

	"PagSeguroNotify/internal/models"
)

func (s *Store) RecordNotification(ctx context.Context, rec *models.NotificationRecord) error {
	if rec.ID == "" {
		rec.ID = newID()
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO pagseguro_notifications (
			id, code, reference, transaction_status, outcome, error, received_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO NOTHING
	`,
		rec.ID,
		rec.Code,
		rec.Reference,
		rec.TransactionStatus,
		rec.Outcome,
		truncate(rec.Error, 1000),
		rec.ReceivedAt,
	)
	return err
}
