package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"

	"PagSeguroNotify/internal/models"
	"PagSeguroNotify/internal/payments"
)

// ReconcileFunc decides the plan for an order. It receives the state as
// persisted at the moment the order lock was taken.
type ReconcileFunc func(ctx context.Context, order *models.Order) (payments.Plan, error)

type Result struct {
	Plan   payments.Plan
	Order  *models.Order
	Notes  []models.OrderNote
	Queued []models.OutboxMessage
}

func newID() string {
	return ulid.Make().String()
}

// Reconcile locks the order row, runs fn against it and commits the
// resulting plan, its notes and any queued customer emails in one
// transaction.
func (s *Store) Reconcile(ctx context.Context, orderID int64, fn ReconcileFunc) (*Result, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	order, err := loadOrder(ctx, tx, "id=$1", orderID, true)
	if err != nil {
		return nil, err
	}

	plan, err := fn(ctx, order)
	if err != nil {
		return nil, err
	}
	if plan.Empty() {
		return &Result{Plan: plan, Order: order}, nil
	}

	now := time.Now().UTC()
	notes := plan.ApplyTo(order, now, newID)
	queued := outboxFor(plan, order, notes, now)

	if _, err := tx.Exec(ctx, `
		UPDATE orders
		SET payment_status=$2, status=$3, paid_at=$4, updated_at=$5
		WHERE id=$1
	`, order.ID, order.PaymentStatus, order.Status, order.PaidAt, order.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	for _, n := range notes {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_notes (id, order_id, note, visible_to_customer, created_at)
			VALUES ($1,$2,$3,$4,$5)
		`, n.ID, n.OrderID, n.Text, n.VisibleToCustomer, n.CreatedAt); err != nil {
			return nil, fmt.Errorf("insert note: %w", err)
		}
	}

	for _, m := range queued {
		if err := insertOutbox(ctx, tx, m); err != nil {
			return nil, fmt.Errorf("queue notification: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &Result{Plan: plan, Order: order, Notes: notes, Queued: queued}, nil
}

// outboxFor lists the customer emails a committed plan requires. notes must
// be the output of plan.ApplyTo so indexes line up with plan.Notes.
func outboxFor(plan payments.Plan, order *models.Order, notes []models.OrderNote, now time.Time) []models.OutboxMessage {
	var out []models.OutboxMessage
	for i, pn := range plan.Notes {
		if !pn.NotifyCustomer || i >= len(notes) {
			continue
		}
		out = append(out, models.OutboxMessage{
			ID:        newID(),
			Kind:      models.OutboxOrderNote,
			OrderID:   order.ID,
			NoteID:    notes[i].ID,
			Language:  order.Language,
			CreatedAt: now,
		})
	}
	for _, a := range plan.Actions {
		if a.Kind == payments.ActionCancel && a.NotifyCustomer {
			out = append(out, models.OutboxMessage{
				ID:        newID(),
				Kind:      models.OutboxOrderCancelled,
				OrderID:   order.ID,
				Language:  order.Language,
				CreatedAt: now,
			})
		}
	}
	return out
}
