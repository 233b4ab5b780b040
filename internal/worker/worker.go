package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"PagSeguroNotify/internal/models"
	"PagSeguroNotify/internal/notify"
	"PagSeguroNotify/internal/store"
)

var (
	errNoteMissing = errors.New("queued note not found on order")
	errUnknownKind = errors.New("unknown outbox kind")
)

type Outbox interface {
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	PendingOutbox(ctx context.Context, limit, maxAttempts int) ([]models.OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, id string, sentAt time.Time) error
	MarkOutboxFailed(ctx context.Context, id string, cause error) error
	MarkOutboxAbandoned(ctx context.Context, id string, cause error, at time.Time) error
}

// Worker drains the notification outbox. Sends happen after the order
// mutation committed, so a failed email never undoes a status change.
type Worker struct {
	Store           Outbox
	Dispatcher      notify.Dispatcher
	Interval        time.Duration
	BatchSize       int
	MaxAttempts     int
	DefaultLanguage language.Tag
	Logger          *zap.Logger
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		if _, err := w.SyncOnce(ctx); err != nil {
			w.logger().Error("outbox sync failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// SyncOnce sends one batch and returns how many messages were delivered.
func (w *Worker) SyncOnce(ctx context.Context) (int, error) {
	pending, err := w.Store.PendingOutbox(ctx, w.BatchSize, w.MaxAttempts)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, msg := range pending {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		logger := w.logger().With(
			zap.String("outbox_id", msg.ID),
			zap.String("kind", string(msg.Kind)),
			zap.Int64("order_id", msg.OrderID),
			zap.Int("attempt", msg.Attempts+1),
		)
		if err := w.deliver(ctx, msg); err != nil {
			if permanent(err) {
				logger.Error("customer email abandoned", zap.Error(err))
				if merr := w.Store.MarkOutboxAbandoned(ctx, msg.ID, err, time.Now().UTC()); merr != nil {
					return sent, merr
				}
				continue
			}
			logger.Warn("customer email failed", zap.Error(err))
			if merr := w.Store.MarkOutboxFailed(ctx, msg.ID, err); merr != nil {
				return sent, merr
			}
			continue
		}
		if err := w.Store.MarkOutboxSent(ctx, msg.ID, time.Now().UTC()); err != nil {
			return sent, err
		}
		sent++
		logger.Info("customer email sent")
	}
	return sent, nil
}

func (w *Worker) deliver(ctx context.Context, msg models.OutboxMessage) error {
	order, err := w.Store.GetByID(ctx, msg.OrderID)
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}
	lang := w.language(msg)

	switch msg.Kind {
	case models.OutboxOrderNote:
		for _, n := range order.Notes {
			if n.ID == msg.NoteID {
				return w.Dispatcher.SendOrderNoteNotification(ctx, order, n, lang)
			}
		}
		return fmt.Errorf("%w: %s", errNoteMissing, msg.NoteID)
	case models.OutboxOrderCancelled:
		return w.Dispatcher.SendOrderCancelledNotification(ctx, order, lang)
	default:
		return fmt.Errorf("%w %q", errUnknownKind, msg.Kind)
	}
}

// permanent reports whether a retry could never succeed.
func permanent(err error) bool {
	return errors.Is(err, notify.ErrNoRecipient) ||
		errors.Is(err, errNoteMissing) ||
		errors.Is(err, errUnknownKind) ||
		errors.Is(err, store.ErrOrderNotFound)
}

func (w *Worker) language(msg models.OutboxMessage) language.Tag {
	if msg.Language != "" {
		if tag, err := language.Parse(msg.Language); err == nil {
			return tag
		}
	}
	if w.DefaultLanguage != language.Und {
		return w.DefaultLanguage
	}
	return language.BrazilianPortuguese
}

func (w *Worker) logger() *zap.Logger {
	if w.Logger == nil {
		return zap.NewNop()
	}
	return w.Logger
}
