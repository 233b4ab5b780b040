package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"PagSeguroNotify/internal/gateway"
	"PagSeguroNotify/internal/models"
	"PagSeguroNotify/internal/observability"
	"PagSeguroNotify/internal/payments"
	"PagSeguroNotify/internal/shipping"
	"PagSeguroNotify/internal/store"
)

var ErrInternal = errors.New("internal notification failure")

type Outcome string

const (
	OutcomeApplied    Outcome = "applied"
	OutcomeIgnored    Outcome = "ignored"
	OutcomeNoChange   Outcome = "no_change"
	OutcomeEmptyToken Outcome = "empty_token"
	OutcomeRejected   Outcome = "rejected"
	OutcomeUnresolved Outcome = "unresolved"
	OutcomeFailed     Outcome = "failed"
)

const (
	defaultVerifyTimeout = 15 * time.Second
	defaultHandleTimeout = 45 * time.Second
)

type OrderStore interface {
	OrderLookup
	Reconcile(ctx context.Context, orderID int64, fn store.ReconcileFunc) (*store.Result, error)
}

type NotificationLog interface {
	RecordNotification(ctx context.Context, rec *models.NotificationRecord) error
}

type DeadlineEstimator interface {
	Estimate(ctx context.Context, order *models.Order, now time.Time) (*shipping.Estimate, error)
}

// NotificationService turns a PagSeguro notification code into an order
// update. Every call is independent; order state is only read and written
// through Orders.
type NotificationService struct {
	Verifier gateway.Verifier
	Orders   OrderStore
	// Log records every notification; optional.
	Log NotificationLog
	// Estimator adds the shipment-deadline note on approval; nil disables it.
	Estimator     DeadlineEstimator
	VerifyTimeout time.Duration
	// HandleTimeout bounds the whole notification, store work included.
	HandleTimeout time.Duration
	Logger        *zap.Logger
	Now           func() time.Time
}

type Report struct {
	Outcome     Outcome
	Transaction *gateway.Transaction
	OrderID     int64
	Result      *store.Result
}

var tracer = otel.Tracer("PagSeguroNotify/internal/services")

// Handle processes one notification. A nil error means the gateway should
// not retry.
func (s *NotificationService) Handle(ctx context.Context, code string) (report Report, err error) {
	ctx, span := tracer.Start(ctx, "pagseguro.notification")
	defer span.End()

	timeout := s.HandleTimeout
	if timeout <= 0 {
		timeout = defaultHandleTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	code = strings.TrimSpace(code)
	logger := observability.FromContext(ctx, s.Logger).With(zap.String("notification_code", code))
	received := s.now()

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: panic: %v", ErrInternal, rec)
			report.Outcome = OutcomeFailed
			logger.Error("notification handling panicked", zap.Any("panic", rec), zap.Stack("stack"))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(report.Outcome))
		}
		span.SetAttributes(attribute.String("pagseguro.outcome", string(report.Outcome)))
		s.record(ctx, logger, code, received, report, err)
	}()

	if code == "" {
		report.Outcome = OutcomeEmptyToken
		logger.Error("empty pagseguro notification received")
		return report, gateway.ErrEmptyToken
	}
	logger.Info("pagseguro notification received")

	tx, err := s.verify(ctx, code)
	if err != nil {
		report.Outcome = OutcomeRejected
		logger.Error("pagseguro transaction verification failed", zap.Error(err))
		return report, err
	}
	report.Transaction = tx
	logger = logger.With(
		zap.String("reference", tx.Reference),
		zap.String("status", tx.Status.String()),
		zap.String("payment_method", tx.PaymentMethod.Description()),
	)
	span.SetAttributes(
		attribute.String("pagseguro.reference", tx.Reference),
		attribute.String("pagseguro.status", tx.Status.String()),
	)
	logger.Info("pagseguro transaction verified")

	order, err := OrderResolver{Orders: s.Orders}.Resolve(ctx, tx.Reference)
	if err != nil {
		report.Outcome = OutcomeUnresolved
		if errors.Is(err, ErrOrderNotFound) {
			logger.Info("order not found, notification dropped", zap.Error(err))
		} else {
			logger.Error("order resolution failed", zap.Error(err))
		}
		return report, err
	}
	report.OrderID = order.ID
	logger = logger.With(zap.Int64("order_id", order.ID))

	// The estimate only reads items and the catalog, so it runs before the
	// order lock is taken and never needs a second connection inside it.
	var narrative string
	if tx.Status == gateway.StatusPaid && s.Estimator != nil && payments.CanAuthorize(order) {
		narrative = s.narrative(ctx, logger, order)
	}

	res, err := s.Orders.Reconcile(ctx, order.ID, func(ctx context.Context, current *models.Order) (payments.Plan, error) {
		return s.plan(ctx, tx, current, narrative), nil
	})
	if err != nil {
		report.Outcome = OutcomeFailed
		logger.Error("order reconciliation failed", zap.Error(err))
		return report, fmt.Errorf("reconcile order %d: %w", order.ID, err)
	}
	report.Result = res

	switch {
	case res.Plan.Skipped != "":
		report.Outcome = OutcomeIgnored
		logger.Warn("stale notification ignored", zap.String("reason", res.Plan.Skipped))
	case res.Plan.Empty():
		report.Outcome = OutcomeNoChange
		logger.Info("notification status has no mapped transition")
	default:
		report.Outcome = OutcomeApplied
		logger.Info("order reconciled",
			zap.String("payment_status", string(res.Order.PaymentStatus)),
			zap.String("order_status", string(res.Order.Status)),
			zap.Int("notes", len(res.Notes)),
			zap.Int("emails_queued", len(res.Queued)),
		)
	}
	return report, nil
}

func (s *NotificationService) verify(ctx context.Context, code string) (*gateway.Transaction, error) {
	timeout := s.VerifyTimeout
	if timeout <= 0 {
		timeout = defaultVerifyTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "pagseguro.verify")
	defer span.End()

	tx, err := s.Verifier.Verify(ctx, code)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "verify failed")
		var rej *gateway.RejectedError
		if errors.As(err, &rej) || errors.Is(err, gateway.ErrEmptyToken) {
			return nil, err
		}
		return nil, &gateway.RejectedError{Err: err}
	}
	if tx == nil {
		return nil, &gateway.RejectedError{Message: "empty transaction"}
	}
	return tx, nil
}

func (s *NotificationService) plan(ctx context.Context, tx *gateway.Transaction, order *models.Order, narrative string) payments.Plan {
	_, span := tracer.Start(ctx, "pagseguro.reconcile", trace.WithAttributes(
		attribute.Int64("order.id", order.ID),
		attribute.String("order.payment_status", string(order.PaymentStatus)),
	))
	defer span.End()

	return payments.Reconcile(payments.Input{Transaction: tx, Order: order, Narrative: narrative})
}

func (s *NotificationService) narrative(ctx context.Context, logger *zap.Logger, order *models.Order) string {
	est, err := s.Estimator.Estimate(ctx, order, s.now())
	if err != nil {
		if errors.Is(err, shipping.ErrNoApplicableWindow) {
			logger.Info("no delivery window on order items, deadline note skipped")
		} else {
			logger.Warn("shipment deadline estimate failed, note skipped", zap.Error(err))
		}
		return ""
	}
	logger.Info("shipment deadline estimated",
		zap.Int("business_days", est.Days),
		zap.Time("deadline", est.Deadline),
	)
	return est.Narrative
}

func (s *NotificationService) record(ctx context.Context, logger *zap.Logger, code string, received time.Time, report Report, err error) {
	if s.Log == nil {
		return
	}
	rec := &models.NotificationRecord{
		Code:       code,
		Outcome:    string(report.Outcome),
		ReceivedAt: received,
	}
	if report.Transaction != nil {
		rec.Reference = report.Transaction.Reference
		rec.TransactionStatus = report.Transaction.Status.String()
	}
	if err != nil {
		rec.Error = err.Error()
	}
	// the request context may already be cancelled; the audit row is still wanted
	logCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if lerr := s.Log.RecordNotification(logCtx, rec); lerr != nil {
		logger.Warn("notification record not persisted", zap.Error(lerr))
	}
}

func (s *NotificationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
