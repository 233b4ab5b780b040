package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogMailer writes emails to the log instead of sending them. Used when no
// SMTP host is configured.
type LogMailer struct {
	Logger *zap.Logger
}

func (m LogMailer) Send(_ context.Context, e Email) error {
	logger := m.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("customer email (not sent)",
		zap.Strings("to", e.To),
		zap.String("subject", e.Subject),
		zap.Int("body_bytes", len(e.TextBody)),
	)
	return nil
}
