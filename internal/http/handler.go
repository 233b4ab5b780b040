package http

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"PagSeguroNotify/internal/observability"
	"PagSeguroNotify/internal/services"
)

const notificationCodeField = "notificationCode"

// maxFormBytes bounds the webhook body; PagSeguro posts two short fields.
const maxFormBytes = 64 << 10

type NotificationProcessor interface {
	Handle(ctx context.Context, code string) (services.Report, error)
}

type Handler struct {
	Notifications NotificationProcessor
	Logger        *zap.Logger
}

func NewHandler(notifications NotificationProcessor, logger *zap.Logger) *Handler {
	return &Handler{Notifications: notifications, Logger: logger}
}

// PagSeguroNotification reads the code from the form body, falling back to
// the query string for older integrations. An applied notification gets an
// empty 200; any failure answers an empty 500 so the gateway re-delivers.
func (h *Handler) PagSeguroNotification(w http.ResponseWriter, r *http.Request) {
	logger := observability.FromContext(r.Context(), h.Logger)

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		logger.Warn("notification form unreadable", zap.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	report, err := h.Notifications.Handle(r.Context(), r.FormValue(notificationCodeField))
	if err != nil {
		logger.Warn("notification not acknowledged",
			zap.String("outcome", string(report.Outcome)),
			zap.Error(err),
		)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
