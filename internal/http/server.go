package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"PagSeguroNotify/internal/observability"
)

type Server struct {
	Router *chi.Mux
}

func NewServer(handler *Handler, logger *zap.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger(logger))
	r.Use(observability.Recovery(logger))

	r.Get("/health", handler.Health)

	r.Route("/payments", func(r chi.Router) {
		r.Post("/pagseguro/notifications", handler.PagSeguroNotification)
	})
	// notification URL configured on existing PagSeguro accounts
	r.Post("/Plugins/PaymentPagSeguro/PaymentReturn", handler.PagSeguroNotification)

	return &Server{Router: r}
}
