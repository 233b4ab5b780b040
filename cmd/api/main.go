package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"PagSeguroNotify/internal/config"
	"PagSeguroNotify/internal/db"
	"PagSeguroNotify/internal/gateway"
	internalhttp "PagSeguroNotify/internal/http"
	"PagSeguroNotify/internal/observability"
	"PagSeguroNotify/internal/services"
	"PagSeguroNotify/internal/shipping"
	"PagSeguroNotify/internal/store"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic("config load failed: " + err.Error())
	}

	logger, err := observability.NewLogger(cfg.Log.Level)
	if err != nil {
		panic("logger init failed: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	defer pool.Close()

	st := store.New(pool)

	baseURL := cfg.PagSeguro.BaseURL
	if baseURL == "" {
		baseURL = gateway.BaseURL(cfg.PagSeguro.Sandbox)
	}
	client, err := gateway.NewClient(baseURL, cfg.PagSeguro.Email, cfg.PagSeguro.Token, cfg.PagSeguroTimeout())
	if err != nil {
		logger.Fatal("pagseguro client init failed", zap.Error(err))
	}

	svc := &services.NotificationService{
		Verifier:      client,
		Orders:        st,
		Log:           st,
		VerifyTimeout: cfg.PagSeguroTimeout(),
		Logger:        logger,
	}
	if cfg.Notes.ShipmentDeadline {
		holidays, err := shipping.ParseHolidays(cfg.Shipping.Holidays)
		if err != nil {
			logger.Fatal("shipping holidays invalid", zap.Error(err))
		}
		svc.Estimator = shipping.Estimator{
			Catalog:  st,
			Carriers: shipping.NewTransitTable(cfg.Shipping.CarrierTransit),
			Calendar: holidays,
			Language: cfg.DefaultLanguage(),
			Logger:   logger,
		}
	}

	h := internalhttp.NewHandler(svc, logger)
	srv := internalhttp.NewServer(h, logger)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("api listening",
			zap.String("addr", cfg.Server.Addr),
			zap.Bool("sandbox", cfg.PagSeguro.Sandbox),
			zap.Bool("shipment_deadline_note", cfg.Notes.ShipmentDeadline),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}
