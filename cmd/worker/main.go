package main

import (
	"context"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"PagSeguroNotify/internal/config"
	"PagSeguroNotify/internal/db"
	"PagSeguroNotify/internal/notify"
	"PagSeguroNotify/internal/observability"
	"PagSeguroNotify/internal/store"
	"PagSeguroNotify/internal/worker"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	defer pool.Close()

	var mailer notify.Mailer = notify.LogMailer{Logger: logger}
	smtpCfg := cfg.Notifications.SMTP
	if smtpCfg.Host != "" {
		mailer = notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     smtpCfg.Host,
			Port:     smtpCfg.Port,
			Username: smtpCfg.Username,
			Password: smtpCfg.Password,
		})
	} else {
		logger.Warn("no smtp host configured, customer emails are only logged")
	}

	w := &worker.Worker{
		Store:           store.New(pool),
		Dispatcher:      notify.EmailDispatcher{Mailer: mailer, From: cfg.Notifications.From},
		Interval:        cfg.WorkerInterval(),
		BatchSize:       cfg.Worker.BatchSize,
		MaxAttempts:     cfg.Worker.MaxAttempts,
		DefaultLanguage: cfg.DefaultLanguage(),
		Logger:          logger,
	}

	logger.Info("outbox worker started",
		zap.Duration("interval", w.Interval),
		zap.Int("batch_size", w.BatchSize),
		zap.Int("max_attempts", w.MaxAttempts),
	)
	w.Run(ctx)
	logger.Info("outbox worker stopped")
}
