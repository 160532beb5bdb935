package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bank-ledger/internal/config"
	"bank-ledger/internal/events/kafka"
	"bank-ledger/internal/gateway"
	"bank-ledger/internal/logging"
	"bank-ledger/internal/scheduler"
	"bank-ledger/internal/server"
	"bank-ledger/internal/usecase"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		logging.New("info", "json", os.Stderr).Fatalf("Failed to load config: %v", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Dependency Injection ---
	repo := gateway.NewTextFileRepository(cfg.DataDir, gateway.WithLogger(logger))

	opts := []usecase.Option{
		usecase.WithLogger(logger),
		usecase.WithLenientInput(cfg.LenientInput),
	}
	if cfg.EventsEnabled() {
		publisher := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer publisher.Close()
		opts = append(opts, usecase.WithPublisher(publisher))
		logger.WithField("topic", cfg.KafkaTopic).Info("Publishing ledger events to Kafka")
	}

	ledger := usecase.NewLedger(repo, usecase.NewTransactionLog(repo, repo, opts...), opts...)
	if err := ledger.Load(ctx); err != nil {
		logger.Fatalf("Failed to load ledger: %v", err)
	}
	loans := usecase.NewLoanBook(repo, repo, opts...)
	if err := loans.Load(ctx); err != nil {
		logger.Fatalf("Failed to load loan book: %v", err)
	}

	if cfg.InterestSchedule != "" {
		sched, err := scheduler.New(cfg.InterestSchedule, ledger, logger)
		if err != nil {
			logger.Fatalf("Failed to schedule interest accrual: %v", err)
		}
		sched.Start()
		defer sched.Stop()
		logger.WithField("schedule", cfg.InterestSchedule).Info("Interest accrual scheduled")
	}

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      server.NewServer(ledger, loans, logger).Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("Server shutdown failed: %v", err)
		}
	}()

	logger.Infof("Starting server on %s", cfg.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("Server failed: %v", err)
	}
	logger.Info("Server stopped")
}
