package main

import (
	"context"
	"os"

	"bank-ledger/internal/config"
	"bank-ledger/internal/console"
	"bank-ledger/internal/events/kafka"
	"bank-ledger/internal/gateway"
	"bank-ledger/internal/logging"
	"bank-ledger/internal/usecase"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		logging.New("info", "text", os.Stderr).Fatalf("Failed to load config: %v", err)
	}
	// Diagnostics go to stderr so they do not interleave with the menu.
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	ctx := context.Background()

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
	}

	ledger := usecase.NewLedger(repo, usecase.NewTransactionLog(repo, repo, opts...), opts...)
	if err := ledger.Load(ctx); err != nil {
		logger.Fatalf("Failed to load ledger: %v", err)
	}
	loans := usecase.NewLoanBook(repo, repo, opts...)
	if err := loans.Load(ctx); err != nil {
		logger.Fatalf("Failed to load loan book: %v", err)
	}

	if err := console.New(os.Stdin, os.Stdout, ledger, loans).Run(ctx); err != nil {
		logger.Errorf("Console stopped: %v", err)
	}
}
