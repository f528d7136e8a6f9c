package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sherdorkhudoyberdi/expense-tracker/internal/amqp"
	"github.com/sherdorkhudoyberdi/expense-tracker/internal/config"
	"github.com/sherdorkhudoyberdi/expense-tracker/internal/log"
	"github.com/sherdorkhudoyberdi/expense-tracker/internal/services"
	"github.com/sherdorkhudoyberdi/expense-tracker/internal/sheets"
	gsheet "github.com/sherdorkhudoyberdi/expense-tracker/internal/sheets/google"
	"github.com/sherdorkhudoyberdi/expense-tracker/internal/storage"
	"github.com/sherdorkhudoyberdi/expense-tracker/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := log.New(log.ComponentWorker, slog.LevelInfo)
	log.SetDefault(logger)

	logger.Info("Starting summary-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the summary worker")
		os.Exit(1)
	}

	// Initialize the store to read monthly summaries
	store, err := newStore(cfg)
	if err != nil {
		logger.Error("Failed to initialize store", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer store.Close()

	// Initialize Google Sheets client for summary export (optional)
	var writer sheets.SummaryWriter
	if cfg.GoogleSpreadsheetID != "" {
		sheetsClient, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		writer = sheetsClient
		logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	// Initialize AMQP client for consuming transaction events
	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	summaryWorker := worker.NewSummaryWorker(store, writer)

	errCh := make(chan error, 1)
	go func() {
		errCh <- summaryWorker.Run(ctx, amqpClient)
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Event consumption failed", log.FieldError, err)
		}
	}

	logger.Info("Shutting down worker...")
	cancel()

	select {
	case <-errCh:
		logger.Info("Worker shutdown complete")
	case <-time.After(5 * time.Second):
		logger.Warn("Shutdown timeout reached")
	}
}

func newStore(cfg *config.Config) (services.Store, error) {
	switch cfg.DataBackend {
	case "postgres":
		return storage.NewPostgresRepository(context.Background(), cfg.PostgresURL)
	default:
		return storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	}
}
