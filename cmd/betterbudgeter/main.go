package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hydrUsD/betterbudgeter/internal/amqp"
	"github.com/hydrUsD/betterbudgeter/internal/budget"
	"github.com/hydrUsD/betterbudgeter/internal/config"
	apphttp "github.com/hydrUsD/betterbudgeter/internal/http"
	"github.com/hydrUsD/betterbudgeter/internal/ingest"
	applog "github.com/hydrUsD/betterbudgeter/internal/log"
	"github.com/hydrUsD/betterbudgeter/internal/storage"
)

// dataStore is everything the API process needs from a backend.
type dataStore interface {
	ingest.Store
	budget.Store
	apphttp.Store
	Close() error
}

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	var (
		store dataStore
		err   error
	)
	switch cfg.DataBackend {
	case "sqlite":
		store, err = storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		logger.Info("Initialized SQLite backend", "path", cfg.SQLiteDBPath)
	default:
		store = storage.NewMemoryStore()
		logger.Info("Initialized memory backend")
	}
	defer store.Close()

	// An AMQP URL switches the import endpoint from inline to queued.
	var queue apphttp.ImportQueue
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		queue = client
		logger.Info("Import queue enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("Import queue disabled - imports run inline")
	}

	importer := ingest.NewWithWindow(store, cfg.ImportWindowDays)
	engine := budget.NewEngine(store)
	srv := apphttp.NewServer(":"+cfg.Port, store, importer, engine, queue, cfg.ImportRatePerMinute)

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting betterbudgeter server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
