// report-export is a one-shot tool: it computes the current budget progress
// for one owner and appends a report block to the configured Google Sheet.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/hydrUsD/betterbudgeter/internal/budget"
	"github.com/hydrUsD/betterbudgeter/internal/config"
	"github.com/hydrUsD/betterbudgeter/internal/export"
	applog "github.com/hydrUsD/betterbudgeter/internal/log"
	"github.com/hydrUsD/betterbudgeter/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	ownerID := flag.String("owner", "", "owner id to report on")
	flag.Parse()

	if *ownerID == "" {
		logger.Error("Missing required -owner flag")
		os.Exit(1)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.ReportSpreadsheetID == "" {
		logger.Error("REPORT_SPREADSHEET_ID is required for report export")
		os.Exit(1)
	}

	store, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	exporter, err := export.New(ctx, cfg.ReportSpreadsheetID, cfg.ReportSheetName)
	if err != nil {
		logger.Error("Failed to initialize Sheets exporter", "error", err)
		os.Exit(1)
	}

	now := time.Now()
	progress, err := budget.NewEngine(store).Progress(ctx, *ownerID, now)
	if err != nil {
		logger.Error("Failed to compute budget progress", "error", err, "owner_id", *ownerID)
		os.Exit(1)
	}

	if err := exporter.Export(ctx, *ownerID, progress, now); err != nil {
		logger.Error("Report export failed", "error", err, "owner_id", *ownerID)
		os.Exit(1)
	}

	logger.Info("Report export complete", "owner_id", *ownerID, "budgets", len(progress))
}
