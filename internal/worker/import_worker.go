// Package worker runs queued imports delivered over AMQP. Each message is
// one account import; the worker executes the full pipeline, then derives
// budget progress and emits the resulting notifications to the log.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/hydrUsD/betterbudgeter/internal/amqp"
	"github.com/hydrUsD/betterbudgeter/internal/budget"
	"github.com/hydrUsD/betterbudgeter/internal/ingest"
	"github.com/hydrUsD/betterbudgeter/internal/log"
	"github.com/hydrUsD/betterbudgeter/internal/notify"
)

const dateLayout = "2006-01-02"

type ImportWorker struct {
	importer *ingest.Importer
	engine   *budget.Engine
	logger   *log.Logger
	now      func() time.Time
}

func NewImportWorker(importer *ingest.Importer, engine *budget.Engine, logger *log.Logger) *ImportWorker {
	return &ImportWorker{
		importer: importer,
		engine:   engine,
		logger:   logger.WithComponent(log.ComponentWorker),
		now:      time.Now,
	}
}

// HandleImportRequest processes a single queued import. A returned error
// requeues the delivery, so only unexpected persistence failures propagate;
// batch rejections (unknown account, ownership mismatch) are terminal and
// acknowledged.
func (w *ImportWorker) HandleImportRequest(ctx context.Context, msg *amqp.ImportRequestMessage) error {
	from, to, err := parseWindow(msg.DateFrom, msg.DateTo)
	if err != nil {
		// A malformed window will never succeed on retry.
		w.logger.ErrorContext(ctx, "Dropping import request with bad window",
			log.FieldOwnerID, msg.OwnerID,
			log.FieldAccountID, msg.AccountID,
			log.FieldError, err)
		return nil
	}

	result, err := w.importer.Import(ctx, msg.OwnerID, msg.AccountID, from, to)
	if err != nil {
		return fmt.Errorf("run import: %w", err)
	}

	var progress []budget.Progress
	if result.Success {
		progress, err = w.engine.Progress(ctx, msg.OwnerID, w.now())
		if err != nil {
			return fmt.Errorf("compute budget progress: %w", err)
		}
	}

	for _, n := range notify.PostImportNotifications(result, progress) {
		w.logger.InfoContext(ctx, "Notification",
			log.FieldOwnerID, msg.OwnerID,
			"notification_id", n.ID,
			"type", n.Type,
			"title", n.Title,
			"message", n.Message)
	}

	w.logger.InfoContext(ctx, "Queued import processed",
		log.FieldOwnerID, msg.OwnerID,
		log.FieldAccountID, msg.AccountID,
		log.FieldImported, result.Imported,
		log.FieldUpdated, result.Updated,
		log.FieldSkipped, result.Skipped,
		log.FieldErrors, result.Errors)

	return nil
}

// Run consumes import requests until ctx is cancelled.
func (w *ImportWorker) Run(ctx context.Context, client *amqp.Client) error {
	return client.ConsumeImportRequests(ctx, func(msg *amqp.ImportRequestMessage) error {
		return w.HandleImportRequest(ctx, msg)
	})
}

func parseWindow(fromStr, toStr string) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if fromStr != "" {
		t, err := time.Parse(dateLayout, fromStr)
		if err != nil {
			return nil, nil, fmt.Errorf("parse date_from: %w", err)
		}
		from = &t
	}
	if toStr != "" {
		t, err := time.Parse(dateLayout, toStr)
		if err != nil {
			return nil, nil, fmt.Errorf("parse date_to: %w", err)
		}
		to = &t
	}
	return from, to, nil
}
