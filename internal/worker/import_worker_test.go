package worker

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/hydrUsD/betterbudgeter/internal/amqp"
	"github.com/hydrUsD/betterbudgeter/internal/budget"
	"github.com/hydrUsD/betterbudgeter/internal/core"
	"github.com/hydrUsD/betterbudgeter/internal/ingest"
	"github.com/hydrUsD/betterbudgeter/internal/log"
	"github.com/hydrUsD/betterbudgeter/internal/storage"
)

func newTestWorker(t *testing.T) (*ImportWorker, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	logger := log.New(log.Config{Level: slog.LevelError})
	w := NewImportWorker(ingest.New(store), budget.NewEngine(store), logger)
	w.now = func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) }
	return w, store
}

func TestHandleImportRequest(t *testing.T) {
	w, store := newTestWorker(t)
	ctx := context.Background()

	acct := core.Account{
		ID:            "acct-1",
		OwnerID:       "user-A",
		InstitutionID: "demo-bank-001",
		SyntheticID:   "demo-bank-001-acc-001",
		Name:          "Everyday Checking",
		Type:          core.Checking,
		Currency:      "USD",
	}
	if _, err := store.CreateAccount(ctx, acct); err != nil {
		t.Fatal(err)
	}

	msg := amqp.NewImportRequestMessage("user-A", "acct-1", "", "")
	if err := w.HandleImportRequest(ctx, msg); err != nil {
		t.Fatalf("HandleImportRequest() error = %v", err)
	}

	keys := store.TransactionKeys("user-A")
	if len(keys) == 0 {
		t.Error("queued import should persist transactions")
	}
}

func TestHandleImportRequestUnknownAccountIsTerminal(t *testing.T) {
	w, _ := newTestWorker(t)

	msg := amqp.NewImportRequestMessage("user-A", "no-such-account", "", "")
	if err := w.HandleImportRequest(context.Background(), msg); err != nil {
		t.Errorf("batch rejection should not requeue, got error %v", err)
	}
}

func TestHandleImportRequestBadWindowIsDropped(t *testing.T) {
	w, store := newTestWorker(t)

	msg := amqp.NewImportRequestMessage("user-A", "acct-1", "not-a-date", "")
	if err := w.HandleImportRequest(context.Background(), msg); err != nil {
		t.Errorf("malformed window should not requeue, got error %v", err)
	}
	if len(store.TransactionKeys("user-A")) != 0 {
		t.Error("dropped request must not persist anything")
	}
}

func TestParseWindow(t *testing.T) {
	from, to, err := parseWindow("2026-06-01", "2026-06-30")
	if err != nil {
		t.Fatalf("parseWindow() error = %v", err)
	}
	if from == nil || to == nil {
		t.Fatal("both bounds should be set")
	}
	if !from.Equal(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("from = %v", from)
	}

	from, to, err = parseWindow("", "")
	if err != nil || from != nil || to != nil {
		t.Errorf("empty window should parse to nil bounds, got %v %v %v", from, to, err)
	}

	if _, _, err := parseWindow("06/01/2026", ""); err == nil {
		t.Error("expected error for malformed date")
	}
}
