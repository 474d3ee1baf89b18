package budget

import (
	"context"
	"testing"
	"time"

	"github.com/hydrUsD/betterbudgeter/internal/core"
	"github.com/hydrUsD/betterbudgeter/internal/storage"
)

var now = time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

func seedStore(t *testing.T, budgets []core.Budget, txs []core.Transaction) *storage.MemoryStore {
	t.Helper()
	store := storage.NewMemoryStore()
	ctx := context.Background()
	for _, b := range budgets {
		if err := store.SetBudget(ctx, b); err != nil {
			t.Fatalf("SetBudget: %v", err)
		}
	}
	if _, _, err := store.UpsertTransactions(ctx, txs); err != nil {
		t.Fatalf("UpsertTransactions: %v", err)
	}
	return store
}

func expense(externalID, category string, cents int64, date time.Time) core.Transaction {
	return core.Transaction{
		OwnerID:     "user-A",
		AccountID:   "acct-1",
		ExternalID:  externalID,
		Type:        core.Expense,
		Amount:      core.Money{Cents: cents},
		Currency:    "USD",
		BookingDate: date,
		Category:    category,
	}
}

func TestMonthlySpend(t *testing.T) {
	income := expense("t-income", "Salary", 250000, now)
	income.Type = core.Income

	store := seedStore(t, nil, []core.Transaction{
		expense("t-1", "Food", 3000, now),
		expense("t-2", "Food", 2500, now.AddDate(0, 0, -5)),
		expense("t-3", "Transport", 1200, now),
		expense("t-4", "Food", 9900, now.AddDate(0, -1, 0)), // previous month, excluded
		income, // income, excluded
	})

	spend, err := NewEngine(store).MonthlySpend(context.Background(), "user-A", now)
	if err != nil {
		t.Fatalf("MonthlySpend: %v", err)
	}

	if got := spend["Food"]; got.Spent.Cents != 5500 || got.Count != 2 {
		t.Errorf("Food spend = %+v, want 5500 cents over 2 transactions", got)
	}
	if got := spend["Transport"]; got.Spent.Cents != 1200 || got.Count != 1 {
		t.Errorf("Transport spend = %+v", got)
	}
	if _, ok := spend["Salary"]; ok {
		t.Error("income must not contribute to spend")
	}
}

func TestProgressScenarios(t *testing.T) {
	tests := []struct {
		name          string
		limitCents    int64
		spentCents    int64
		wantPct       float64
		wantStatus    Status
		wantRemaining int64
	}{
		{"zero spend", 10000, 0, 0, StatusOnTrack, 10000},
		{"under threshold", 10000, 5000, 50, StatusOnTrack, 5000},
		{"warning at 80", 10000, 8000, 80, StatusWarning, 2000},
		{"warning scenario", 10000, 8500, 85, StatusWarning, 1500},
		{"exactly at limit", 10000, 10000, 100, StatusOverBudget, 0},
		{"over limit clamps remaining", 10000, 13000, 130, StatusOverBudget, 0},
		{"zero limit with spend", 0, 500, 100, StatusOverBudget, 0},
		{"zero limit zero spend", 0, 0, 0, StatusOnTrack, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var txs []core.Transaction
			if tt.spentCents > 0 {
				txs = append(txs, expense("t-1", "Food", tt.spentCents, now))
			}
			store := seedStore(t,
				[]core.Budget{{OwnerID: "user-A", Category: "Food", MonthlyLimit: core.Money{Cents: tt.limitCents}}},
				txs)

			progress, err := NewEngine(store).Progress(context.Background(), "user-A", now)
			if err != nil {
				t.Fatalf("Progress: %v", err)
			}
			if len(progress) != 1 {
				t.Fatalf("got %d progress entries, want 1", len(progress))
			}

			p := progress[0]
			if p.UsagePercentage != tt.wantPct {
				t.Errorf("usage = %v, want %v", p.UsagePercentage, tt.wantPct)
			}
			if p.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", p.Status, tt.wantStatus)
			}
			if p.RemainingCents != tt.wantRemaining {
				t.Errorf("remaining = %d, want %d", p.RemainingCents, tt.wantRemaining)
			}
			if p.SpentCents != tt.spentCents {
				t.Errorf("spent = %d, want %d", p.SpentCents, tt.spentCents)
			}
		})
	}
}

// The month window is anchored on the caller-supplied clock, not wall time.
func TestProgressUsesInjectedClock(t *testing.T) {
	store := seedStore(t,
		[]core.Budget{{OwnerID: "user-A", Category: "Food", MonthlyLimit: core.Money{Cents: 10000}}},
		[]core.Transaction{expense("t-1", "Food", 4000, time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC))})

	engine := NewEngine(store)

	july, err := engine.Progress(context.Background(), "user-A", time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if july[0].SpentCents != 4000 {
		t.Errorf("July spend = %d, want 4000", july[0].SpentCents)
	}

	august, err := engine.Progress(context.Background(), "user-A", now)
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if august[0].SpentCents != 0 {
		t.Errorf("August spend = %d, want 0", august[0].SpentCents)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		pct  float64
		want Status
	}{
		{0, StatusOnTrack},
		{79.9, StatusOnTrack},
		{80, StatusWarning},
		{99.9, StatusWarning},
		{100, StatusOverBudget},
		{250, StatusOverBudget},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.pct); got != tt.want {
			t.Errorf("StatusFor(%v) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}
