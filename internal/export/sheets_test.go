package export

import (
	"testing"
	"time"

	"github.com/hydrUsD/betterbudgeter/internal/budget"
	"github.com/hydrUsD/betterbudgeter/internal/core"
)

func TestReportRows(t *testing.T) {
	asOf := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	progress := []budget.Progress{
		{
			Budget:           core.Budget{OwnerID: "user-A", Category: "Food", MonthlyLimit: core.Money{Cents: 45000}},
			SpentCents:       38250,
			RemainingCents:   6750,
			UsagePercentage:  85.0,
			Status:           budget.StatusWarning,
			TransactionCount: 14,
		},
	}

	rows := reportRows("user-A", progress, asOf)

	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + columns + 1 budget", len(rows))
	}
	if rows[0][2] != "2026-08-31" {
		t.Errorf("report date = %v", rows[0][2])
	}
	want := []any{"Food", "450.00", "382.50", "67.50", "85.0", "warning", 14}
	for i, cell := range want {
		if rows[2][i] != cell {
			t.Errorf("cell %d = %v, want %v", i, rows[2][i], cell)
		}
	}
}

func TestReportRowsEmptyProgress(t *testing.T) {
	rows := reportRows("user-A", nil, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	if len(rows) != 2 {
		t.Errorf("empty progress should still emit the header rows, got %d", len(rows))
	}
}
