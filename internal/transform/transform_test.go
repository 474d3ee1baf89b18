package transform

import (
	"testing"
	"time"

	"github.com/hydrUsD/betterbudgeter/internal/core"
	"github.com/hydrUsD/betterbudgeter/internal/synth"
)

func synthWindow() (time.Time, time.Time) {
	to := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	return to.AddDate(0, 0, -90), to
}

func validSynthetic() synth.Transaction {
	return synth.Transaction{
		ExternalID:   "tx-00000001-00000002-0000",
		AccountID:    "demo-bank-001-acc-001",
		Amount:       "-42.50",
		Currency:     "USD",
		BookingDate:  "2026-08-15",
		CreditorName: "FreshMart Supermarket",
		Description:  "Card purchase FRESHMART SUPERMARKET",
	}
}

func TestTransformExpense(t *testing.T) {
	row, violations := Transform(validSynthetic(), "user-A", "acct-1")

	if len(violations) != 0 {
		t.Fatalf("unexpected violations: %v", violations)
	}
	if row.Type != core.Expense {
		t.Errorf("type = %q, want expense", row.Type)
	}
	if row.Amount.Cents != 4250 {
		t.Errorf("amount = %d cents, want 4250", row.Amount.Cents)
	}
	if row.Category != "Food" {
		t.Errorf("category = %q, want Food", row.Category)
	}
	if row.OwnerID != "user-A" || row.AccountID != "acct-1" {
		t.Errorf("ownership not threaded through: %q/%q", row.OwnerID, row.AccountID)
	}
	if row.Counterparty != "FreshMart Supermarket" {
		t.Errorf("counterparty = %q", row.Counterparty)
	}
}

func TestTransformIncome(t *testing.T) {
	tx := validSynthetic()
	tx.Amount = "2500.00"
	tx.CreditorName = ""
	tx.DebtorName = "Acme Corp Payroll"
	tx.Description = "Incoming transfer ACME CORP SALARY"

	row, violations := Transform(tx, "user-A", "acct-1")

	if len(violations) != 0 {
		t.Fatalf("unexpected violations: %v", violations)
	}
	if row.Type != core.Income {
		t.Errorf("type = %q, want income", row.Type)
	}
	if row.Amount.Cents != 250000 {
		t.Errorf("amount = %d cents, want 250000", row.Amount.Cents)
	}
	if row.Category != "Salary" {
		t.Errorf("category = %q, want Salary", row.Category)
	}
}

func TestTransformCollectsAllViolations(t *testing.T) {
	tx := validSynthetic()
	tx.ExternalID = ""
	tx.BookingDate = ""
	tx.Amount = "not-a-number"
	tx.Currency = " "

	_, violations := Transform(tx, "user-A", "acct-1")

	if len(violations) != 4 {
		t.Fatalf("got %d violations, want 4: %v", len(violations), violations)
	}
	fields := make(map[string]bool)
	for _, v := range violations {
		fields[v.Field] = true
	}
	for _, f := range []string{"transactionId", "bookingDate", "amount", "currency"} {
		if !fields[f] {
			t.Errorf("missing violation for field %q", f)
		}
	}
}

func TestTransformRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*synth.Transaction)
		field  string
	}{
		{"zero amount", func(tx *synth.Transaction) { tx.Amount = "0.00" }, "amount"},
		{"malformed date", func(tx *synth.Transaction) { tx.BookingDate = "15/08/2026" }, "bookingDate"},
		{"blank id", func(tx *synth.Transaction) { tx.ExternalID = "   " }, "transactionId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validSynthetic()
			tt.mutate(&tx)

			_, violations := Transform(tx, "user-A", "acct-1")

			if len(violations) != 1 {
				t.Fatalf("got %d violations, want 1: %v", len(violations), violations)
			}
			if violations[0].Field != tt.field {
				t.Errorf("violation field = %q, want %q", violations[0].Field, tt.field)
			}
		})
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name         string
		description  string
		counterparty string
		want         string
	}{
		{"supermarket", "Card purchase FRESHMART SUPERMARKET", "FreshMart", "Food"},
		{"coffee", "Card purchase BEAN SCENE COFFEE", "Bean Scene Coffee", "Dining"},
		{"transit", "Transit fare METRO TRANSIT", "Metro Transit Authority", "Transport"},
		{"utility bill", "Direct debit CITY POWER UTILITY BILL", "City Power & Light", "Utilities"},
		{"streaming", "Subscription STREAMFLIX MONTHLY", "Streamflix", "Entertainment"},
		{"salary", "Incoming transfer ACME CORP SALARY", "Acme Corp Payroll", "Salary"},
		{"unmatched", "POS 99213 ref 8811", "Cryptic Merchant 42", "Other"},
		{"keyword in counterparty only", "Direct debit ref 100", "Downtown Parking", "Transport"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Categorize(tt.description, tt.counterparty); got != tt.want {
				t.Errorf("Categorize(%q, %q) = %q, want %q", tt.description, tt.counterparty, got, tt.want)
			}
		})
	}
}

// Generator output must transform cleanly end to end.
func TestTransformGeneratorOutput(t *testing.T) {
	from, to := synthWindow()
	for _, tx := range synth.TransactionsFor("demo-bank-003-acc-001", "user-A", from, to) {
		if _, violations := Transform(tx, "user-A", "acct-1"); len(violations) != 0 {
			t.Fatalf("generator transaction %s failed transform: %v", tx.ExternalID, violations)
		}
	}
}
