// Package transform maps generator DTOs into persisted transaction rows.
// It derives the income/expense type from the signed amount, stores the
// absolute value, assigns a category, and validates the result, collecting
// every violated constraint instead of stopping at the first one.
package transform

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hydrUsD/betterbudgeter/internal/core"
	"github.com/hydrUsD/betterbudgeter/internal/synth"
)

// Violation describes one failed constraint on a synthetic record.
type Violation struct {
	Field   string
	Problem string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Problem)
}

// Transform converts one synthetic transaction into a persisted row for the
// given owner and account. A non-empty violation list means the record must
// be skipped; the returned row is only meaningful when violations is empty.
func Transform(tx synth.Transaction, ownerID, accountID string) (core.Transaction, []Violation) {
	var violations []Violation

	if strings.TrimSpace(tx.ExternalID) == "" {
		violations = append(violations, Violation{Field: "transactionId", Problem: "missing"})
	}
	if strings.TrimSpace(tx.Currency) == "" {
		violations = append(violations, Violation{Field: "currency", Problem: "missing"})
	}

	var bookingDate time.Time
	if strings.TrimSpace(tx.BookingDate) == "" {
		violations = append(violations, Violation{Field: "bookingDate", Problem: "missing"})
	} else {
		var err error
		bookingDate, err = time.Parse(synth.DateLayout, tx.BookingDate)
		if err != nil {
			violations = append(violations, Violation{Field: "bookingDate", Problem: fmt.Sprintf("not an ISO date: %q", tx.BookingDate)})
		}
	}

	txType := core.Income
	var cents int64
	amount, err := decimal.NewFromString(strings.TrimSpace(tx.Amount))
	switch {
	case err != nil:
		violations = append(violations, Violation{Field: "amount", Problem: fmt.Sprintf("not a decimal: %q", tx.Amount)})
	case amount.IsZero():
		violations = append(violations, Violation{Field: "amount", Problem: "must be non-zero"})
	default:
		if amount.IsNegative() {
			txType = core.Expense
		}
		cents = amount.Abs().Shift(2).Round(0).IntPart()
	}

	if len(violations) > 0 {
		return core.Transaction{}, violations
	}

	return core.Transaction{
		OwnerID:      ownerID,
		AccountID:    accountID,
		ExternalID:   tx.ExternalID,
		Type:         txType,
		Amount:       core.Money{Cents: cents},
		Currency:     tx.Currency,
		BookingDate:  bookingDate,
		Counterparty: tx.Counterparty(),
		Description:  tx.Description,
		Category:     Categorize(tx.Description, tx.Counterparty()),
	}, nil
}
