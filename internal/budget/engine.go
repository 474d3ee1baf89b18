// Package budget derives spend-vs-limit state from persisted transactions.
// Spend is always recomputed live from the store; nothing here is cached,
// so the view reflects the latest ingested data without an invalidation
// mechanism.
package budget

import (
	"context"
	"fmt"
	"time"

	"github.com/hydrUsD/betterbudgeter/internal/core"
)

// Status thresholds, fixed by design: not user-configurable.
const (
	warningThreshold = 80.0
	overThreshold    = 100.0
)

const (
	StatusOnTrack    Status = "on_track"
	StatusWarning    Status = "warning"
	StatusOverBudget Status = "over_budget"
)

type (
	Status string

	// CategorySpend aggregates one category's expenses for a month.
	CategorySpend struct {
		Spent core.Money
		Count int
	}

	// Progress is the spend-vs-limit state of one budget.
	Progress struct {
		Budget           core.Budget `json:"budget"`
		SpentCents       int64       `json:"spentCents"`
		RemainingCents   int64       `json:"remainingCents"`
		UsagePercentage  float64     `json:"usagePercentage"`
		Status           Status      `json:"status"`
		TransactionCount int         `json:"transactionCount"`
	}

	// Store is the slice of the persistence layer the engine reads.
	Store interface {
		GetTransactions(ctx context.Context, ownerID string, from, to time.Time) ([]core.Transaction, error)
		GetBudgets(ctx context.Context, ownerID string) ([]core.Budget, error)
	}

	Engine struct {
		store Store
	}
)

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// MonthlySpend sums absolute expense amounts per category over the calendar
// month containing now. The caller supplies now, which keeps the engine pure
// with respect to wall-clock time.
func (e *Engine) MonthlySpend(ctx context.Context, ownerID string, now time.Time) (map[string]CategorySpend, error) {
	from, to := monthBounds(now)
	txs, err := e.store.GetTransactions(ctx, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load month transactions: %w", err)
	}

	spend := make(map[string]CategorySpend)
	for _, tx := range txs {
		if tx.Type != core.Expense {
			continue
		}
		s := spend[tx.Category]
		s.Spent.Cents += tx.Amount.Cents
		s.Count++
		spend[tx.Category] = s
	}
	return spend, nil
}

// Progress joins each budget against the current month's spend and derives
// traffic-light status. Remaining is floored at 0 even when spend exceeds
// the limit; the overage is surfaced through UsagePercentage and Status
// instead of a negative remaining.
func (e *Engine) Progress(ctx context.Context, ownerID string, now time.Time) ([]Progress, error) {
	budgets, err := e.store.GetBudgets(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load budgets: %w", err)
	}
	spend, err := e.MonthlySpend(ctx, ownerID, now)
	if err != nil {
		return nil, err
	}

	out := make([]Progress, 0, len(budgets))
	for _, b := range budgets {
		s := spend[b.Category]
		pct := usagePercentage(s.Spent.Cents, b.MonthlyLimit.Cents)
		remaining := b.MonthlyLimit.Cents - s.Spent.Cents
		if remaining < 0 {
			remaining = 0
		}
		out = append(out, Progress{
			Budget:           b,
			SpentCents:       s.Spent.Cents,
			RemainingCents:   remaining,
			UsagePercentage:  pct,
			Status:           StatusFor(pct),
			TransactionCount: s.Count,
		})
	}
	return out, nil
}

// usagePercentage handles the zero-limit edge case explicitly: any positive
// spend against a zero limit is defined as 100% (already over) rather than a
// division by zero; zero spend is 0% regardless of limit.
func usagePercentage(spentCents, limitCents int64) float64 {
	if spentCents == 0 {
		return 0
	}
	if limitCents == 0 {
		return 100
	}
	return float64(spentCents) / float64(limitCents) * 100
}

// StatusFor is a pure function of the usage percentage.
func StatusFor(pct float64) Status {
	switch {
	case pct >= overThreshold:
		return StatusOverBudget
	case pct >= warningThreshold:
		return StatusWarning
	default:
		return StatusOnTrack
	}
}

func monthBounds(now time.Time) (time.Time, time.Time) {
	y, m, _ := now.UTC().Date()
	from := time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)
	return from, to
}
