// Package notify turns pipeline results and budget progress into transient
// alert records. Notifications are composed fresh on every call and are
// never persisted; repeated imports in the same month re-notify on the same
// threshold crossings by design.
package notify

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hydrUsD/betterbudgeter/internal/budget"
	"github.com/hydrUsD/betterbudgeter/internal/ingest"
)

const (
	TypeImportSummary Type = "import_summary"
	TypeImportFailed  Type = "import_failed"
	TypeImportErrors  Type = "import_errors"
	TypeBudgetWarning Type = "budget_warning"
	TypeBudgetOver    Type = "budget_over"
)

type (
	Type string

	// Notification is an ephemeral view object for toast/alert display.
	Notification struct {
		ID        string    `json:"id"`
		Type      Type      `json:"type"`
		Title     string    `json:"title"`
		Message   string    `json:"message"`
		CreatedAt time.Time `json:"createdAt"`
	}
)

func newNotification(t Type, title, message string) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Type:      t,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

// FromImport composes notifications for one import result.
func FromImport(result ingest.ImportResult) []Notification {
	if !result.Success {
		detail := "unknown error"
		if len(result.ErrorDetails) > 0 {
			detail = result.ErrorDetails[0]
		}
		return []Notification{newNotification(TypeImportFailed, "Import failed", detail)}
	}

	out := []Notification{newNotification(TypeImportSummary, "Import completed",
		fmt.Sprintf("%d new transactions, %d updated", result.Imported, result.Updated))}

	if result.Errors > 0 {
		out = append(out, newNotification(TypeImportErrors, "Some transactions were skipped",
			fmt.Sprintf("%d of %d records could not be imported",
				result.Errors, result.Imported+result.Updated+result.Skipped)))
	}
	return out
}

// FromBudgetCrossings composes alerts for budgets at or past their
// thresholds. Only warning and over_budget entries qualify, and over_budget
// entries sort before warnings; order is otherwise preserved.
func FromBudgetCrossings(progress []budget.Progress) []Notification {
	var crossed []budget.Progress
	for _, p := range progress {
		if p.Status == budget.StatusWarning || p.Status == budget.StatusOverBudget {
			crossed = append(crossed, p)
		}
	}
	sort.SliceStable(crossed, func(i, j int) bool {
		return crossed[i].Status == budget.StatusOverBudget && crossed[j].Status != budget.StatusOverBudget
	})

	out := make([]Notification, 0, len(crossed))
	for _, p := range crossed {
		if p.Status == budget.StatusOverBudget {
			out = append(out, newNotification(TypeBudgetOver,
				fmt.Sprintf("%s budget exceeded", p.Budget.Category),
				fmt.Sprintf("Spent %.0f%% of the %s budget this month", p.UsagePercentage, p.Budget.Category)))
			continue
		}
		out = append(out, newNotification(TypeBudgetWarning,
			fmt.Sprintf("%s budget almost used up", p.Budget.Category),
			fmt.Sprintf("Spent %.0f%% of the %s budget this month", p.UsagePercentage, p.Budget.Category)))
	}
	return out
}

// PostImportNotifications is the composition used after an import: the
// import outcome first, then any budget threshold crossings.
func PostImportNotifications(result ingest.ImportResult, progress []budget.Progress) []Notification {
	return append(FromImport(result), FromBudgetCrossings(progress)...)
}
