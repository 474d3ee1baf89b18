// Package export writes budget progress reports to a Google Sheet. It is
// used by the one-shot report binary; the API server never touches Sheets.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/hydrUsD/betterbudgeter/internal/budget"
)

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// New creates a Sheets exporter with service account credentials taken from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, spreadsheetID, sheetName string) (*Exporter, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Budget Report"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Exporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// Export appends one report block to the sheet: a stamped header row followed
// by a row per budget.
func (e *Exporter) Export(ctx context.Context, ownerID string, progress []budget.Progress, asOf time.Time) error {
	rows := reportRows(ownerID, progress, asOf)
	vr := &gsheet.ValueRange{Values: rows}

	_, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, e.sheetName+"!A1", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append report rows: %w", err)
	}

	slog.InfoContext(ctx, "Budget report exported",
		"owner_id", ownerID,
		"rows", len(rows),
		"sheet", e.sheetName)
	return nil
}

// reportRows builds the sheet rows for one report. Amounts are written in
// units with two decimals, the way the rest of the API renders money.
func reportRows(ownerID string, progress []budget.Progress, asOf time.Time) [][]any {
	rows := [][]any{
		{"Budget report", ownerID, asOf.Format("2006-01-02")},
		{"Category", "Limit", "Spent", "Remaining", "Usage %", "Status", "Transactions"},
	}
	for _, p := range progress {
		rows = append(rows, []any{
			p.Budget.Category,
			p.Budget.MonthlyLimit.String(),
			fmt.Sprintf("%.2f", float64(p.SpentCents)/100),
			fmt.Sprintf("%.2f", float64(p.RemainingCents)/100),
			fmt.Sprintf("%.1f", p.UsagePercentage),
			string(p.Status),
			p.TransactionCount,
		})
	}
	return rows
}
