// Package sheets exports reports to a Google Sheets spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"budgetbuddy/internal/log"
	"budgetbuddy/internal/view/reports"
)

// Block anchors within the report sheet.
const (
	categoriesColumns = "A:C"
	monthlyColumns    = "E:F"
)

// Config selects the spreadsheet and the service account.
type Config struct {
	SpreadsheetID   string
	Sheet           string
	CredentialsJSON string
	CredentialsFile string
}

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	logger        *log.Logger
}

var _ reports.Exporter = (*Exporter)(nil)

// New creates an exporter authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Exporter, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentExport)

	svc, err := newSheetsService(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.Sheet, logger), nil
}

// NewWithService wraps an already configured Sheets service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheet string, logger *log.Logger) *Exporter {
	if sheet == "" {
		sheet = "Reports"
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Exporter{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet, logger: logger}
}

func newSheetsService(ctx context.Context, cfg Config, logger *log.Logger) (*gsheet.Service, error) {
	inline := strings.TrimSpace(cfg.CredentialsJSON)
	file := strings.TrimSpace(cfg.CredentialsFile)

	var credentialsJSON []byte
	switch {
	case inline != "":
		logger.DebugContext(ctx, "Using inline service account credentials")
		credentialsJSON = []byte(inline)
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		logger.DebugContext(ctx, "Read service account credentials", "path", file, "size", len(b))
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// ExportReport replaces the Categories and Monthly blocks of the report
// sheet with r.
func (e *Exporter) ExportReport(ctx context.Context, r reports.Report) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}
	categories, monthly := buildRows(r)
	catRange := e.sheet + "!" + categoriesColumns
	monRange := e.sheet + "!" + monthlyColumns

	_, err := e.svc.Spreadsheets.Values.BatchClear(e.spreadsheetID, &gsheet.BatchClearValuesRequest{
		Ranges: []string{catRange, monRange},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear report sheet %s: %w", e.sheet, err)
	}

	_, err = e.svc.Spreadsheets.Values.BatchUpdate(e.spreadsheetID, &gsheet.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data: []*gsheet.ValueRange{
			{Range: fmt.Sprintf("%s!A1:C%d", e.sheet, len(categories)), Values: categories},
			{Range: fmt.Sprintf("%s!E1:F%d", e.sheet, len(monthly)), Values: monthly},
		},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write report sheet %s: %w", e.sheet, err)
	}

	e.logger.InfoContext(ctx, "Report written",
		log.FieldOperation, log.OpExport,
		"sheet", e.sheet,
		"categories", len(r.Categories))
	return nil
}

// buildRows lays out the two blocks of a report.
func buildRows(r reports.Report) (categories, monthly [][]any) {
	categories = [][]any{
		{"Categories", r.RangeLabel},
		{"Category", "Amount", "Share"},
	}
	for _, s := range r.Categories {
		categories = append(categories, []any{string(s.Category), s.Amount.StringFixed(2), fmt.Sprintf("%d%%", s.Share)})
	}
	categories = append(categories,
		[]any{},
		[]any{"Total", r.Stats.Total.StringFixed(2)},
		[]any{"Average", r.Stats.Average.StringFixed(2)},
		[]any{"Highest", r.Stats.HighestCategory, r.Stats.HighestAmount.StringFixed(2)},
	)

	monthly = [][]any{
		{"Monthly", r.MonthlyTitle},
		{"Month", "Amount"},
	}
	for _, b := range r.Monthly {
		monthly = append(monthly, []any{b.Label, b.Amount.StringFixed(2)})
	}
	return categories, monthly
}
