package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finstress/internal/core"
	ports "finstress/internal/sheets"
)

var _ ports.BudgetExporter = (*Exporter)(nil)

// rowAppender is the single Sheets call the exporter makes.
type rowAppender interface {
	AppendRows(ctx context.Context, spreadsheetID, rng string, rows [][]any) error
}

// Exporter appends each stored budget to a sheet, one row per category.
type Exporter struct {
	rows          rowAppender
	spreadsheetID string
	sheetName     string
}

type Config struct {
	SpreadsheetID string
	SheetName     string
	// CredentialsFile is a service account key. When empty,
	// GOOGLE_SERVICE_ACCOUNT_JSON is used instead.
	CredentialsFile string
}

func NewExporter(ctx context.Context, cfg Config) (*Exporter, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "Budgets"
	}
	svc, err := newSheetsService(ctx, cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Exporter{
		rows:          serviceAppender{svc: svc},
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
	}, nil
}

func (e *Exporter) ExportBudget(ctx context.Context, rec core.BudgetRecord) error {
	rows := BudgetRows(rec)
	rng := fmt.Sprintf("%s!A:H", e.sheetName)
	if err := e.rows.AppendRows(ctx, e.spreadsheetID, rng, rows); err != nil {
		return fmt.Errorf("append budget %s to %s: %w", rec.ID, e.sheetName, err)
	}
	return nil
}

// newSheetsService authenticates with a service account.
func newSheetsService(ctx context.Context, credentialsFile string) (*gsheet.Service, error) {
	var credentialsJSON []byte
	inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))

	switch {
	case credentialsFile != "":
		b, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	case inline != "":
		credentialsJSON = []byte(inline)
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_SERVICE_ACCOUNT_JSON)")
	}

	slog.InfoContext(ctx, "Creating Google Sheets service", "credentials_size", len(credentialsJSON), "scope", gsheet.SpreadsheetsScope)
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

type serviceAppender struct {
	svc *gsheet.Service
}

func (a serviceAppender) AppendRows(ctx context.Context, spreadsheetID, rng string, rows [][]any) error {
	_, err := a.svc.Spreadsheets.Values.Append(spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}
