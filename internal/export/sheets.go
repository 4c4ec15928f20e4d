// Package export appends record change journal rows to a Google Sheet.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/log"
)

// SheetsConfig locates the target spreadsheet and the credentials to reach
// it. When both credential fields are empty, Application Default Credentials
// are used.
type SheetsConfig struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

type SheetsJournal struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

func NewSheetsJournal(ctx context.Context, cfg SheetsConfig, logger *log.Logger) (*SheetsJournal, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Journal"
	}

	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &SheetsJournal{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheetName,
		logger:        logger.WithComponent(log.ComponentExport),
	}, nil
}

// newSheetsService authenticates with a service account, preferring inline
// JSON over a key file, and falling back to ADC.
func newSheetsService(ctx context.Context, cfg SheetsConfig) (*gsheet.Service, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return gsheet.NewService(ctx, goption.WithCredentialsJSON([]byte(cfg.CredentialsJSON)), goption.WithScopes(gsheet.SpreadsheetsScope))
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		if _, err := os.Stat(cfg.CredentialsFile); err != nil {
			return nil, fmt.Errorf("credentials file: %w", err)
		}
		return gsheet.NewService(ctx, goption.WithCredentialsFile(cfg.CredentialsFile), goption.WithScopes(gsheet.SpreadsheetsScope))
	default:
		return gsheet.NewService(ctx, goption.WithScopes(gsheet.SpreadsheetsScope))
	}
}

// AppendRow appends one row to the journal sheet.
func (j *SheetsJournal) AppendRow(ctx context.Context, row []any) error {
	rangeRef := fmt.Sprintf("%s!A:Z", j.sheetName)
	_, err := j.svc.Spreadsheets.Values.
		Append(j.spreadsheetID, rangeRef, &gsheet.ValueRange{Values: [][]any{row}}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append journal row: %w", err)
	}

	j.logger.InfoContext(ctx, "journal row appended",
		log.FieldOperation, log.OpAppend,
		log.FieldSheetsRef, rangeRef)
	return nil
}
