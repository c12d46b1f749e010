// Package google mirrors ledger and habit rows into a Google Spreadsheet
// using Service Account credentials.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"tally/internal/core"
	"tally/internal/remote"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	ledgerSheet   string
	habitSheet    string
}

var _ remote.Store = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID.
// Auth: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional sheet names: GOOGLE_LEDGER_SHEET (default "Ledger") and
// GOOGLE_HABIT_SHEET (default "Habits"); both get a year prefix.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	ledgerBase := strings.TrimSpace(os.Getenv("GOOGLE_LEDGER_SHEET"))
	if ledgerBase == "" {
		ledgerBase = "Ledger"
	}
	habitBase := strings.TrimSpace(os.Getenv("GOOGLE_HABIT_SHEET"))
	if habitBase == "" {
		habitBase = "Habits"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	year := time.Now().Year()
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		ledgerSheet:   yearPrefixedName(ledgerBase, year),
		habitSheet:    yearPrefixedName(habitBase, year),
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

// yearPrefixedName returns "<year> <base>" unless base already starts with
// a year prefix.
func yearPrefixedName(base string, year int) string {
	prefix := fmt.Sprintf("%d ", year)
	if strings.HasPrefix(base, prefix) {
		return base
	}
	return prefix + base
}

// AppendTransaction appends one ledger row:
// date | period | envelope | type | amount | description | payment method | id.
func (c *Client) AppendTransaction(ctx context.Context, periodKey core.PeriodKey, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}

	row := []interface{}{
		tx.Date,
		string(periodKey),
		string(tx.Envelope),
		string(tx.Type),
		tx.Amount.String(),
		tx.Description,
		tx.PaymentMethod,
		tx.ID,
	}
	return c.appendRow(ctx, c.ledgerSheet, row)
}

// AppendHabitLog appends one habit row: date | habit | status | id.
func (c *Client) AppendHabitLog(ctx context.Context, habitName string, log core.HabitLog) (string, error) {
	row := []interface{}{
		log.Date,
		habitName,
		string(log.Status),
		log.HabitID,
	}
	return c.appendRow(ctx, c.habitSheet, row)
}

func (c *Client) appendRow(ctx context.Context, sheet string, row []interface{}) (string, error) {
	rangeRef := fmt.Sprintf("%s!A:Z", sheet)
	vr := &gsheet.ValueRange{Values: [][]interface{}{row}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rangeRef, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", sheet, err)
	}

	rowRef := ""
	if resp.Updates != nil {
		rowRef = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Appended remote row",
		"component", "remote",
		"sheet", sheet,
		"row_ref", rowRef)
	return rowRef, nil
}
