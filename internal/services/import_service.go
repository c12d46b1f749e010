package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"tally/internal/core"
)

// ImportService bulk-loads ledger entries from CSV. Rows are processed
// independently: a bad row is reported, not fatal.
type ImportService struct {
	budget *BudgetService
}

func NewImportService(budget *BudgetService) *ImportService {
	return &ImportService{budget: budget}
}

// RowError ties a failed CSV row to its reason.
type RowError struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

// ImportResult reports a partial-failure import outcome.
type ImportResult struct {
	SuccessCount int        `json:"successCount"`
	ErrorCount   int        `json:"errorCount"`
	Errors       []RowError `json:"errors,omitempty"`
}

// csvHeader is the expected column layout, with or without a header row.
var csvHeader = []string{"date", "envelope", "amount", "description", "payment_method", "type"}

// ImportTransactions reads CSV rows and records each as a ledger entry in
// the period its date falls in. Balance is enforced: a row whose expense
// exceeds the envelope's available balance is rejected and parked as
// blocked in its period.
func (s *ImportService) ImportTransactions(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvHeader)
	reader.TrimLeadingSpace = true

	result := &ImportResult{}
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.ErrorCount++
			result.Errors = append(result.Errors, RowError{Line: line, Error: err.Error()})
			continue
		}
		if line == 1 && strings.EqualFold(record[0], csvHeader[0]) {
			continue // header row
		}

		tx, key, err := parseRow(record)
		if err != nil {
			result.ErrorCount++
			result.Errors = append(result.Errors, RowError{Line: line, Error: err.Error()})
			continue
		}

		if err := s.budget.AddTransaction(ctx, key, tx, true); err != nil {
			result.ErrorCount++
			result.Errors = append(result.Errors, RowError{Line: line, Error: err.Error()})
			continue
		}
		result.SuccessCount++
	}

	slog.InfoContext(ctx, "CSV import finished",
		"component", "import",
		"imported", result.SuccessCount,
		"failed", result.ErrorCount)
	return result, nil
}

func parseRow(record []string) (core.Transaction, core.PeriodKey, error) {
	date := strings.TrimSpace(record[0])
	if len(date) < 7 {
		return core.Transaction{}, "", core.ErrInvalidDate
	}

	amount, err := core.ParseAmount(record[2])
	if err != nil {
		return core.Transaction{}, "", fmt.Errorf("amount %q: %w", record[2], err)
	}

	tx := core.Transaction{
		ID:            uuid.NewString(),
		Date:          date,
		Envelope:      core.EnvelopeTag(strings.TrimSpace(record[1])),
		Amount:        amount,
		Description:   strings.TrimSpace(record[3]),
		PaymentMethod: strings.TrimSpace(record[4]),
		Type:          core.TransactionType(strings.TrimSpace(record[5])),
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, "", err
	}

	// The period is the entry's own month.
	key, err := core.ValidatePeriodKeyString(date[:7])
	if err != nil {
		return core.Transaction{}, "", err
	}
	return tx, key, nil
}

// ExportTransactions writes one period's ledger as CSV, blocked entries
// excluded.
func (s *ImportService) ExportTransactions(ctx context.Context, w io.Writer, key core.PeriodKey) error {
	p, err := s.budget.GetOrCreatePeriod(ctx, key)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, tx := range p.Transactions {
		record := []string{
			tx.Date,
			string(tx.Envelope),
			tx.Amount.String(),
			tx.Description,
			tx.PaymentMethod,
			string(tx.Type),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
