package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tally/internal/core"
	"tally/internal/storage"
)

// RecurringProcessor posts ledger entries from recurring templates. Each
// template posts at most once per period, on or after its day of month.
type RecurringProcessor struct {
	storage *storage.SQLiteRepository
	budget  *BudgetService
}

func NewRecurringProcessor(storage *storage.SQLiteRepository, budget *BudgetService) *RecurringProcessor {
	return &RecurringProcessor{
		storage: storage,
		budget:  budget,
	}
}

// ProcessDue posts every template that is due at now. Returns how many
// entries were created.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.storage == nil || p.budget == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	templates, err := p.storage.ListActiveRecurringTemplates(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recurring templates: %w", err)
	}

	period := core.MonthKey(now.Year(), int(now.Month()))
	slog.InfoContext(ctx, "Processing recurring templates",
		"component", "recurring",
		"total_active", len(templates),
		"period", string(period))

	posted := 0
	for _, t := range templates {
		if !isDue(t, now, period) {
			continue
		}

		tx := core.Transaction{
			ID:            uuid.NewString(),
			Date:          now.Format("2006-01-02"),
			Envelope:      t.Envelope,
			Amount:        t.Amount,
			Description:   t.Description,
			PaymentMethod: t.PaymentMethod,
			Type:          t.Type,
		}

		// Recurring entries are commitments; they post even when the
		// envelope runs short, and the shortfall shows on the envelope.
		if err := p.budget.AddTransaction(ctx, period, tx, false); err != nil {
			slog.ErrorContext(ctx, "Failed to post recurring entry",
				"template_id", t.ID,
				"description", t.Description,
				"error", err)
			continue
		}

		if err := p.storage.MarkRecurringPosted(ctx, t.ID, period); err != nil {
			slog.ErrorContext(ctx, "Failed to mark recurring template posted",
				"template_id", t.ID,
				"error", err)
			// The entry exists; worst case the template is re-checked next run.
		}

		posted++
		slog.InfoContext(ctx, "Posted recurring entry",
			"template_id", t.ID,
			"description", t.Description,
			"amount_cents", t.Amount.Cents)
	}

	slog.InfoContext(ctx, "Recurring processing complete",
		"posted", posted,
		"total_checked", len(templates))
	return posted, nil
}

// isDue reports whether a template should post at now. A target day past
// the end of a short month clamps to the month's last day.
func isDue(t storage.RecurringTemplate, now time.Time, period core.PeriodKey) bool {
	if t.LastPostedPeriod == period {
		return false
	}

	targetDay := t.DayOfMonth
	lastDayOfMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if targetDay > lastDayOfMonth {
		targetDay = lastDayOfMonth
	}
	return now.Day() >= targetDay
}
