package storage

import (
	"context"
	"fmt"
	"log/slog"

	"tally/internal/core"
)

// RecurringTemplate describes a transaction posted automatically once per
// period, on or after its day of month.
type RecurringTemplate struct {
	ID               int64
	Envelope         core.EnvelopeTag
	Amount           core.Money
	Description      string
	PaymentMethod    string
	Type             core.TransactionType
	DayOfMonth       int
	LastPostedPeriod core.PeriodKey
	IsActive         bool
}

// CreateRecurringTemplate registers a new recurring transaction.
func (r *SQLiteRepository) CreateRecurringTemplate(ctx context.Context, t RecurringTemplate) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_templates (envelope_tag, amount_cents, description, payment_method, tx_type, day_of_month, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(t.Envelope), t.Amount.Cents, t.Description, t.PaymentMethod, string(t.Type), t.DayOfMonth, t.IsActive)
	if err != nil {
		return 0, fmt.Errorf("create recurring template: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("recurring template id: %w", err)
	}
	return id, nil
}

// ListActiveRecurringTemplates returns templates eligible for posting.
func (r *SQLiteRepository) ListActiveRecurringTemplates(ctx context.Context) ([]RecurringTemplate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, envelope_tag, amount_cents, description, payment_method, tx_type, day_of_month, last_posted_period, is_active
		 FROM recurring_templates WHERE is_active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list recurring templates: %w", err)
	}
	defer rows.Close()

	var templates []RecurringTemplate
	for rows.Next() {
		var t RecurringTemplate
		var tag, txType, lastPosted string
		var amountCents int64
		if err := rows.Scan(&t.ID, &tag, &amountCents, &t.Description, &t.PaymentMethod, &txType, &t.DayOfMonth, &lastPosted, &t.IsActive); err != nil {
			return nil, fmt.Errorf("scan recurring template: %w", err)
		}
		t.Envelope = core.EnvelopeTag(tag)
		t.Amount = core.Money{Cents: amountCents}
		t.Type = core.TransactionType(txType)
		t.LastPostedPeriod = core.PeriodKey(lastPosted)
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// MarkRecurringPosted records which period the template last posted in, so
// a template never posts twice in one period.
func (r *SQLiteRepository) MarkRecurringPosted(ctx context.Context, id int64, period core.PeriodKey) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE recurring_templates SET last_posted_period = ? WHERE id = ?`, string(period), id)
	if err != nil {
		return fmt.Errorf("mark recurring posted: %w", err)
	}
	slog.InfoContext(ctx, "Recurring template posted", "component", "storage", "template_id", id, "period", string(period))
	return nil
}

// DeactivateRecurringTemplate stops future postings without losing history.
func (r *SQLiteRepository) DeactivateRecurringTemplate(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recurring_templates SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate recurring template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate recurring rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
