// Package services orchestrates the engines against storage and messaging.
// Engines stay pure; everything with a side effect lives here.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"tally/internal/amqp"
	"tally/internal/budget"
	"tally/internal/core"
	"tally/internal/storage"
)

// BudgetService orchestrates envelope operations across SQLite and AMQP.
// Writes hit SQLite first; the remote mirror is updated asynchronously and
// never blocks a user action.
type BudgetService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewBudgetService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *BudgetService {
	return &BudgetService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// GetOrCreatePeriod loads a period, creating an empty one on first access.
// Navigating to a month is enough to start budgeting in it.
func (s *BudgetService) GetOrCreatePeriod(ctx context.Context, key core.PeriodKey) (*core.Period, error) {
	p, err := s.storage.GetPeriod(ctx, key)
	if errors.Is(err, core.ErrNotFound) {
		if err := s.storage.EnsurePeriod(ctx, key); err != nil {
			return nil, err
		}
		return core.NewPeriod(key), nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// loadPeriodSet pulls the full period history into memory so rollover can
// walk backwards without further queries.
func (s *BudgetService) loadPeriodSet(ctx context.Context) (budget.PeriodSet, error) {
	keys, err := s.storage.ListPeriodKeys(ctx)
	if err != nil {
		return nil, err
	}
	set := make(budget.PeriodSet, len(keys))
	for _, k := range keys {
		p, err := s.storage.GetPeriod(ctx, k)
		if err != nil {
			return nil, fmt.Errorf("load period %s: %w", k, err)
		}
		set[k] = p
	}
	return set, nil
}

// EnvelopeSummary is one envelope's derived figures for display.
type EnvelopeSummary struct {
	Category string         `json:"category"`
	Name     string         `json:"name"`
	Summary  budget.Summary `json:"summary"`
}

// PeriodOverview is the full derived state of one period.
type PeriodOverview struct {
	Key           core.PeriodKey    `json:"key"`
	Income        int64             `json:"income"`
	TotalBudgeted int64             `json:"totalBudgeted"`
	Unallocated   int64             `json:"unallocated"`
	Envelopes     []EnvelopeSummary `json:"envelopes"`
	Transactions  []core.Transaction `json:"transactions"`
	Blocked       []core.Transaction `json:"blocked"`
}

// Overview computes the derived view of a period: rollover, spent, and
// available per envelope, plus the allocation headroom.
func (s *BudgetService) Overview(ctx context.Context, key core.PeriodKey) (*PeriodOverview, error) {
	set, err := s.loadPeriodSet(ctx)
	if err != nil {
		return nil, err
	}
	p := set.Period(key)
	if p == nil {
		p, err = s.GetOrCreatePeriod(ctx, key)
		if err != nil {
			return nil, err
		}
		set[key] = p
	}

	calc := budget.NewCalculator(set)
	overview := &PeriodOverview{
		Key:           key,
		Income:        p.Income,
		TotalBudgeted: p.TotalBudgeted(),
		Transactions:  p.Transactions,
		Blocked:       p.BlockedTransactions,
	}
	overview.Unallocated = p.Income - overview.TotalBudgeted

	for category, byName := range p.Envelopes {
		for name := range byName {
			ref := core.EnvelopeRef{Category: category, Name: name}
			overview.Envelopes = append(overview.Envelopes, EnvelopeSummary{
				Category: category,
				Name:     name,
				Summary:  calc.Summarize(p, ref),
			})
		}
	}
	return overview, nil
}

// SetIncome records the period's declared income.
func (s *BudgetService) SetIncome(ctx context.Context, key core.PeriodKey, cents int64) error {
	if cents < 0 {
		return core.ErrInvalidAmount
	}
	p, err := s.GetOrCreatePeriod(ctx, key)
	if err != nil {
		return err
	}
	p.Income = cents
	return s.storage.SavePeriod(ctx, p)
}

// Allocate sets an envelope's budget, enforcing the income ceiling.
func (s *BudgetService) Allocate(ctx context.Context, key core.PeriodKey, ref core.EnvelopeRef, cents int64) error {
	p, err := s.GetOrCreatePeriod(ctx, key)
	if err != nil {
		return err
	}
	if err := budget.AllocateBudget(p, ref, cents); err != nil {
		return err
	}
	return s.storage.SavePeriod(ctx, p)
}

// Increment adjusts an envelope's budget by a delta, under the same ceiling.
func (s *BudgetService) Increment(ctx context.Context, key core.PeriodKey, ref core.EnvelopeRef, delta int64) error {
	p, err := s.GetOrCreatePeriod(ctx, key)
	if err != nil {
		return err
	}
	if err := budget.IncrementBudget(p, ref, delta); err != nil {
		return err
	}
	return s.storage.SavePeriod(ctx, p)
}

// ResetPeriod zeroes income and all budgets but keeps transaction history.
func (s *BudgetService) ResetPeriod(ctx context.Context, key core.PeriodKey) error {
	p, err := s.storage.GetPeriod(ctx, key)
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	p.Reset()
	return s.storage.SavePeriod(ctx, p)
}

// AddTransaction records a ledger entry. With enforce set, an expense that
// exceeds its envelope's available balance is rejected and parked as
// blocked; without it, the entry is accepted and the envelope shows the
// shortfall.
func (s *BudgetService) AddTransaction(ctx context.Context, key core.PeriodKey, tx core.Transaction, enforce bool) error {
	set, err := s.loadPeriodSet(ctx)
	if err != nil {
		return err
	}
	p := set.Period(key)
	if p == nil {
		p, err = s.GetOrCreatePeriod(ctx, key)
		if err != nil {
			return err
		}
		set[key] = p
	}

	ledger := budget.NewLedger(set)
	addErr := ledger.Add(p, tx, enforce)

	var insufficient *core.InsufficientBalanceError
	if errors.As(addErr, &insufficient) {
		// The entry is preserved as blocked so nothing is silently lost.
		if _, err := s.storage.InsertTransaction(ctx, key, tx, true); err != nil {
			return err
		}
		return addErr
	}
	if addErr != nil {
		return addErr
	}

	localID, err := s.storage.InsertTransaction(ctx, key, tx, false)
	if err != nil {
		return err
	}
	if tx.Type == core.TypeIncome {
		if err := s.storage.SavePeriod(ctx, p); err != nil {
			return err
		}
	}

	s.publishChange(ctx, amqp.NewChangeMessage(amqp.EntityTransaction, localID, 1))
	return nil
}

// DeleteTransaction removes an entry; transfer twins and income adjustments
// propagate through the ledger rules.
func (s *BudgetService) DeleteTransaction(ctx context.Context, key core.PeriodKey, id string) error {
	set, err := s.loadPeriodSet(ctx)
	if err != nil {
		return err
	}
	p := set.Period(key)
	if p == nil {
		return core.ErrNotFound
	}

	before := make(map[string]bool, len(p.Transactions))
	for _, tx := range p.Transactions {
		before[tx.ID] = true
	}

	ledger := budget.NewLedger(set)
	if err := ledger.Delete(p, id); err != nil {
		return err
	}

	// Remove every entry the ledger dropped, so transfer twins go too.
	for _, tx := range p.Transactions {
		delete(before, tx.ID)
	}
	for uid := range before {
		localID, err := s.storage.DeleteTransaction(ctx, uid)
		if errors.Is(err, core.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		// The remote mirror keeps deleted rows, but downstream consumers
		// still learn about the removal.
		s.publishChange(ctx, amqp.NewDeleteMessage(amqp.EntityTransaction, localID))
	}

	return s.storage.SavePeriod(ctx, p)
}

// CorrectPaymentMethod fixes the payment method of a stored entry.
func (s *BudgetService) CorrectPaymentMethod(ctx context.Context, key core.PeriodKey, id, method string) error {
	set, err := s.loadPeriodSet(ctx)
	if err != nil {
		return err
	}
	p := set.Period(key)
	if p == nil {
		return core.ErrNotFound
	}

	ledger := budget.NewLedger(set)
	if err := ledger.CorrectPaymentMethod(p, id, method); err != nil {
		return err
	}
	return s.storage.UpdateTransactionPaymentMethod(ctx, id, method)
}

// Transfer moves money between payment methods as a linked entry pair.
func (s *BudgetService) Transfer(ctx context.Context, key core.PeriodKey, from, to string, amount core.Money, date string) error {
	set, err := s.loadPeriodSet(ctx)
	if err != nil {
		return err
	}
	p := set.Period(key)
	if p == nil {
		p, err = s.GetOrCreatePeriod(ctx, key)
		if err != nil {
			return err
		}
		set[key] = p
	}

	ledger := budget.NewLedger(set)
	if err := ledger.Transfer(p, from, to, amount, date); err != nil {
		return err
	}

	// The transfer appended exactly two entries; both persist or neither.
	entries := p.Transactions[len(p.Transactions)-2:]
	outID, inID, err := s.storage.InsertTransactionPair(ctx, key, entries[0], entries[1])
	if err != nil {
		return err
	}
	s.publishChange(ctx, amqp.NewChangeMessage(amqp.EntityTransaction, outID, 1))
	s.publishChange(ctx, amqp.NewChangeMessage(amqp.EntityTransaction, inID, 1))
	return nil
}

// PaymentMethodBalances sums entries per payment method for one period.
func (s *BudgetService) PaymentMethodBalances(ctx context.Context, key core.PeriodKey) (map[string]int64, error) {
	p, err := s.storage.GetPeriod(ctx, key)
	if errors.Is(err, core.ErrNotFound) {
		return map[string]int64{}, nil
	}
	if err != nil {
		return nil, err
	}
	return budget.PaymentMethodBalances(p.Transactions), nil
}

// ListPaymentMethods returns the known payment method names.
func (s *BudgetService) ListPaymentMethods(ctx context.Context) ([]string, error) {
	return s.storage.ListPaymentMethods(ctx)
}

// AddPaymentMethod registers a custom payment method. Adding an existing
// name is a no-op.
func (s *BudgetService) AddPaymentMethod(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.ErrEmptyPaymentMethod
	}
	return s.storage.AddPaymentMethod(ctx, name)
}

func (s *BudgetService) publishChange(ctx context.Context, msg *amqp.ChangeMessage) {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return
	}
	if err := s.amqpClient.PublishChange(ctx, msg); err != nil {
		// The row is stored locally; the sync queue catches up later.
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"entity", msg.Entity, "id", msg.ID, "error", err)
	}
}

// Close releases the storage and messaging connections.
func (s *BudgetService) Close() error {
	var errs []error
	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close budget service: %v", errs)
	}
	return nil
}
