package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"tally/internal/core"
	"tally/internal/storage"
)

func newTestBudgetService(t *testing.T) *BudgetService {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return NewBudgetService(repo, nil)
}

var groceries = core.EnvelopeRef{Category: "needs", Name: "groceries"}

func entry(cents int64, date string) core.Transaction {
	return core.Transaction{
		ID:            uuid.NewString(),
		Date:          date,
		Envelope:      groceries.Tag(),
		Amount:        core.Money{Cents: cents},
		Description:   "shop",
		PaymentMethod: "debit",
		Type:          core.TypeExpense,
	}
}

func TestAllocateAndOverview(t *testing.T) {
	s := newTestBudgetService(t)
	ctx := context.Background()

	if err := s.SetIncome(ctx, "2025-03", 250000); err != nil {
		t.Fatalf("SetIncome() error = %v", err)
	}
	if err := s.Allocate(ctx, "2025-03", groceries, 40000); err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if err := s.AddTransaction(ctx, "2025-03", entry(12500, "2025-03-10"), false); err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}

	ov, err := s.Overview(ctx, "2025-03")
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}
	if ov.Income != 250000 {
		t.Errorf("Income = %d, want 250000", ov.Income)
	}
	if ov.TotalBudgeted != 40000 {
		t.Errorf("TotalBudgeted = %d, want 40000", ov.TotalBudgeted)
	}
	if ov.Unallocated != 210000 {
		t.Errorf("Unallocated = %d, want 210000", ov.Unallocated)
	}
	if len(ov.Envelopes) != 1 {
		t.Fatalf("len(Envelopes) = %d, want 1", len(ov.Envelopes))
	}
	sum := ov.Envelopes[0].Summary
	if sum.Spent != 12500 || sum.Available != 27500 {
		t.Errorf("Summary = %+v, want spent 12500 available 27500", sum)
	}
}

func TestAllocateCeilingRejected(t *testing.T) {
	s := newTestBudgetService(t)
	ctx := context.Background()

	if err := s.SetIncome(ctx, "2025-03", 100000); err != nil {
		t.Fatalf("SetIncome() error = %v", err)
	}
	err := s.Allocate(ctx, "2025-03", groceries, 120000)
	var exceeded *core.AllocationExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("Allocate() error = %v, want AllocationExceededError", err)
	}
	if exceeded.Remaining != 100000 {
		t.Errorf("Remaining = %d, want 100000", exceeded.Remaining)
	}
}

func TestRolloverAcrossStoredPeriods(t *testing.T) {
	s := newTestBudgetService(t)
	ctx := context.Background()

	// February: budget 300, spend 240. March inherits 60.
	if err := s.SetIncome(ctx, "2025-02", 100000); err != nil {
		t.Fatalf("SetIncome() error = %v", err)
	}
	if err := s.Allocate(ctx, "2025-02", groceries, 30000); err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if err := s.AddTransaction(ctx, "2025-02", entry(24000, "2025-02-10"), false); err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}

	if err := s.SetIncome(ctx, "2025-03", 100000); err != nil {
		t.Fatalf("SetIncome() error = %v", err)
	}
	if err := s.Allocate(ctx, "2025-03", groceries, 30000); err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}

	ov, err := s.Overview(ctx, "2025-03")
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}
	sum := ov.Envelopes[0].Summary
	if sum.Rollover != 6000 {
		t.Errorf("Rollover = %d, want 6000", sum.Rollover)
	}
	if sum.Available != 36000 {
		t.Errorf("Available = %d, want 36000", sum.Available)
	}
}

func TestAddTransactionEnforcedBlocks(t *testing.T) {
	s := newTestBudgetService(t)
	ctx := context.Background()

	if err := s.SetIncome(ctx, "2025-03", 100000); err != nil {
		t.Fatalf("SetIncome() error = %v", err)
	}
	if err := s.Allocate(ctx, "2025-03", groceries, 10000); err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}

	err := s.AddTransaction(ctx, "2025-03", entry(15000, "2025-03-10"), true)
	var insufficient *core.InsufficientBalanceError
	if !errors.As(err, &insufficient) {
		t.Fatalf("AddTransaction() error = %v, want InsufficientBalanceError", err)
	}

	// The entry is preserved as blocked and does not count as spent.
	ov, err := s.Overview(ctx, "2025-03")
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}
	if len(ov.Blocked) != 1 {
		t.Fatalf("len(Blocked) = %d, want 1", len(ov.Blocked))
	}
	if ov.Envelopes[0].Summary.Spent != 0 {
		t.Errorf("Spent = %d, want 0", ov.Envelopes[0].Summary.Spent)
	}
}

func TestAddTransactionUnenforcedAllowsOverdraft(t *testing.T) {
	s := newTestBudgetService(t)
	ctx := context.Background()

	if err := s.SetIncome(ctx, "2025-03", 100000); err != nil {
		t.Fatalf("SetIncome() error = %v", err)
	}
	if err := s.Allocate(ctx, "2025-03", groceries, 10000); err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}

	if err := s.AddTransaction(ctx, "2025-03", entry(15000, "2025-03-10"), false); err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}

	ov, err := s.Overview(ctx, "2025-03")
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}
	sum := ov.Envelopes[0].Summary
	if sum.Available != -5000 {
		t.Errorf("Available = %d, want -5000", sum.Available)
	}
}

func TestIncomeTransactionRaisesIncome(t *testing.T) {
	s := newTestBudgetService(t)
	ctx := context.Background()

	tx := core.Transaction{
		ID:            uuid.NewString(),
		Date:          "2025-03-01",
		Envelope:      core.TagIncome,
		Amount:        core.Money{Cents: 250000},
		Description:   "salary",
		PaymentMethod: "debit",
		Type:          core.TypeIncome,
	}
	if err := s.AddTransaction(ctx, "2025-03", tx, false); err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}

	ov, err := s.Overview(ctx, "2025-03")
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}
	if ov.Income != 250000 {
		t.Errorf("Income = %d, want 250000", ov.Income)
	}
}

func TestDeleteTransferRemovesTwin(t *testing.T) {
	s := newTestBudgetService(t)
	ctx := context.Background()

	if err := s.Transfer(ctx, "2025-03", "debit", "cash", core.Money{Cents: 5000}, "2025-03-05"); err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}

	ov, err := s.Overview(ctx, "2025-03")
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}
	if len(ov.Transactions) != 2 {
		t.Fatalf("len(Transactions) = %d, want 2", len(ov.Transactions))
	}

	if err := s.DeleteTransaction(ctx, "2025-03", ov.Transactions[0].ID); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}

	ov, err = s.Overview(ctx, "2025-03")
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}
	if len(ov.Transactions) != 0 {
		t.Errorf("len(Transactions) = %d after twin delete, want 0", len(ov.Transactions))
	}
}

func TestResetPeriodKeepsTransactions(t *testing.T) {
	s := newTestBudgetService(t)
	ctx := context.Background()

	if err := s.SetIncome(ctx, "2025-03", 100000); err != nil {
		t.Fatalf("SetIncome() error = %v", err)
	}
	if err := s.Allocate(ctx, "2025-03", groceries, 10000); err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if err := s.AddTransaction(ctx, "2025-03", entry(2500, "2025-03-10"), false); err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}

	if err := s.ResetPeriod(ctx, "2025-03"); err != nil {
		t.Fatalf("ResetPeriod() error = %v", err)
	}

	ov, err := s.Overview(ctx, "2025-03")
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}
	if ov.Income != 0 || ov.TotalBudgeted != 0 {
		t.Errorf("after reset income = %d budgeted = %d, want 0, 0", ov.Income, ov.TotalBudgeted)
	}
	if len(ov.Transactions) != 1 {
		t.Errorf("len(Transactions) = %d after reset, want 1", len(ov.Transactions))
	}
}

func TestPaymentMethodBalancesService(t *testing.T) {
	s := newTestBudgetService(t)
	ctx := context.Background()

	if err := s.SetIncome(ctx, "2025-03", 100000); err != nil {
		t.Fatalf("SetIncome() error = %v", err)
	}
	if err := s.Allocate(ctx, "2025-03", groceries, 50000); err != nil {
		t.Fatalf("Allocate() error = %v", err)
	}
	if err := s.AddTransaction(ctx, "2025-03", entry(10000, "2025-03-10"), false); err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}

	balances, err := s.PaymentMethodBalances(ctx, "2025-03")
	if err != nil {
		t.Fatalf("PaymentMethodBalances() error = %v", err)
	}
	if balances["debit"] != -10000 {
		t.Errorf("balances[debit] = %d, want -10000", balances["debit"])
	}
}
