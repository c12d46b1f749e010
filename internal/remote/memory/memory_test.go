package memory

import (
	"context"
	"testing"

	"tally/internal/core"
)

func TestAppendTransaction(t *testing.T) {
	s := New()
	tx := core.Transaction{
		ID:            "t1",
		Date:          "2025-03-10",
		Envelope:      core.EnvelopeRef{Category: "needs", Name: "groceries"}.Tag(),
		Amount:        core.Money{Cents: 1250},
		Description:   "weekly shop",
		PaymentMethod: "debit",
	}

	ref, err := s.AppendTransaction(context.Background(), core.PeriodKey("2025-03"), tx)
	if err != nil {
		t.Fatalf("AppendTransaction() error = %v", err)
	}
	if ref != "mem:tx:1" {
		t.Errorf("rowRef = %q, want mem:tx:1", ref)
	}
	if s.TransactionCount() != 1 {
		t.Errorf("TransactionCount() = %d, want 1", s.TransactionCount())
	}
}

func TestAppendTransactionInvalid(t *testing.T) {
	s := New()
	tx := core.Transaction{ID: "t1", Date: "2025-03-10"}
	if _, err := s.AppendTransaction(context.Background(), core.PeriodKey("2025-03"), tx); err == nil {
		t.Error("expected validation error for empty transaction")
	}
	if s.TransactionCount() != 0 {
		t.Error("invalid transaction should not be stored")
	}
}

func TestAppendHabitLog(t *testing.T) {
	s := New()
	log := core.HabitLog{HabitID: "h1", Date: "2025-03-10", Status: core.StatusDone}

	ref, err := s.AppendHabitLog(context.Background(), "meditate", log)
	if err != nil {
		t.Fatalf("AppendHabitLog() error = %v", err)
	}
	if ref != "mem:log:1" {
		t.Errorf("rowRef = %q, want mem:log:1", ref)
	}
	if s.HabitLogCount() != 1 {
		t.Errorf("HabitLogCount() = %d, want 1", s.HabitLogCount())
	}
}
