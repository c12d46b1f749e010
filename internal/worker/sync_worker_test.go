package worker

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/remote/memory"
	"tally/internal/storage"
)

func newTestWorker(t *testing.T) (*SyncWorker, *storage.SQLiteRepository, *memory.Store) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	store := memory.New()
	return NewSyncWorker(repo, store, 10), repo, store
}

func TestHandleChangeMessagePushesTransaction(t *testing.T) {
	w, repo, store := newTestWorker(t)
	ctx := context.Background()

	if err := repo.EnsurePeriod(ctx, "2025-03"); err != nil {
		t.Fatalf("EnsurePeriod() error = %v", err)
	}
	tx := core.Transaction{
		ID:            uuid.NewString(),
		Date:          "2025-03-10",
		Envelope:      core.EnvelopeRef{Category: "needs", Name: "groceries"}.Tag(),
		Amount:        core.Money{Cents: 1250},
		Description:   "shop",
		PaymentMethod: "debit",
		Type:          core.TypeExpense,
	}
	localID, err := repo.InsertTransaction(ctx, "2025-03", tx, false)
	if err != nil {
		t.Fatalf("InsertTransaction() error = %v", err)
	}

	msg := amqp.NewChangeMessage(amqp.EntityTransaction, localID, 1)
	if err := w.HandleChangeMessage(ctx, msg); err != nil {
		t.Fatalf("HandleChangeMessage() error = %v", err)
	}
	if store.TransactionCount() != 1 {
		t.Errorf("TransactionCount() = %d, want 1", store.TransactionCount())
	}

	pending, err := repo.GetPendingSyncTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("GetPendingSyncTransactions() error = %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending = %d after sync, want 0", len(pending))
	}
}

func TestBlockedTransactionNotPushed(t *testing.T) {
	w, repo, store := newTestWorker(t)
	ctx := context.Background()

	if err := repo.EnsurePeriod(ctx, "2025-03"); err != nil {
		t.Fatalf("EnsurePeriod() error = %v", err)
	}
	tx := core.Transaction{
		ID:            uuid.NewString(),
		Date:          "2025-03-10",
		Envelope:      core.EnvelopeRef{Category: "needs", Name: "groceries"}.Tag(),
		Amount:        core.Money{Cents: 99999},
		Description:   "too big",
		PaymentMethod: "debit",
		Type:          core.TypeExpense,
	}
	localID, err := repo.InsertTransaction(ctx, "2025-03", tx, true)
	if err != nil {
		t.Fatalf("InsertTransaction() error = %v", err)
	}

	if err := w.HandleChangeMessage(ctx, amqp.NewChangeMessage(amqp.EntityTransaction, localID, 1)); err != nil {
		t.Fatalf("HandleChangeMessage() error = %v", err)
	}
	if store.TransactionCount() != 0 {
		t.Errorf("blocked entry reached the remote store")
	}
}

func TestProcessPendingPushesHabitLog(t *testing.T) {
	w, repo, store := newTestWorker(t)
	ctx := context.Background()

	h := core.Habit{
		ID:        uuid.NewString(),
		Name:      "meditate",
		Frequency: core.Frequency{Kind: core.FreqDaily},
		IsActive:  true,
		CreatedAt: "2025-01-01",
	}
	if err := repo.CreateHabit(ctx, h); err != nil {
		t.Fatalf("CreateHabit() error = %v", err)
	}
	if _, err := repo.UpsertHabitLog(ctx, core.HabitLog{HabitID: h.ID, Date: "2025-03-10", Status: core.StatusDone}); err != nil {
		t.Fatalf("UpsertHabitLog() error = %v", err)
	}

	if err := w.ProcessPending(ctx); err != nil {
		t.Fatalf("ProcessPending() error = %v", err)
	}
	if store.HabitLogCount() != 1 {
		t.Errorf("HabitLogCount() = %d, want 1", store.HabitLogCount())
	}
}

func TestUnknownEntityIsDropped(t *testing.T) {
	w, _, _ := newTestWorker(t)
	msg := amqp.NewChangeMessage("mystery", 1, 1)
	if err := w.HandleChangeMessage(context.Background(), msg); err != nil {
		t.Errorf("HandleChangeMessage() error = %v, want nil for unknown entity", err)
	}
}
