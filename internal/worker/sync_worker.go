// Package worker pushes locally stored rows to the remote document store.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"tally/internal/amqp"
	"tally/internal/remote"
	"tally/internal/storage"
)

// SyncWorker mirrors ledger entries and habit logs into the remote store.
// SQLite stays the source of truth; remote failures are retried through the
// pending queue.
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	remote    remote.Store
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, remoteStore remote.Store, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		remote:    remoteStore,
		batchSize: batchSize,
	}
}

// HandleChangeMessage processes one queued change message.
func (w *SyncWorker) HandleChangeMessage(ctx context.Context, msg *amqp.ChangeMessage) error {
	slog.InfoContext(ctx, "Processing change message",
		"component", "worker",
		"entity", msg.Entity,
		"id", msg.ID,
		"version", msg.Version)

	if msg.Deleted {
		// The remote mirror is append-only; deletions live in SQLite history.
		slog.InfoContext(ctx, "Skipping remote push for deletion", "entity", msg.Entity, "id", msg.ID)
		return nil
	}

	switch msg.Entity {
	case amqp.EntityTransaction:
		return w.pushTransaction(ctx, msg.ID)
	case amqp.EntityHabitLog:
		return w.pushHabitLog(ctx, msg.ID)
	default:
		// Unknown entity kinds are dropped, not requeued forever.
		slog.WarnContext(ctx, "Unknown change entity, dropping", "entity", msg.Entity, "id", msg.ID)
		return nil
	}
}

func (w *SyncWorker) pushTransaction(ctx context.Context, localID int64) error {
	stored, err := w.storage.GetTransaction(ctx, localID)
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}
	if stored.Blocked {
		// Blocked entries are not part of the accepted ledger.
		return w.storage.MarkTransactionSynced(ctx, localID)
	}

	rowRef, err := w.remote.AppendTransaction(ctx, stored.PeriodKey, stored.Tx)
	if err != nil {
		if markErr := w.storage.MarkTransactionSyncError(ctx, localID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark transaction sync error", "id", localID, "error", markErr)
		}
		return fmt.Errorf("append transaction to remote: %w", err)
	}

	if err := w.storage.MarkTransactionSynced(ctx, localID); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	slog.InfoContext(ctx, "Transaction synced to remote",
		"component", "worker", "local_id", localID, "row_ref", rowRef)
	return nil
}

func (w *SyncWorker) pushHabitLog(ctx context.Context, localID int64) error {
	log, err := w.storage.GetHabitLog(ctx, localID)
	if err != nil {
		return fmt.Errorf("get habit log from storage: %w", err)
	}

	habitName := log.HabitID
	if h, err := w.storage.GetHabit(ctx, log.HabitID); err == nil {
		habitName = h.Name
	}

	rowRef, err := w.remote.AppendHabitLog(ctx, habitName, *log)
	if err != nil {
		if markErr := w.storage.MarkHabitLogSyncError(ctx, localID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark habit log sync error", "id", localID, "error", markErr)
		}
		return fmt.Errorf("append habit log to remote: %w", err)
	}

	if err := w.storage.MarkHabitLogSynced(ctx, localID); err != nil {
		return fmt.Errorf("mark habit log synced: %w", err)
	}
	slog.InfoContext(ctx, "Habit log synced to remote",
		"component", "worker", "local_id", localID, "row_ref", rowRef)
	return nil
}

// ProcessPending pushes rows still marked pending. This is the backup path
// for messages lost between publish and consume.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	txs, err := w.storage.GetPendingSyncTransactions(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}
	logs, err := w.storage.GetPendingSyncHabitLogs(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending habit logs: %w", err)
	}
	if len(txs) == 0 && len(logs) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending sync rows",
		"component", "worker",
		"transactions", len(txs),
		"habit_logs", len(logs))

	for _, p := range txs {
		if err := w.pushTransaction(ctx, p.LocalID); err != nil {
			slog.ErrorContext(ctx, "Failed to push pending transaction", "id", p.LocalID, "error", err)
		}
	}
	for _, p := range logs {
		if err := w.pushHabitLog(ctx, p.LocalID); err != nil {
			slog.ErrorContext(ctx, "Failed to push pending habit log", "id", p.LocalID, "error", err)
		}
	}
	return nil
}
