package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tally/internal/core"
)

// StoredTransaction carries the database identity alongside the ledger
// entry, for sync bookkeeping.
type StoredTransaction struct {
	LocalID   int64
	PeriodKey core.PeriodKey
	Tx        core.Transaction
	Blocked   bool
	Version   int64
	CreatedAt time.Time
}

// PendingSync is the minimal row identity a sync queue message needs.
type PendingSync struct {
	LocalID int64
	Version int64
}

// InsertTransaction stores one ledger entry and returns its local id.
func (r *SQLiteRepository) InsertTransaction(ctx context.Context, periodKey core.PeriodKey, tx core.Transaction, blocked bool) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (uid, period_key, date, envelope_tag, amount_cents, description, payment_method, tx_type, blocked)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, string(periodKey), tx.Date, string(tx.Envelope), tx.Amount.Cents,
		tx.Description, tx.PaymentMethod, string(tx.Type), blocked)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"component", "storage",
		"local_id", id,
		"uid", tx.ID,
		"period", string(periodKey),
		"amount_cents", tx.Amount.Cents,
		"blocked", blocked)
	return id, nil
}

// InsertTransactionPair stores the two halves of a transfer inside one
// database transaction. A failed second insert rolls back the first, so a
// lone transfer half can never persist.
func (r *SQLiteRepository) InsertTransactionPair(ctx context.Context, periodKey core.PeriodKey, out, in core.Transaction) (int64, int64, error) {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin transfer insert: %w", err)
	}
	defer dbTx.Rollback()

	insert := func(tx core.Transaction) (int64, error) {
		res, err := dbTx.ExecContext(ctx,
			`INSERT INTO transactions (uid, period_key, date, envelope_tag, amount_cents, description, payment_method, tx_type, blocked)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)`,
			tx.ID, string(periodKey), tx.Date, string(tx.Envelope), tx.Amount.Cents,
			tx.Description, tx.PaymentMethod, string(tx.Type))
		if err != nil {
			return 0, fmt.Errorf("insert transfer entry: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("transfer entry id: %w", err)
		}
		return id, nil
	}

	outID, err := insert(out)
	if err != nil {
		return 0, 0, err
	}
	inID, err := insert(in)
	if err != nil {
		return 0, 0, err
	}
	if err := dbTx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit transfer insert: %w", err)
	}

	slog.InfoContext(ctx, "Transfer pair saved",
		"component", "storage",
		"out_id", outID,
		"in_id", inID,
		"period", string(periodKey))
	return outID, inID, nil
}

// DeleteTransaction removes a ledger entry by its public uid and returns
// the local id of the removed row, for delete sync messages.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, uid string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`DELETE FROM transactions WHERE uid = ? RETURNING id`, uid).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, core.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("delete transaction: %w", err)
	}
	return id, nil
}

// UpdateTransactionPaymentMethod corrects the payment method of an entry.
// Everything else about a stored transaction is immutable.
func (r *SQLiteRepository) UpdateTransactionPaymentMethod(ctx context.Context, uid, paymentMethod string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET payment_method = ?, version = version + 1, sync_status = 'pending', updated_at = CURRENT_TIMESTAMP
		 WHERE uid = ?`,
		paymentMethod, uid)
	if err != nil {
		return fmt.Errorf("update payment method: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update payment method rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// GetTransaction loads one stored entry by local id.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, localID int64) (*StoredTransaction, error) {
	var st StoredTransaction
	var tag, txType, periodKey string
	var amountCents int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id, uid, period_key, date, envelope_tag, amount_cents, description, payment_method, tx_type, blocked, version, created_at
		 FROM transactions WHERE id = ?`, localID).
		Scan(&st.LocalID, &st.Tx.ID, &periodKey, &st.Tx.Date, &tag, &amountCents,
			&st.Tx.Description, &st.Tx.PaymentMethod, &txType, &st.Blocked, &st.Version, &st.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction %d: %w", localID, err)
	}
	st.PeriodKey = core.PeriodKey(periodKey)
	st.Tx.Envelope = core.EnvelopeTag(tag)
	st.Tx.Amount = core.Money{Cents: amountCents}
	st.Tx.Type = core.TransactionType(txType)
	return &st, nil
}

// GetPendingSyncTransactions lists entries still waiting for a remote push.
func (r *SQLiteRepository) GetPendingSyncTransactions(ctx context.Context, limit int) ([]PendingSync, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, version FROM transactions WHERE sync_status = 'pending' ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	defer rows.Close()

	var pending []PendingSync
	for rows.Next() {
		var p PendingSync
		if err := rows.Scan(&p.LocalID, &p.Version); err != nil {
			return nil, fmt.Errorf("scan pending transaction: %w", err)
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// MarkTransactionSynced records a successful remote push.
func (r *SQLiteRepository) MarkTransactionSynced(ctx context.Context, localID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'synced', updated_at = CURRENT_TIMESTAMP WHERE id = ?`, localID)
	if err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	return nil
}

// MarkTransactionSyncError records a failed remote push for later retry.
func (r *SQLiteRepository) MarkTransactionSyncError(ctx context.Context, localID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'error', updated_at = CURRENT_TIMESTAMP WHERE id = ?`, localID)
	if err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "component", "storage", "local_id", localID)
	return nil
}
