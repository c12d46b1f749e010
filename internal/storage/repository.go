// Package storage persists periods, transactions, habits, and goals in
// SQLite. The repository returns core types; derived figures (spent,
// rollover, streaks) are never stored here.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"tally/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// EnsurePeriod creates the period row if it does not exist yet.
func (r *SQLiteRepository) EnsurePeriod(ctx context.Context, key core.PeriodKey) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO periods (key) VALUES (?) ON CONFLICT(key) DO NOTHING`,
		string(key))
	if err != nil {
		return fmt.Errorf("ensure period %s: %w", key, err)
	}
	return nil
}

// GetPeriod loads a period with its envelopes and transactions. Returns
// core.ErrNotFound when the period row does not exist.
func (r *SQLiteRepository) GetPeriod(ctx context.Context, key core.PeriodKey) (*core.Period, error) {
	var income int64
	err := r.db.QueryRowContext(ctx,
		`SELECT income_cents FROM periods WHERE key = ?`, string(key)).Scan(&income)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get period %s: %w", key, err)
	}

	p := core.NewPeriod(key)
	p.Income = income

	rows, err := r.db.QueryContext(ctx,
		`SELECT category, name, budgeted_cents FROM envelopes WHERE period_key = ?`,
		string(key))
	if err != nil {
		return nil, fmt.Errorf("get envelopes for %s: %w", key, err)
	}
	defer rows.Close()
	for rows.Next() {
		var category, name string
		var budgeted int64
		if err := rows.Scan(&category, &name, &budgeted); err != nil {
			return nil, fmt.Errorf("scan envelope: %w", err)
		}
		p.EnsureEnvelope(core.EnvelopeRef{Category: category, Name: name}).Budgeted = budgeted
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate envelopes: %w", err)
	}

	txRows, err := r.db.QueryContext(ctx,
		`SELECT uid, date, envelope_tag, amount_cents, description, payment_method, tx_type, blocked
		 FROM transactions WHERE period_key = ? ORDER BY date, id`,
		string(key))
	if err != nil {
		return nil, fmt.Errorf("get transactions for %s: %w", key, err)
	}
	defer txRows.Close()
	for txRows.Next() {
		var tx core.Transaction
		var tag, txType string
		var amountCents int64
		var blocked bool
		if err := txRows.Scan(&tx.ID, &tx.Date, &tag, &amountCents, &tx.Description, &tx.PaymentMethod, &txType, &blocked); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Envelope = core.EnvelopeTag(tag)
		tx.Amount = core.Money{Cents: amountCents}
		tx.Type = core.TransactionType(txType)
		if blocked {
			p.BlockedTransactions = append(p.BlockedTransactions, tx)
		} else {
			p.Transactions = append(p.Transactions, tx)
		}
	}
	if err := txRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return p, nil
}

// SavePeriod upserts the period's income and envelope budgets. Transactions
// are written through their own calls, not here.
func (r *SQLiteRepository) SavePeriod(ctx context.Context, p *core.Period) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save period: %w", err)
	}
	defer dbTx.Rollback()

	_, err = dbTx.ExecContext(ctx,
		`INSERT INTO periods (key, income_cents) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET income_cents = excluded.income_cents, updated_at = CURRENT_TIMESTAMP`,
		string(p.Key), p.Income)
	if err != nil {
		return fmt.Errorf("upsert period %s: %w", p.Key, err)
	}

	for category, byName := range p.Envelopes {
		for name, env := range byName {
			_, err = dbTx.ExecContext(ctx,
				`INSERT INTO envelopes (period_key, category, name, budgeted_cents) VALUES (?, ?, ?, ?)
				 ON CONFLICT(period_key, category, name) DO UPDATE SET budgeted_cents = excluded.budgeted_cents`,
				string(p.Key), category, name, env.Budgeted)
			if err != nil {
				return fmt.Errorf("upsert envelope %s.%s: %w", category, name, err)
			}
		}
	}

	return dbTx.Commit()
}

// ListPeriodKeys returns all stored period keys in ascending order.
func (r *SQLiteRepository) ListPeriodKeys(ctx context.Context) ([]core.PeriodKey, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key FROM periods ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list period keys: %w", err)
	}
	defer rows.Close()

	var keys []core.PeriodKey
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan period key: %w", err)
		}
		keys = append(keys, core.PeriodKey(k))
	}
	return keys, rows.Err()
}

// ListPaymentMethods returns the custom payment methods plus defaults.
func (r *SQLiteRepository) ListPaymentMethods(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM payment_methods ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	defer rows.Close()

	var methods []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("scan payment method: %w", err)
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

// AddPaymentMethod registers a custom payment method. Adding an existing
// name is a no-op.
func (r *SQLiteRepository) AddPaymentMethod(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payment_methods (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name)
	if err != nil {
		return fmt.Errorf("add payment method: %w", err)
	}
	return nil
}
