package core

import (
	"strings"
	"time"
)

// TransactionType classifies a transaction. The zero value ("") is treated
// as an expense everywhere amounts are summed.
type TransactionType string

const (
	TypeIncome      TransactionType = "income"
	TypeExpense     TransactionType = "expense"
	TypeLoan        TransactionType = "loan"
	TypeTransferIn  TransactionType = "transfer-in"
	TypeTransferOut TransactionType = "transfer-out"
)

// IsExpense reports whether the type counts against an envelope's spent
// total: unset defaults to expense.
func (t TransactionType) IsExpense() bool {
	return t == "" || t == TypeExpense
}

// Valid reports whether t is one of the known types (or unset).
func (t TransactionType) Valid() bool {
	switch t {
	case "", TypeIncome, TypeExpense, TypeLoan, TypeTransferIn, TypeTransferOut:
		return true
	}
	return false
}

// Transaction is an immutable ledger entry. Only PaymentMethod may be
// corrected after creation.
type Transaction struct {
	ID            string          `json:"id"`
	Date          string          `json:"date"` // YYYY-MM-DD
	Envelope      EnvelopeTag     `json:"envelope"`
	Amount        Money           `json:"amount"`
	Description   string          `json:"description"`
	PaymentMethod string          `json:"paymentMethod"`
	Type          TransactionType `json:"type,omitempty"`
}

// Validate checks the fields that every entry path must agree on. Envelope
// existence is a period-level concern checked by the ledger.
func (tx Transaction) Validate() error {
	if err := tx.Amount.Validate(); err != nil {
		return err
	}
	if _, err := time.Parse("2006-01-02", tx.Date); err != nil {
		return ErrInvalidDate
	}
	if _, err := ParseEnvelopeTag(string(tx.Envelope)); err != nil {
		return err
	}
	if strings.TrimSpace(tx.PaymentMethod) == "" {
		return ErrEmptyPaymentMethod
	}
	if !tx.Type.Valid() {
		return ErrInvalidTxType
	}
	return nil
}
