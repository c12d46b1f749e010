package budget

import (
	"strings"

	"github.com/google/uuid"

	"tally/internal/core"
)

// Ledger applies transaction mutations to a period. Balance enforcement
// needs rollover context, so the ledger carries a Calculator over the same
// period source.
type Ledger struct {
	calc *Calculator
}

func NewLedger(src PeriodSource) *Ledger {
	return &Ledger{calc: NewCalculator(src)}
}

// Calculator exposes the ledger's rollover calculator for derived views.
func (l *Ledger) Calculator() *Calculator { return l.calc }

// Add appends a transaction to the period. With enforce set (the import
// path), an expense larger than the envelope's available balance is
// rejected with InsufficientBalanceError and parked in the period's
// blocked list for review instead of the ledger. Without enforce (the
// interactive path) the expense is recorded even when it overdraws; the
// envelope then shows as blocked.
//
// Income transactions raise the period income by their amount, mirroring
// the decrement on delete. Budgets are never touched.
func (l *Ledger) Add(p *core.Period, tx core.Transaction, enforce bool) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	if ref, ok := tx.Envelope.Ref(); ok {
		if p.Envelope(ref) == nil {
			return &core.InvalidEnvelopeReferenceError{Tag: tx.Envelope}
		}
		if enforce && tx.Type.IsExpense() {
			s := l.calc.Summarize(p, ref)
			if tx.Amount.Cents > s.Available {
				p.BlockedTransactions = append(p.BlockedTransactions, tx)
				return &core.InsufficientBalanceError{
					Envelope:  tx.Envelope,
					Requested: tx.Amount.Cents,
					Available: s.Available,
				}
			}
		}
	}
	if tx.Type == core.TypeIncome {
		p.Income += tx.Amount.Cents
	}
	p.Transactions = append(p.Transactions, tx)
	return nil
}

// Delete removes a transaction by id. Deleting an income entry decrements
// the period income; deleting one half of a transfer removes its twin
// (same date and amount, opposite direction) best-effort. Spent totals are
// derived, so plain expenses need nothing beyond removal.
func (l *Ledger) Delete(p *core.Period, id string) error {
	idx := -1
	for i, tx := range p.Transactions {
		if tx.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return core.ErrNotFound
	}
	tx := p.Transactions[idx]
	p.Transactions = append(p.Transactions[:idx], p.Transactions[idx+1:]...)

	switch tx.Type {
	case core.TypeIncome:
		p.Income -= tx.Amount.Cents
	case core.TypeTransferIn, core.TypeTransferOut:
		twin := core.TypeTransferIn
		if tx.Type == core.TypeTransferIn {
			twin = core.TypeTransferOut
		}
		for i, other := range p.Transactions {
			if other.Type == twin && other.Date == tx.Date && other.Amount == tx.Amount {
				p.Transactions = append(p.Transactions[:i], p.Transactions[i+1:]...)
				break
			}
		}
	}
	return nil
}

// CorrectPaymentMethod is the one permitted mutation of an existing
// transaction.
func (l *Ledger) CorrectPaymentMethod(p *core.Period, id, method string) error {
	if strings.TrimSpace(method) == "" {
		return core.ErrEmptyPaymentMethod
	}
	for i := range p.Transactions {
		if p.Transactions[i].ID == id {
			p.Transactions[i].PaymentMethod = method
			return nil
		}
	}
	return core.ErrNotFound
}

// Transfer moves amount between payment methods by recording exactly two
// linked transactions, both or neither.
func (l *Ledger) Transfer(p *core.Period, from, to string, amount core.Money, date string) error {
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	if from == "" || to == "" {
		return core.ErrEmptyPaymentMethod
	}
	if from == to {
		return core.ErrSamePaymentMethod
	}
	if err := amount.Validate(); err != nil {
		return err
	}

	out := core.Transaction{
		ID:            uuid.NewString(),
		Date:          date,
		Envelope:      core.TagTransfer,
		Amount:        amount,
		Description:   "Transfer to " + to,
		PaymentMethod: from,
		Type:          core.TypeTransferOut,
	}
	in := core.Transaction{
		ID:            uuid.NewString(),
		Date:          date,
		Envelope:      core.TagTransfer,
		Amount:        amount,
		Description:   "Transfer from " + from,
		PaymentMethod: to,
		Type:          core.TypeTransferIn,
	}
	if err := out.Validate(); err != nil {
		return err
	}
	p.Transactions = append(p.Transactions, out, in)
	return nil
}

// PaymentMethodBalances reduces transactions into per-method balances.
// Income, transfers in, and loans add; expenses and transfers out
// subtract. Balances are informational and may go negative.
func PaymentMethodBalances(txs []core.Transaction) map[string]int64 {
	balances := make(map[string]int64)
	for _, tx := range txs {
		switch {
		case tx.Type == core.TypeIncome, tx.Type == core.TypeTransferIn, tx.Type == core.TypeLoan:
			balances[tx.PaymentMethod] += tx.Amount.Cents
		default:
			balances[tx.PaymentMethod] -= tx.Amount.Cents
		}
	}
	return balances
}
