// Package budget implements the envelope-budget engine: recursive
// period-to-period rollover, the allocation ceiling, and the transaction
// ledger. Everything here is a pure computation over period data; callers
// load and save the periods themselves.
package budget

import (
	"tally/internal/core"
)

// PeriodSource resolves a period key to its data. A nil result means the
// period has no stored data, which is an expected condition, not an error.
type PeriodSource interface {
	Period(key core.PeriodKey) *core.Period
}

// PeriodSet is an in-memory PeriodSource backed by a map.
type PeriodSet map[core.PeriodKey]*core.Period

func (s PeriodSet) Period(key core.PeriodKey) *core.Period { return s[key] }

// Spent sums the expense transactions charged to ref within the period.
// Only expense-typed (or untyped) transactions count; income, loans, and
// transfers never reduce an envelope.
func Spent(p *core.Period, ref core.EnvelopeRef) int64 {
	if p == nil {
		return 0
	}
	tag := ref.Tag()
	var total int64
	for _, tx := range p.Transactions {
		if tx.Envelope == tag && tx.Type.IsExpense() {
			total += tx.Amount.Cents
		}
	}
	return total
}

// Available is the envelope's spendable balance for a period. It may go
// negative, which the UI shows as a blocked envelope.
func Available(budgeted, rollover, spent int64) int64 {
	return budgeted + rollover - spent
}

// Calculator computes rollover balances with a memo arena keyed by
// envelope and period, so walking a long history stays linear and the
// termination argument is explicit: period keys strictly decrease and the
// walk stops at the first period with no data.
type Calculator struct {
	src  PeriodSource
	memo map[string]int64
}

func NewCalculator(src PeriodSource) *Calculator {
	return &Calculator{src: src, memo: make(map[string]int64)}
}

func memoKey(ref core.EnvelopeRef, key core.PeriodKey) string {
	return string(ref.Tag()) + "|" + string(key)
}

// Rollover returns the balance carried into key from earlier periods:
//
//	rollover(P) = max(0, budgeted(P-1) + rollover(P-1) - spent(P-1))
//
// The base case is zero: no data for P-1 (including a gap period or a
// malformed key) means nothing carries forward. Negative balances are
// floored at zero; debt does not propagate.
func (c *Calculator) Rollover(ref core.EnvelopeRef, key core.PeriodKey) int64 {
	if v, ok := c.memo[memoKey(ref, key)]; ok {
		return v
	}

	// Walk backward, stacking every key whose rollover is still unknown,
	// until a base case or an already-memoized key stops the descent.
	stack := []core.PeriodKey{key}
	for {
		top := stack[len(stack)-1]
		prev, ok := top.Prev()
		if !ok {
			// Malformed key: treat as no-data.
			c.memo[memoKey(ref, top)] = 0
			break
		}
		if c.src.Period(prev) == nil {
			c.memo[memoKey(ref, top)] = 0
			break
		}
		if _, known := c.memo[memoKey(ref, prev)]; known {
			break
		}
		stack = append(stack, prev)
	}

	// Unwind: each remaining key's previous period has data and a
	// memoized rollover of its own.
	for i := len(stack) - 1; i >= 0; i-- {
		k := stack[i]
		if _, done := c.memo[memoKey(ref, k)]; done {
			continue
		}
		prev, _ := k.Prev()
		p := c.src.Period(prev)
		var budgeted int64
		if env := p.Envelope(ref); env != nil {
			budgeted = env.Budgeted
		}
		bal := budgeted + c.memo[memoKey(ref, prev)] - Spent(p, ref)
		if bal < 0 {
			bal = 0
		}
		c.memo[memoKey(ref, k)] = bal
	}

	return c.memo[memoKey(ref, key)]
}

// Summary bundles the derived numbers for one envelope in one period.
type Summary struct {
	Budgeted  int64 `json:"budgeted"`
	Rollover  int64 `json:"rollover"`
	Spent     int64 `json:"spent"`
	Available int64 `json:"available"`
	Blocked   bool  `json:"blocked"`
}

// Summarize derives an envelope's full view for the period. Blocked means
// the envelope is overdrawn.
func (c *Calculator) Summarize(p *core.Period, ref core.EnvelopeRef) Summary {
	var budgeted int64
	if env := p.Envelope(ref); env != nil {
		budgeted = env.Budgeted
	}
	roll := c.Rollover(ref, p.Key)
	spent := Spent(p, ref)
	avail := Available(budgeted, roll, spent)
	return Summary{
		Budgeted:  budgeted,
		Rollover:  roll,
		Spent:     spent,
		Available: avail,
		Blocked:   avail < 0,
	}
}
