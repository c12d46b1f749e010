package budget

import (
	"tally/internal/core"
)

// CanAllocate checks whether an envelope's budget may be set to requested
// cents without the period total exceeding income. maxAllowed is the
// largest value that would still pass, never negative.
func CanAllocate(totalAllocated, income, currentBudget, requested int64) (allowed bool, maxAllowed int64) {
	maxAllowed = income - (totalAllocated - currentBudget)
	if maxAllowed < 0 {
		maxAllowed = 0
	}
	if requested < 0 {
		return false, maxAllowed
	}
	return requested <= maxAllowed, maxAllowed
}

// AllocateBudget sets one envelope's budget, creating the envelope when it
// does not exist yet. The envelope set stays open to user-defined
// categories. On rejection nothing is mutated.
func AllocateBudget(p *core.Period, ref core.EnvelopeRef, amount int64) error {
	if amount < 0 {
		return core.ErrInvalidAmount
	}
	var current int64
	if env := p.Envelope(ref); env != nil {
		current = env.Budgeted
	}
	allowed, maxAllowed := CanAllocate(p.TotalBudgeted(), p.Income, current, amount)
	if !allowed {
		return &core.AllocationExceededError{Requested: amount, Remaining: maxAllowed}
	}
	p.EnsureEnvelope(ref).Budgeted = amount
	return nil
}

// IncrementBudget adds delta cents to an envelope's budget, with the same
// income ceiling as AllocateBudget. A negative delta releases budget but
// may not push it below zero.
func IncrementBudget(p *core.Period, ref core.EnvelopeRef, delta int64) error {
	var current int64
	if env := p.Envelope(ref); env != nil {
		current = env.Budgeted
	}
	requested := current + delta
	if requested < 0 {
		return core.ErrInvalidAmount
	}
	allowed, maxAllowed := CanAllocate(p.TotalBudgeted(), p.Income, current, requested)
	if !allowed {
		return &core.AllocationExceededError{Requested: requested, Remaining: maxAllowed}
	}
	p.EnsureEnvelope(ref).Budgeted = requested
	return nil
}
