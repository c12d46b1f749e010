package core

import (
	"errors"
	"fmt"
)

// Validation failures. All of these reject an operation before any state
// is mutated; none of them is fatal to the process.
var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrEmptyDescription   = errors.New("empty description")
	ErrEmptyPaymentMethod = errors.New("empty payment method")
	ErrInvalidEnvelope    = errors.New("invalid envelope reference")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidPeriodKey   = errors.New("invalid period key")
	ErrSamePaymentMethod  = errors.New("source and destination payment methods are the same")
	ErrInvalidTxType      = errors.New("invalid transaction type")
	ErrUnknownFrequency   = errors.New("unknown frequency")
	ErrNotFound           = errors.New("not found")
)

// AllocationExceededError reports a budget allocation that would push the
// period total past its income. Remaining is the largest amount the caller
// could still allocate to the envelope.
type AllocationExceededError struct {
	Requested int64
	Remaining int64
}

func (e *AllocationExceededError) Error() string {
	return fmt.Sprintf("allocation of %d cents exceeds income, %d cents remaining", e.Requested, e.Remaining)
}

// InsufficientBalanceError reports an expense larger than the envelope's
// derived available balance, on entry paths that enforce the check.
type InsufficientBalanceError struct {
	Envelope  EnvelopeTag
	Requested int64
	Available int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance on %s: requested %d cents, %d cents available", e.Envelope, e.Requested, e.Available)
}

// InvalidEnvelopeReferenceError reports a transaction that names a
// category/envelope pair absent from the period's envelope set.
type InvalidEnvelopeReferenceError struct {
	Tag EnvelopeTag
}

func (e *InvalidEnvelopeReferenceError) Error() string {
	return fmt.Sprintf("envelope %s does not exist in this period", e.Tag)
}

func (e *InvalidEnvelopeReferenceError) Unwrap() error { return ErrInvalidEnvelope }
