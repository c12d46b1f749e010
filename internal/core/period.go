package core

import (
	"fmt"
	"strconv"
	"strings"
)

// PeriodKey identifies a bookkeeping period: "YYYY-MM" for a month or
// "YYYY" for a year aggregate.
type PeriodKey string

// MonthKey builds a monthly period key.
func MonthKey(year, month int) PeriodKey {
	return PeriodKey(fmt.Sprintf("%04d-%02d", year, month))
}

// Parse splits the key into year and month. month is 0 for a year key.
// Malformed keys return ErrInvalidPeriodKey; callers that walk history
// treat that as no-data rather than failing.
func (k PeriodKey) Parse() (year, month int, err error) {
	s := string(k)
	switch len(s) {
	case 4:
		year, err = strconv.Atoi(s)
		if err != nil || year <= 0 {
			return 0, 0, ErrInvalidPeriodKey
		}
		return year, 0, nil
	case 7:
		if s[4] != '-' {
			return 0, 0, ErrInvalidPeriodKey
		}
		year, err = strconv.Atoi(s[:4])
		if err != nil || year <= 0 {
			return 0, 0, ErrInvalidPeriodKey
		}
		month, err = strconv.Atoi(s[5:])
		if err != nil || month < 1 || month > 12 {
			return 0, 0, ErrInvalidPeriodKey
		}
		return year, month, nil
	default:
		return 0, 0, ErrInvalidPeriodKey
	}
}

// Valid reports whether the key matches "YYYY" or "YYYY-MM".
func (k PeriodKey) Valid() bool {
	_, _, err := k.Parse()
	return err == nil
}

// IsYear reports whether the key is a year-aggregate key.
func (k PeriodKey) IsYear() bool {
	y, m, err := k.Parse()
	return err == nil && y > 0 && m == 0
}

// Prev returns the chronologically previous period key. January wraps to
// December of the prior year. Year keys step back one year. ok is false
// for malformed keys.
func (k PeriodKey) Prev() (PeriodKey, bool) {
	year, month, err := k.Parse()
	if err != nil {
		return "", false
	}
	if month == 0 {
		return PeriodKey(fmt.Sprintf("%04d", year-1)), true
	}
	month--
	if month == 0 {
		year--
		month = 12
	}
	return MonthKey(year, month), true
}

func (k PeriodKey) String() string { return string(k) }

// Envelope is a named budget bucket within a category. Spent and rollover
// are never stored on it; they are derived from transaction history so the
// stored and computed views cannot diverge.
type Envelope struct {
	Budgeted int64 `json:"budgeted"`
}

// Period holds one period's envelope, income, and transaction data.
type Period struct {
	Key                 PeriodKey                        `json:"key"`
	Income              int64                            `json:"income"`
	Envelopes           map[string]map[string]*Envelope  `json:"envelopes"`
	Transactions        []Transaction                    `json:"transactions"`
	BlockedTransactions []Transaction                    `json:"blockedTransactions"`
}

// NewPeriod creates an empty period. Budgets start at zero; only rollover
// balances carry forward from earlier periods, and only as derived values.
func NewPeriod(key PeriodKey) *Period {
	return &Period{
		Key:       key,
		Envelopes: make(map[string]map[string]*Envelope),
	}
}

// Envelope returns the envelope for ref, or nil when it does not exist.
func (p *Period) Envelope(ref EnvelopeRef) *Envelope {
	if p == nil || p.Envelopes == nil {
		return nil
	}
	byName, ok := p.Envelopes[ref.Category]
	if !ok {
		return nil
	}
	return byName[ref.Name]
}

// EnsureEnvelope returns the envelope for ref, creating it with a zero
// budget when absent. The category set stays open: users add their own
// categories and envelope names.
func (p *Period) EnsureEnvelope(ref EnvelopeRef) *Envelope {
	if p.Envelopes == nil {
		p.Envelopes = make(map[string]map[string]*Envelope)
	}
	byName, ok := p.Envelopes[ref.Category]
	if !ok {
		byName = make(map[string]*Envelope)
		p.Envelopes[ref.Category] = byName
	}
	env, ok := byName[ref.Name]
	if !ok {
		env = &Envelope{}
		byName[ref.Name] = env
	}
	return env
}

// TotalBudgeted sums the budgeted amounts of all envelopes in the period.
func (p *Period) TotalBudgeted() int64 {
	var total int64
	for _, byName := range p.Envelopes {
		for _, env := range byName {
			total += env.Budgeted
		}
	}
	return total
}

// Reset zeroes all envelope budgets and the period income but preserves the
// transaction history. Periods are never deleted outright.
func (p *Period) Reset() {
	p.Income = 0
	for _, byName := range p.Envelopes {
		for _, env := range byName {
			env.Budgeted = 0
		}
	}
}

// Categories returns the category names present in the period, in no
// particular order.
func (p *Period) Categories() []string {
	cats := make([]string, 0, len(p.Envelopes))
	for c := range p.Envelopes {
		cats = append(cats, c)
	}
	return cats
}

// HasEnvelope reports whether the tag resolves to an existing envelope.
// The special tags always pass; they do not draw from an envelope.
func (p *Period) HasEnvelope(tag EnvelopeTag) bool {
	ref, ok := tag.Ref()
	if !ok {
		switch tag {
		case TagIncome, TagLoan, TagTransfer:
			return true
		}
		return false
	}
	return p.Envelope(ref) != nil
}

// ValidatePeriodKeyString is a convenience for callers holding raw strings.
func ValidatePeriodKeyString(s string) (PeriodKey, error) {
	k := PeriodKey(strings.TrimSpace(s))
	if !k.Valid() {
		return "", ErrInvalidPeriodKey
	}
	return k, nil
}
