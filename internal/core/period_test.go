package core

import "testing"

func TestPeriodKeyPrev(t *testing.T) {
	tests := []struct {
		key  PeriodKey
		prev PeriodKey
		ok   bool
	}{
		{"2025-03", "2025-02", true},
		{"2025-01", "2024-12", true}, // wraps the year boundary
		{"2025", "2024", true},
		{"garbage", "", false},
		{"2025-13", "", false},
		{"2025-1", "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			prev, ok := tt.key.Prev()
			if ok != tt.ok {
				t.Fatalf("Prev() ok = %v, want %v", ok, tt.ok)
			}
			if prev != tt.prev {
				t.Errorf("Prev() = %q, want %q", prev, tt.prev)
			}
		})
	}
}

func TestPeriodEnsureEnvelope(t *testing.T) {
	p := NewPeriod("2025-01")
	ref := EnvelopeRef{Category: "needs", Name: "groceries"}

	if p.Envelope(ref) != nil {
		t.Fatal("envelope should not exist yet")
	}
	env := p.EnsureEnvelope(ref)
	if env == nil || env.Budgeted != 0 {
		t.Fatalf("EnsureEnvelope() = %+v, want zero-budget envelope", env)
	}
	if p.EnsureEnvelope(ref) != env {
		t.Error("EnsureEnvelope should be idempotent")
	}
	if !p.HasEnvelope(ref.Tag()) {
		t.Error("HasEnvelope should see the created envelope")
	}
	if !p.HasEnvelope(TagIncome) {
		t.Error("special tags always pass the envelope check")
	}
}

func TestPeriodReset(t *testing.T) {
	p := NewPeriod("2025-01")
	p.Income = 10000
	p.EnsureEnvelope(EnvelopeRef{Category: "needs", Name: "rent"}).Budgeted = 5000
	p.Transactions = append(p.Transactions, Transaction{ID: "t1", Date: "2025-01-05", Envelope: "needs.rent", Amount: Money{Cents: 5000}, PaymentMethod: "Cash"})

	p.Reset()

	if p.Income != 0 {
		t.Errorf("Income = %d, want 0", p.Income)
	}
	if got := p.TotalBudgeted(); got != 0 {
		t.Errorf("TotalBudgeted() = %d, want 0", got)
	}
	if len(p.Transactions) != 1 {
		t.Error("reset must preserve transactions")
	}
}
