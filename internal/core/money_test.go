package core

import "testing"

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		cents   int64
		wantErr bool
	}{
		{"12.34", 1234, false},
		{"12,34", 1234, false},
		{"12.345", 1235, false}, // half-up on the third decimal
		{"12.344", 1234, false},
		{"0.01", 1, false},
		{"1000", 100000, false},
		{" 5.50 ", 550, false},
		{"", 0, true},
		{"abc", 0, true},
		{"-3.00", 0, true},
		{"0", 0, true},
		{"0.00", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAmount(%q) expected error, got %d", tt.in, got.Cents)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q) unexpected error: %v", tt.in, err)
			}
			if got.Cents != tt.cents {
				t.Errorf("ParseAmount(%q) = %d, want %d", tt.in, got.Cents, tt.cents)
			}
		})
	}
}

func TestMoneyString(t *testing.T) {
	if got := (Money{Cents: 1234}).String(); got != "12.34" {
		t.Errorf("String() = %q, want %q", got, "12.34")
	}
	if got := (Money{Cents: -50}).String(); got != "-0.50" {
		t.Errorf("String() = %q, want %q", got, "-0.50")
	}
}
