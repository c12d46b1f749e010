package habit

import (
	"errors"
	"testing"
	"time"

	"tally/internal/core"
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func activeHabit(freq core.Frequency) core.Habit {
	return core.Habit{
		ID:        "h1",
		Name:      "morning run",
		Frequency: freq,
		IsActive:  true,
		CreatedAt: "2025-01-01",
	}
}

func TestIsScheduledGates(t *testing.T) {
	daily := activeHabit(core.Frequency{Kind: core.FreqDaily})

	inactive := daily
	inactive.IsActive = false

	linked := daily
	linked.GoalIDs = []string{"g1"}
	goal := core.Goal{ID: "g1", Title: "run 500km", StartDate: "2025-02-01", EndDate: "2025-03-31"}

	tests := []struct {
		name  string
		habit core.Habit
		date  time.Time
		goals []core.Goal
		want  bool
	}{
		{"daily scheduled", daily, day(2025, 1, 15), nil, true},
		{"inactive never scheduled", inactive, day(2025, 1, 15), nil, false},
		{"before creation", daily, day(2024, 12, 31), nil, false},
		{"inside goal window", linked, day(2025, 2, 15), []core.Goal{goal}, true},
		{"before goal start", linked, day(2025, 1, 15), []core.Goal{goal}, false},
		{"after goal end", linked, day(2025, 4, 1), []core.Goal{goal}, false},
		{"goal without end date stays open", linked, day(2025, 6, 1), []core.Goal{{ID: "g1", StartDate: "2025-02-01"}}, true},
		{"linked goal missing from set", linked, day(2025, 2, 15), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsScheduled(tt.habit, tt.date, tt.goals); got != tt.want {
				t.Errorf("IsScheduled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSpecificDaysChecker(t *testing.T) {
	// Monday=0 .. Sunday=6. 2025-01-13 is a Monday.
	h := activeHabit(core.Frequency{Kind: core.FreqSpecificDays, Days: []int{0, 2, 4}}) // Mon/Wed/Fri

	tests := []struct {
		date time.Time
		want bool
	}{
		{day(2025, 1, 13), true},  // Monday
		{day(2025, 1, 14), false}, // Tuesday
		{day(2025, 1, 15), true},  // Wednesday
		{day(2025, 1, 17), true},  // Friday
		{day(2025, 1, 19), false}, // Sunday
	}
	for _, tt := range tests {
		t.Run(tt.date.Format("2006-01-02"), func(t *testing.T) {
			if got := IsScheduled(h, tt.date, nil); got != tt.want {
				t.Errorf("IsScheduled(%s) = %v, want %v", tt.date.Weekday(), got, tt.want)
			}
		})
	}
}

func TestMonthlyDatesChecker(t *testing.T) {
	h := activeHabit(core.Frequency{Kind: core.FreqMonthlyDates, Dates: []int{1, 15}})

	if !IsScheduled(h, day(2025, 3, 15), nil) {
		t.Error("the 15th should be scheduled")
	}
	if IsScheduled(h, day(2025, 3, 16), nil) {
		t.Error("the 16th should not be scheduled")
	}
}

func TestWeeklyAndMonthlyAreSchedulingSignals(t *testing.T) {
	for _, kind := range []core.FrequencyKind{core.FreqWeekly, core.FreqMonthly} {
		h := activeHabit(core.Frequency{Kind: kind})
		if !IsScheduled(h, day(2025, 1, 15), nil) {
			t.Errorf("%s habits report scheduled on any day", kind)
		}
	}
}

func TestGetFrequencyCheckerUnknown(t *testing.T) {
	if _, err := GetFrequencyChecker("fortnightly"); !errors.Is(err, core.ErrUnknownFrequency) {
		t.Errorf("error = %v, want ErrUnknownFrequency", err)
	}

	// Legacy stored data with an unknown rule stays on the schedule.
	h := activeHabit(core.Frequency{Kind: "fortnightly"})
	if !IsScheduled(h, day(2025, 1, 15), nil) {
		t.Error("unknown frequency should fall back to scheduled")
	}
}
