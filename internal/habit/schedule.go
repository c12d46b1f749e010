// Package habit implements the schedule-aware consistency engine: the
// frequency rule evaluator, streak walking, and rolling-window scoring.
//
// This file implements the Strategy Pattern for frequency checking. Each
// frequency kind has its own checker deciding whether a habit is due on a
// given date.
package habit

import (
	"time"

	"tally/internal/core"
)

const dateLayout = "2006-01-02"

// FrequencyChecker is the strategy interface for a single frequency kind.
type FrequencyChecker interface {
	// ScheduledOn returns true if the frequency rule puts the habit on
	// the given date.
	ScheduledOn(f core.Frequency, date time.Time) bool
}

// DailyChecker schedules the habit every day.
type DailyChecker struct{}

func (DailyChecker) ScheduledOn(core.Frequency, time.Time) bool { return true }

// WeeklyChecker is an always-true scheduling signal: per-week completion
// counting is a separate concern, not a daily due/not-due decision.
type WeeklyChecker struct{}

func (WeeklyChecker) ScheduledOn(core.Frequency, time.Time) bool { return true }

// SpecificDaysChecker schedules the habit on configured weekdays
// (Monday=0 .. Sunday=6).
type SpecificDaysChecker struct{}

func (SpecificDaysChecker) ScheduledOn(f core.Frequency, date time.Time) bool {
	weekday := (int(date.Weekday()) + 6) % 7
	for _, d := range f.Days {
		if d == weekday {
			return true
		}
	}
	return false
}

// MonthlyChecker is an always-true scheduling signal, same caveat as
// WeeklyChecker.
type MonthlyChecker struct{}

func (MonthlyChecker) ScheduledOn(core.Frequency, time.Time) bool { return true }

// MonthlyDatesChecker schedules the habit on configured days of the month.
type MonthlyDatesChecker struct{}

func (MonthlyDatesChecker) ScheduledOn(f core.Frequency, date time.Time) bool {
	day := date.Day()
	for _, d := range f.Dates {
		if d == day {
			return true
		}
	}
	return false
}

// frequencyCheckers maps frequency kinds to their checkers.
var frequencyCheckers = map[core.FrequencyKind]FrequencyChecker{
	core.FreqDaily:        DailyChecker{},
	core.FreqWeekly:       WeeklyChecker{},
	core.FreqSpecificDays: SpecificDaysChecker{},
	core.FreqMonthly:      MonthlyChecker{},
	core.FreqMonthlyDates: MonthlyDatesChecker{},
}

// GetFrequencyChecker returns the checker for a frequency kind, or
// ErrUnknownFrequency. Habits are validated at creation, so an unknown
// kind only appears for legacy stored data; callers log it and fall back
// to scheduled.
func GetFrequencyChecker(kind core.FrequencyKind) (FrequencyChecker, error) {
	checker, ok := frequencyCheckers[kind]
	if !ok {
		return nil, core.ErrUnknownFrequency
	}
	return checker, nil
}

// IsScheduled decides whether the habit is due on date. Evaluation order
// short-circuits: inactive habits and dates before creation are never
// scheduled; a habit linked to goals needs at least one goal active on the
// date; then the frequency rule applies.
func IsScheduled(h core.Habit, date time.Time, goals []core.Goal) bool {
	if !h.IsActive {
		return false
	}
	dateStr := date.Format(dateLayout)
	if h.CreatedAt != "" && dateStr < h.CreatedAt {
		return false
	}
	if len(h.GoalIDs) > 0 {
		anyActive := false
		for _, g := range goals {
			if h.LinkedTo(g.ID) && g.ActiveOn(dateStr) {
				anyActive = true
				break
			}
		}
		if !anyActive {
			return false
		}
	}
	checker, err := GetFrequencyChecker(h.Frequency.Kind)
	if err != nil {
		// Legacy data with an unrecognized rule stays visible rather
		// than silently vanishing from the schedule.
		return true
	}
	return checker.ScheduledOn(h.Frequency, date)
}
