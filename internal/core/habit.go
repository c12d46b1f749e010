package core

import (
	"strings"
	"time"
)

// FrequencyKind is the closed set of habit scheduling rules.
type FrequencyKind string

const (
	FreqDaily        FrequencyKind = "daily"
	FreqWeekly       FrequencyKind = "weekly"
	FreqSpecificDays FrequencyKind = "specific-days"
	FreqMonthly      FrequencyKind = "monthly"
	FreqMonthlyDates FrequencyKind = "monthly-dates"
)

// Frequency is a tagged union: Kind selects the rule, and at most one of
// the config slices applies. Days uses the Monday=0..Sunday=6 convention;
// Dates holds days of the month (1..31).
type Frequency struct {
	Kind  FrequencyKind `json:"kind"`
	Days  []int         `json:"days,omitempty"`
	Dates []int         `json:"dates,omitempty"`
}

// Validate rejects unknown kinds and out-of-range day/date configs, so
// that scheduling never has to guess at malformed rules.
func (f Frequency) Validate() error {
	switch f.Kind {
	case FreqDaily, FreqWeekly, FreqMonthly:
		return nil
	case FreqSpecificDays:
		if len(f.Days) == 0 {
			return ErrUnknownFrequency
		}
		for _, d := range f.Days {
			if d < 0 || d > 6 {
				return ErrUnknownFrequency
			}
		}
		return nil
	case FreqMonthlyDates:
		if len(f.Dates) == 0 {
			return ErrUnknownFrequency
		}
		for _, d := range f.Dates {
			if d < 1 || d > 31 {
				return ErrUnknownFrequency
			}
		}
		return nil
	default:
		return ErrUnknownFrequency
	}
}

// Habit is a recurring user-defined action tracked via daily logs.
// Identity is immutable; schedule and metadata change via explicit edits.
type Habit struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Trigger   string    `json:"trigger"`
	Time      string    `json:"time"` // HH:MM
	Location  string    `json:"location"`
	Frequency Frequency `json:"frequency"`
	GoalIDs   []string  `json:"goalIds,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt string    `json:"createdAt"` // YYYY-MM-DD
}

// Validate checks the fields a habit needs before it can be scheduled.
func (h Habit) Validate() error {
	if strings.TrimSpace(h.Name) == "" {
		return ErrEmptyDescription
	}
	if _, err := time.Parse("2006-01-02", h.CreatedAt); err != nil {
		return ErrInvalidDate
	}
	return h.Frequency.Validate()
}

// LinkedTo reports whether the habit is linked to the given goal.
func (h Habit) LinkedTo(goalID string) bool {
	for _, id := range h.GoalIDs {
		if id == goalID {
			return true
		}
	}
	return false
}

// LogStatus is the state of a single habit/date log entry.
type LogStatus string

const (
	StatusDone    LogStatus = "done"
	StatusSkipped LogStatus = "skipped"
)

// HabitLog records one habit's outcome on one date. At most one log exists
// per (habit, date) pair; writes are upserts.
type HabitLog struct {
	HabitID string    `json:"habitId"`
	Date    string    `json:"date"` // YYYY-MM-DD
	Status  LogStatus `json:"status"`
}

// Milestone is a dated checkpoint within a goal.
type Milestone struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Goal defines an active window; habits linked to it are only due inside
// that window.
type Goal struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	YearlyTarget   float64     `json:"yearlyTarget"`
	Unit           string      `json:"unit"`
	ActualProgress float64     `json:"actualProgress"`
	StartDate      string      `json:"startDate,omitempty"` // YYYY-MM-DD
	EndDate        string      `json:"endDate,omitempty"`   // YYYY-MM-DD, empty = open
	Milestones     []Milestone `json:"milestones,omitempty"`
}

// ActiveOn reports whether date falls inside the goal's window. A missing
// end date leaves the window open; a missing start date imposes no lower
// bound. Dates are lexical YYYY-MM-DD, so string comparison is ordering.
func (g Goal) ActiveOn(date string) bool {
	if g.StartDate != "" && date < g.StartDate {
		return false
	}
	if g.EndDate != "" && date > g.EndDate {
		return false
	}
	return true
}
