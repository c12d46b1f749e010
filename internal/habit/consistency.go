package habit

import (
	"math"
	"time"

	"tally/internal/core"
)

// Qualitative labels for a consistency score. Pure step function, no
// hysteresis.
const (
	LabelStrong   = "Strong identity forming"
	LabelSteady   = "Consistent"
	LabelBuilding = "Building rhythm"
	LabelStarting = "Getting started"
)

// DefaultScoreWindowDays is the trailing window for the consistency score.
const DefaultScoreWindowDays = 14

// DailyCompletion returns the percentage (0..100, rounded) of habits
// scheduled on date that have a done log. A day with nothing scheduled
// scores 0, never NaN.
func DailyCompletion(habits []core.Habit, logs []core.HabitLog, goals []core.Goal, date time.Time) int {
	dateStr := date.Format(dateLayout)
	scheduled, completed := 0, 0
	for _, h := range habits {
		if !IsScheduled(h, date, goals) {
			continue
		}
		scheduled++
		for _, l := range logs {
			if l.HabitID == h.ID && l.Date == dateStr && l.Status == core.StatusDone {
				completed++
				break
			}
		}
	}
	if scheduled == 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(scheduled)))
}

// ConsistencyScore is the rounded arithmetic mean of DailyCompletion over
// the trailing windowDays calendar days, inclusive of endDate.
func ConsistencyScore(habits []core.Habit, logs []core.HabitLog, goals []core.Goal, endDate time.Time, windowDays int) int {
	if windowDays <= 0 {
		windowDays = DefaultScoreWindowDays
	}
	sum := 0
	for i := 0; i < windowDays; i++ {
		day := endDate.AddDate(0, 0, -i)
		sum += DailyCompletion(habits, logs, goals, day)
	}
	return int(math.Round(float64(sum) / float64(windowDays)))
}

// ScoreLabel maps a consistency score to its qualitative label.
func ScoreLabel(score int) string {
	switch {
	case score >= 90:
		return LabelStrong
	case score >= 70:
		return LabelSteady
	case score >= 40:
		return LabelBuilding
	default:
		return LabelStarting
	}
}
