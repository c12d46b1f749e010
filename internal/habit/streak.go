package habit

import (
	"time"

	"tally/internal/core"
)

// logIndex builds a date -> status lookup for one habit. Upsert semantics
// guarantee at most one log per date; later entries win regardless.
func logIndex(habitID string, logs []core.HabitLog) map[string]core.LogStatus {
	idx := make(map[string]core.LogStatus)
	for _, l := range logs {
		if l.HabitID == habitID {
			idx[l.Date] = l.Status
		}
	}
	return idx
}

// CurrentStreak walks backward day-by-day from asOf. Non-scheduled days
// are skipped without breaking or advancing the streak; a scheduled day
// counts when a done log exists and ends the streak otherwise. The walk
// stops at the habit's creation date.
func CurrentStreak(h core.Habit, logs []core.HabitLog, goals []core.Goal, asOf time.Time) int {
	if _, err := time.Parse(dateLayout, h.CreatedAt); err != nil {
		return 0
	}
	idx := logIndex(h.ID, logs)
	streak := 0
	day := asOf
	for {
		dateStr := day.Format(dateLayout)
		if h.CreatedAt != "" && dateStr < h.CreatedAt {
			break
		}
		if IsScheduled(h, day, goals) {
			if idx[dateStr] != core.StatusDone {
				break
			}
			streak++
		}
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// BestStreak scans forward over every scheduled day between the habit's
// creation and asOf, resetting the running count on any scheduled day
// without a done log and tracking the maximum.
func BestStreak(h core.Habit, logs []core.HabitLog, goals []core.Goal, asOf time.Time) int {
	start, err := time.Parse(dateLayout, h.CreatedAt)
	if err != nil {
		return 0
	}
	idx := logIndex(h.ID, logs)
	best, run := 0, 0
	for day := start; !day.After(asOf); day = day.AddDate(0, 0, 1) {
		if !IsScheduled(h, day, goals) {
			continue
		}
		if idx[day.Format(dateLayout)] == core.StatusDone {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 0
		}
	}
	return best
}
