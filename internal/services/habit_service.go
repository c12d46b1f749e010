package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/habit"
	"tally/internal/storage"
)

// HabitService orchestrates habit tracking: CRUD, daily logs, and the
// derived streak and consistency figures.
type HabitService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewHabitService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *HabitService {
	return &HabitService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// CreateHabit validates and stores a new habit. A missing ID or creation
// date is filled in here.
func (s *HabitService) CreateHabit(ctx context.Context, h core.Habit) (core.Habit, error) {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if h.CreatedAt == "" {
		h.CreatedAt = time.Now().Format("2006-01-02")
	}
	if err := h.Validate(); err != nil {
		return core.Habit{}, err
	}
	if err := s.storage.CreateHabit(ctx, h); err != nil {
		return core.Habit{}, err
	}
	return h, nil
}

// UpdateHabit applies an edit and returns the habit as stored. The flag
// reports whether the schedule changed, since past streaks are
// reinterpreted under the new frequency and callers should warn about that.
func (s *HabitService) UpdateHabit(ctx context.Context, h core.Habit) (core.Habit, bool, error) {
	existing, err := s.storage.GetHabit(ctx, h.ID)
	if err != nil {
		return core.Habit{}, false, err
	}

	// Identity fields never change on edit; clients need not echo them.
	h.CreatedAt = existing.CreatedAt
	if err := h.Validate(); err != nil {
		return core.Habit{}, false, err
	}

	scheduleChanged := !frequencyEqual(existing.Frequency, h.Frequency)

	if err := s.storage.UpdateHabit(ctx, h); err != nil {
		return core.Habit{}, false, err
	}
	if scheduleChanged {
		slog.InfoContext(ctx, "Habit schedule changed; historical streaks follow the new frequency",
			"habit_id", h.ID, "frequency", string(h.Frequency.Kind))
	}
	return h, scheduleChanged, nil
}

func frequencyEqual(a, b core.Frequency) bool {
	if a.Kind != b.Kind || len(a.Days) != len(b.Days) || len(a.Dates) != len(b.Dates) {
		return false
	}
	for i := range a.Days {
		if a.Days[i] != b.Days[i] {
			return false
		}
	}
	for i := range a.Dates {
		if a.Dates[i] != b.Dates[i] {
			return false
		}
	}
	return true
}

// DeleteHabit removes the habit and all of its logs.
func (s *HabitService) DeleteHabit(ctx context.Context, id string) error {
	return s.storage.DeleteHabit(ctx, id)
}

// GetHabit loads one habit.
func (s *HabitService) GetHabit(ctx context.Context, id string) (*core.Habit, error) {
	return s.storage.GetHabit(ctx, id)
}

// ListHabits returns all habits.
func (s *HabitService) ListHabits(ctx context.Context) ([]core.Habit, error) {
	return s.storage.ListHabits(ctx)
}

// LogHabit records the outcome for one habit on one date. Re-logging the
// same date replaces the earlier status.
func (s *HabitService) LogHabit(ctx context.Context, log core.HabitLog) error {
	if log.Status != core.StatusDone && log.Status != core.StatusSkipped {
		return fmt.Errorf("unknown log status %q", log.Status)
	}
	if _, err := time.Parse("2006-01-02", log.Date); err != nil {
		return core.ErrInvalidDate
	}
	if _, err := s.storage.GetHabit(ctx, log.HabitID); err != nil {
		return err
	}

	localID, err := s.storage.UpsertHabitLog(ctx, log)
	if err != nil {
		return err
	}

	s.publishChange(ctx, amqp.NewChangeMessage(amqp.EntityHabitLog, localID, 1))
	return nil
}

// UnlogHabit clears the entry for one habit/date pair.
func (s *HabitService) UnlogHabit(ctx context.Context, habitID, date string) error {
	localID, err := s.storage.DeleteHabitLog(ctx, habitID, date)
	if err != nil {
		return err
	}
	s.publishChange(ctx, amqp.NewDeleteMessage(amqp.EntityHabitLog, localID))
	return nil
}

// HabitStatus is one habit's derived state for a given day.
type HabitStatus struct {
	Habit         core.Habit     `json:"habit"`
	Scheduled     bool           `json:"scheduled"`
	Status        core.LogStatus `json:"status,omitempty"`
	CurrentStreak int            `json:"currentStreak"`
	BestStreak    int            `json:"bestStreak"`
}

// Checklist returns every habit's schedule and log state for one day.
func (s *HabitService) Checklist(ctx context.Context, date time.Time) ([]HabitStatus, error) {
	habits, err := s.storage.ListHabits(ctx)
	if err != nil {
		return nil, err
	}
	goals, err := s.storage.ListGoals(ctx)
	if err != nil {
		return nil, err
	}
	logs, err := s.storage.ListAllHabitLogs(ctx)
	if err != nil {
		return nil, err
	}

	dateStr := date.Format("2006-01-02")
	statuses := make([]HabitStatus, 0, len(habits))
	for _, h := range habits {
		hs := HabitStatus{
			Habit:         h,
			Scheduled:     habit.IsScheduled(h, date, goals),
			CurrentStreak: habit.CurrentStreak(h, logs, goals, date),
			BestStreak:    habit.BestStreak(h, logs, goals, date),
		}
		for _, l := range logs {
			if l.HabitID == h.ID && l.Date == dateStr {
				hs.Status = l.Status
				break
			}
		}
		statuses = append(statuses, hs)
	}
	return statuses, nil
}

// Streaks computes current and best streaks for one habit as of a date.
func (s *HabitService) Streaks(ctx context.Context, habitID string, asOf time.Time) (current, best int, err error) {
	h, err := s.storage.GetHabit(ctx, habitID)
	if err != nil {
		return 0, 0, err
	}
	logs, err := s.storage.ListHabitLogs(ctx, habitID)
	if err != nil {
		return 0, 0, err
	}
	goals, err := s.storage.ListGoals(ctx)
	if err != nil {
		return 0, 0, err
	}
	return habit.CurrentStreak(*h, logs, goals, asOf), habit.BestStreak(*h, logs, goals, asOf), nil
}

// Consistency computes the rolling completion score and its label.
func (s *HabitService) Consistency(ctx context.Context, endDate time.Time, windowDays int) (score int, label string, err error) {
	habits, err := s.storage.ListHabits(ctx)
	if err != nil {
		return 0, "", err
	}
	logs, err := s.storage.ListAllHabitLogs(ctx)
	if err != nil {
		return 0, "", err
	}
	goals, err := s.storage.ListGoals(ctx)
	if err != nil {
		return 0, "", err
	}
	score = habit.ConsistencyScore(habits, logs, goals, endDate, windowDays)
	return score, habit.ScoreLabel(score), nil
}

// CreateGoal validates and stores a goal, filling in missing ids.
func (s *HabitService) CreateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	for i := range g.Milestones {
		if g.Milestones[i].ID == "" {
			g.Milestones[i].ID = uuid.NewString()
		}
	}
	if err := s.storage.CreateGoal(ctx, g); err != nil {
		return core.Goal{}, err
	}
	return g, nil
}

// ListGoals returns all goals with milestones.
func (s *HabitService) ListGoals(ctx context.Context) ([]core.Goal, error) {
	return s.storage.ListGoals(ctx)
}

// GetGoal returns one goal with its milestones.
func (s *HabitService) GetGoal(ctx context.Context, id string) (*core.Goal, error) {
	return s.storage.GetGoal(ctx, id)
}

// DeleteGoal removes a goal; linked habits keep running unguarded.
func (s *HabitService) DeleteGoal(ctx context.Context, id string) error {
	return s.storage.DeleteGoal(ctx, id)
}

// UpdateGoalProgress sets a goal's progress figure.
func (s *HabitService) UpdateGoalProgress(ctx context.Context, goalID string, progress float64) error {
	return s.storage.UpdateGoalProgress(ctx, goalID, progress)
}

// CompleteMilestone marks a milestone done.
func (s *HabitService) CompleteMilestone(ctx context.Context, milestoneID string) error {
	return s.storage.CompleteMilestone(ctx, milestoneID)
}

func (s *HabitService) publishChange(ctx context.Context, msg *amqp.ChangeMessage) {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return
	}
	if err := s.amqpClient.PublishChange(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"entity", msg.Entity, "id", msg.ID, "error", err)
	}
}
