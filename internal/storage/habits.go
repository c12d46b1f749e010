package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"tally/internal/core"
)

// CreateHabit stores a new habit. Frequency and goal links are stored as
// JSON columns; the closed-union validation already happened in core.
func (r *SQLiteRepository) CreateHabit(ctx context.Context, h core.Habit) error {
	freq, err := json.Marshal(h.Frequency)
	if err != nil {
		return fmt.Errorf("marshal frequency: %w", err)
	}
	goalIDs, err := json.Marshal(h.GoalIDs)
	if err != nil {
		return fmt.Errorf("marshal goal ids: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO habits (id, name, trigger, time, location, frequency, goal_ids, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.Name, h.Trigger, h.Time, h.Location, string(freq), string(goalIDs), h.IsActive, h.CreatedAt)
	if err != nil {
		return fmt.Errorf("create habit: %w", err)
	}

	slog.InfoContext(ctx, "Habit created", "component", "storage", "habit_id", h.ID, "name", h.Name)
	return nil
}

// UpdateHabit replaces all mutable habit fields. ID and CreatedAt never
// change.
func (r *SQLiteRepository) UpdateHabit(ctx context.Context, h core.Habit) error {
	freq, err := json.Marshal(h.Frequency)
	if err != nil {
		return fmt.Errorf("marshal frequency: %w", err)
	}
	goalIDs, err := json.Marshal(h.GoalIDs)
	if err != nil {
		return fmt.Errorf("marshal goal ids: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE habits SET name = ?, trigger = ?, time = ?, location = ?, frequency = ?, goal_ids = ?, is_active = ?
		 WHERE id = ?`,
		h.Name, h.Trigger, h.Time, h.Location, string(freq), string(goalIDs), h.IsActive, h.ID)
	if err != nil {
		return fmt.Errorf("update habit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update habit rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// GetHabit loads one habit by id.
func (r *SQLiteRepository) GetHabit(ctx context.Context, id string) (*core.Habit, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, trigger, time, location, frequency, goal_ids, is_active, created_at
		 FROM habits WHERE id = ?`, id)
	h, err := scanHabit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get habit %s: %w", id, err)
	}
	return h, nil
}

// ListHabits returns all habits, active and inactive.
func (r *SQLiteRepository) ListHabits(ctx context.Context) ([]core.Habit, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, trigger, time, location, frequency, goal_ids, is_active, created_at
		 FROM habits ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	defer rows.Close()

	var habits []core.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan habit: %w", err)
		}
		habits = append(habits, *h)
	}
	return habits, rows.Err()
}

// DeleteHabit removes a habit; its logs go with it via the foreign key.
func (r *SQLiteRepository) DeleteHabit(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM habits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete habit rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	slog.InfoContext(ctx, "Habit deleted with its logs", "component", "storage", "habit_id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHabit(row rowScanner) (*core.Habit, error) {
	var h core.Habit
	var freq, goalIDs string
	if err := row.Scan(&h.ID, &h.Name, &h.Trigger, &h.Time, &h.Location, &freq, &goalIDs, &h.IsActive, &h.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(freq), &h.Frequency); err != nil {
		return nil, fmt.Errorf("unmarshal frequency: %w", err)
	}
	if err := json.Unmarshal([]byte(goalIDs), &h.GoalIDs); err != nil {
		return nil, fmt.Errorf("unmarshal goal ids: %w", err)
	}
	return &h, nil
}

// UpsertHabitLog records the outcome for one habit/date pair, replacing any
// earlier status for that day. Returns the local row id.
func (r *SQLiteRepository) UpsertHabitLog(ctx context.Context, log core.HabitLog) (int64, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO habit_logs (habit_id, date, status)
		 VALUES (?, ?, ?)
		 ON CONFLICT(habit_id, date) DO UPDATE SET
		   status = excluded.status,
		   version = version + 1,
		   sync_status = 'pending',
		   updated_at = CURRENT_TIMESTAMP`,
		log.HabitID, log.Date, string(log.Status))
	if err != nil {
		return 0, fmt.Errorf("upsert habit log: %w", err)
	}

	var id int64
	err = r.db.QueryRowContext(ctx,
		`SELECT id FROM habit_logs WHERE habit_id = ? AND date = ?`,
		log.HabitID, log.Date).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("habit log id: %w", err)
	}
	return id, nil
}

// DeleteHabitLog clears the entry for one habit/date pair.
func (r *SQLiteRepository) DeleteHabitLog(ctx context.Context, habitID, date string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`DELETE FROM habit_logs WHERE habit_id = ? AND date = ? RETURNING id`, habitID, date).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, core.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("delete habit log: %w", err)
	}
	return id, nil
}

// ListHabitLogs returns all logs for one habit in date order.
func (r *SQLiteRepository) ListHabitLogs(ctx context.Context, habitID string) ([]core.HabitLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT habit_id, date, status FROM habit_logs WHERE habit_id = ? ORDER BY date`, habitID)
	if err != nil {
		return nil, fmt.Errorf("list habit logs: %w", err)
	}
	defer rows.Close()
	return collectLogs(rows)
}

// ListAllHabitLogs returns every log row; streak and score computations for
// a dashboard need the full set.
func (r *SQLiteRepository) ListAllHabitLogs(ctx context.Context) ([]core.HabitLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT habit_id, date, status FROM habit_logs ORDER BY habit_id, date`)
	if err != nil {
		return nil, fmt.Errorf("list all habit logs: %w", err)
	}
	defer rows.Close()
	return collectLogs(rows)
}

func collectLogs(rows *sql.Rows) ([]core.HabitLog, error) {
	var logs []core.HabitLog
	for rows.Next() {
		var l core.HabitLog
		var status string
		if err := rows.Scan(&l.HabitID, &l.Date, &status); err != nil {
			return nil, fmt.Errorf("scan habit log: %w", err)
		}
		l.Status = core.LogStatus(status)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// GetHabitLog loads one log row by local id, for sync pushes.
func (r *SQLiteRepository) GetHabitLog(ctx context.Context, localID int64) (*core.HabitLog, error) {
	var l core.HabitLog
	var status string
	err := r.db.QueryRowContext(ctx,
		`SELECT habit_id, date, status FROM habit_logs WHERE id = ?`, localID).
		Scan(&l.HabitID, &l.Date, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get habit log %d: %w", localID, err)
	}
	l.Status = core.LogStatus(status)
	return &l, nil
}

// GetPendingSyncHabitLogs lists log rows still waiting for a remote push.
func (r *SQLiteRepository) GetPendingSyncHabitLogs(ctx context.Context, limit int) ([]PendingSync, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, version FROM habit_logs WHERE sync_status = 'pending' ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync habit logs: %w", err)
	}
	defer rows.Close()

	var pending []PendingSync
	for rows.Next() {
		var p PendingSync
		if err := rows.Scan(&p.LocalID, &p.Version); err != nil {
			return nil, fmt.Errorf("scan pending habit log: %w", err)
		}
		pending = append(pending, p)
	}
	return pending, rows.Err()
}

// MarkHabitLogSynced records a successful remote push.
func (r *SQLiteRepository) MarkHabitLogSynced(ctx context.Context, localID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE habit_logs SET sync_status = 'synced', updated_at = CURRENT_TIMESTAMP WHERE id = ?`, localID)
	if err != nil {
		return fmt.Errorf("mark habit log synced: %w", err)
	}
	return nil
}

// MarkHabitLogSyncError records a failed remote push for later retry.
func (r *SQLiteRepository) MarkHabitLogSyncError(ctx context.Context, localID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE habit_logs SET sync_status = 'error', updated_at = CURRENT_TIMESTAMP WHERE id = ?`, localID)
	if err != nil {
		return fmt.Errorf("mark habit log sync error: %w", err)
	}
	slog.WarnContext(ctx, "Habit log marked with sync error", "component", "storage", "local_id", localID)
	return nil
}
