package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tally/internal/core"
)

// CreateGoal stores a goal with its milestones.
func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create goal: %w", err)
	}
	defer dbTx.Rollback()

	_, err = dbTx.ExecContext(ctx,
		`INSERT INTO goals (id, title, yearly_target, unit, actual_progress, start_date, end_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Title, g.YearlyTarget, g.Unit, g.ActualProgress, g.StartDate, g.EndDate)
	if err != nil {
		return fmt.Errorf("create goal: %w", err)
	}

	for _, m := range g.Milestones {
		_, err = dbTx.ExecContext(ctx,
			`INSERT INTO milestones (id, goal_id, date, description, completed) VALUES (?, ?, ?, ?, ?)`,
			m.ID, g.ID, m.Date, m.Description, m.Completed)
		if err != nil {
			return fmt.Errorf("create milestone: %w", err)
		}
	}

	return dbTx.Commit()
}

// UpdateGoalProgress sets the actual progress figure.
func (r *SQLiteRepository) UpdateGoalProgress(ctx context.Context, goalID string, progress float64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE goals SET actual_progress = ? WHERE id = ?`, progress, goalID)
	if err != nil {
		return fmt.Errorf("update goal progress: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update goal progress rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// CompleteMilestone flips a milestone to completed.
func (r *SQLiteRepository) CompleteMilestone(ctx context.Context, milestoneID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE milestones SET completed = 1 WHERE id = ?`, milestoneID)
	if err != nil {
		return fmt.Errorf("complete milestone: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete milestone rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// GetGoal loads one goal with milestones.
func (r *SQLiteRepository) GetGoal(ctx context.Context, id string) (*core.Goal, error) {
	var g core.Goal
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, yearly_target, unit, actual_progress, start_date, end_date
		 FROM goals WHERE id = ?`, id).
		Scan(&g.ID, &g.Title, &g.YearlyTarget, &g.Unit, &g.ActualProgress, &g.StartDate, &g.EndDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get goal %s: %w", id, err)
	}

	milestones, err := r.listMilestones(ctx, id)
	if err != nil {
		return nil, err
	}
	g.Milestones = milestones
	return &g, nil
}

// ListGoals returns all goals with their milestones.
func (r *SQLiteRepository) ListGoals(ctx context.Context) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, yearly_target, unit, actual_progress, start_date, end_date FROM goals ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var goals []core.Goal
	for rows.Next() {
		var g core.Goal
		if err := rows.Scan(&g.ID, &g.Title, &g.YearlyTarget, &g.Unit, &g.ActualProgress, &g.StartDate, &g.EndDate); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range goals {
		milestones, err := r.listMilestones(ctx, goals[i].ID)
		if err != nil {
			return nil, err
		}
		goals[i].Milestones = milestones
	}
	return goals, nil
}

// DeleteGoal removes a goal and its milestones. Habits keep their goal link
// ids; a dangling link simply stops gating the schedule.
func (r *SQLiteRepository) DeleteGoal(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete goal rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) listMilestones(ctx context.Context, goalID string) ([]core.Milestone, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, date, description, completed FROM milestones WHERE goal_id = ? ORDER BY date`, goalID)
	if err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}
	defer rows.Close()

	var milestones []core.Milestone
	for rows.Next() {
		var m core.Milestone
		if err := rows.Scan(&m.ID, &m.Date, &m.Description, &m.Completed); err != nil {
			return nil, fmt.Errorf("scan milestone: %w", err)
		}
		milestones = append(milestones, m)
	}
	return milestones, rows.Err()
}
