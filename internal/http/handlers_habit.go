package http

import (
	"net/http"
	"strconv"
	"time"

	"tally/internal/core"
	"tally/internal/habit"
)

func (s *Server) handleListHabits(w http.ResponseWriter, r *http.Request) {
	habits, err := s.habits.ListHabits(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, habits)
}

func (s *Server) handleCreateHabit(w http.ResponseWriter, r *http.Request) {
	var h core.Habit
	if err := decodeBody(r, &h); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "validation"})
		return
	}

	created, err := s.habits.CreateHabit(r.Context(), h)
	if err != nil {
		writeError(w, err)
		return
	}
	s.invalidateDerived()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateHabit(w http.ResponseWriter, r *http.Request) {
	var h core.Habit
	if err := decodeBody(r, &h); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "validation"})
		return
	}
	h.ID = r.PathValue("id")

	updated, scheduleChanged, err := s.habits.UpdateHabit(r.Context(), h)
	if err != nil {
		writeError(w, err)
		return
	}
	s.invalidateDerived()
	writeJSON(w, http.StatusOK, map[string]any{
		"habit":           updated,
		"scheduleChanged": scheduleChanged,
	})
}

func (s *Server) handleDeleteHabit(w http.ResponseWriter, r *http.Request) {
	if err := s.habits.DeleteHabit(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	s.invalidateDerived()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLogHabit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Date   string `json:"date"`
		Status string `json:"status"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "validation"})
		return
	}

	log := core.HabitLog{
		HabitID: r.PathValue("id"),
		Date:    body.Date,
		Status:  core.LogStatus(body.Status),
	}
	if err := s.habits.LogHabit(r.Context(), log); err != nil {
		writeError(w, err)
		return
	}
	s.invalidateDerived()
	writeJSON(w, http.StatusCreated, log)
}

func (s *Server) handleUnlogHabit(w http.ResponseWriter, r *http.Request) {
	if err := s.habits.UnlogHabit(r.Context(), r.PathValue("id"), r.PathValue("date")); err != nil {
		writeError(w, err)
		return
	}
	s.invalidateDerived()
	w.WriteHeader(http.StatusNoContent)
}

// dateParam reads a YYYY-MM-DD query parameter, defaulting to today.
func dateParam(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Now(), nil
	}
	d, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, core.ErrInvalidDate
	}
	return d, nil
}

func (s *Server) handleStreaks(w http.ResponseWriter, r *http.Request) {
	asOf, err := dateParam(r, "asOf")
	if err != nil {
		writeError(w, err)
		return
	}

	current, best, err := s.habits.Streaks(r.Context(), r.PathValue("id"), asOf)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"currentStreak": current,
		"bestStreak":    best,
	})
}

func (s *Server) handleChecklist(w http.ResponseWriter, r *http.Request) {
	date, err := dateParam(r, "date")
	if err != nil {
		writeError(w, err)
		return
	}

	cacheKey := date.Format("2006-01-02")
	if cached, ok := s.checklistCache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	list, err := s.habits.Checklist(r.Context(), date)
	if err != nil {
		writeError(w, err)
		return
	}
	s.checklistCache.Set(cacheKey, list)
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleConsistency(w http.ResponseWriter, r *http.Request) {
	endDate, err := dateParam(r, "endDate")
	if err != nil {
		writeError(w, err)
		return
	}

	windowDays := habit.DefaultScoreWindowDays
	if v := r.URL.Query().Get("windowDays"); v != "" {
		windowDays, err = strconv.Atoi(v)
		if err != nil || windowDays <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid windowDays", Code: "validation"})
			return
		}
	}

	score, label, err := s.habits.Consistency(r.Context(), endDate, windowDays)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"score":      score,
		"label":      label,
		"windowDays": windowDays,
	})
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.habits.ListGoals(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	goal, err := s.habits.GetGoal(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var g core.Goal
	if err := decodeBody(r, &g); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "validation"})
		return
	}

	created, err := s.habits.CreateGoal(r.Context(), g)
	if err != nil {
		writeError(w, err)
		return
	}
	s.invalidateDerived()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.habits.DeleteGoal(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	s.invalidateDerived()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Progress float64 `json:"progress"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "validation"})
		return
	}

	if err := s.habits.UpdateGoalProgress(r.Context(), r.PathValue("id"), body.Progress); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCompleteMilestone(w http.ResponseWriter, r *http.Request) {
	if err := s.habits.CompleteMilestone(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
