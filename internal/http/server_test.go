package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"tally/internal/core"
	"tally/internal/services"
	"tally/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	budgetSvc := services.NewBudgetService(repo, nil)
	habitSvc := services.NewHabitService(repo, nil)
	importSvc := services.NewImportService(budgetSvc)

	s := NewServer(":0", budgetSvc, habitSvc, importSvc)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, s, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}

func TestBudgetFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPut, "/api/periods/2025-03/income", map[string]int64{"incomeCents": 250000})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("set income = %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, s, http.MethodPut, "/api/periods/2025-03/envelopes/needs/groceries", map[string]int64{"budgetedCents": 40000})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("allocate = %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/periods/2025-03/transactions", map[string]string{
		"date":          "2025-03-10",
		"envelope":      "needs.groceries",
		"amount":        "125.00",
		"description":   "weekly shop",
		"paymentMethod": "debit",
		"type":          "expense",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add transaction = %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/periods/2025-03", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("overview = %d, body %s", rec.Code, rec.Body)
	}
	var ov services.PeriodOverview
	if err := json.Unmarshal(rec.Body.Bytes(), &ov); err != nil {
		t.Fatalf("decode overview: %v", err)
	}
	if ov.Income != 250000 {
		t.Errorf("Income = %d, want 250000", ov.Income)
	}
	if len(ov.Envelopes) != 1 || ov.Envelopes[0].Summary.Spent != 12500 {
		t.Errorf("Envelopes = %+v, want one with spent 12500", ov.Envelopes)
	}
}

func TestAllocationExceededMapsTo422(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPut, "/api/periods/2025-03/income", map[string]int64{"incomeCents": 10000})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("set income = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPut, "/api/periods/2025-03/envelopes/needs/groceries", map[string]int64{"budgetedCents": 20000})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("over-allocation = %d, want 422; body %s", rec.Code, rec.Body)
	}
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp.Code != "allocation_exceeded" {
		t.Errorf("error code = %q, want allocation_exceeded", resp.Code)
	}
}

func TestInvalidPeriodKeyMapsTo400(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/api/periods/March-2025", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad period key = %d, want 400", rec.Code)
	}
}

func TestHabitFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/habits", core.Habit{
		Name:      "meditate",
		Frequency: core.Frequency{Kind: core.FreqDaily},
		IsActive:  true,
		CreatedAt: "2025-01-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create habit = %d, body %s", rec.Code, rec.Body)
	}
	var h core.Habit
	if err := json.Unmarshal(rec.Body.Bytes(), &h); err != nil {
		t.Fatalf("decode habit: %v", err)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/habits/"+h.ID+"/logs", map[string]string{
		"date":   "2025-01-13",
		"status": "done",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("log habit = %d, body %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/habits/"+h.ID+"/streaks?asOf=2025-01-13", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("streaks = %d, body %s", rec.Code, rec.Body)
	}
	var streaks map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &streaks); err != nil {
		t.Fatalf("decode streaks: %v", err)
	}
	if streaks["currentStreak"] != 1 {
		t.Errorf("currentStreak = %d, want 1", streaks["currentStreak"])
	}

	rec = doJSON(t, s, http.MethodGet, "/api/checklist?date=2025-01-13", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("checklist = %d, body %s", rec.Code, rec.Body)
	}
}
