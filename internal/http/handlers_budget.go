package http

import (
	"net/http"

	"tally/internal/core"
)

func periodKeyFrom(r *http.Request) (core.PeriodKey, error) {
	return core.ValidatePeriodKeyString(r.PathValue("key"))
}

func (s *Server) handlePeriodOverview(w http.ResponseWriter, r *http.Request) {
	key, err := periodKeyFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if cached, ok := s.overviewCache.Get(string(key)); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	overview, err := s.budget.Overview(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	s.overviewCache.Set(string(key), overview)
	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) handleSetIncome(w http.ResponseWriter, r *http.Request) {
	key, err := periodKeyFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		IncomeCents int64 `json:"incomeCents"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "validation"})
		return
	}

	if err := s.budget.SetIncome(r.Context(), key, body.IncomeCents); err != nil {
		writeError(w, err)
		return
	}
	s.invalidateDerived()
	w.WriteHeader(http.StatusNoContent)
}

func envelopeRefFrom(r *http.Request) core.EnvelopeRef {
	return core.EnvelopeRef{
		Category: r.PathValue("category"),
		Name:     r.PathValue("name"),
	}
}

func (s *Server) handleAllocate(w http.ResponseWriter, r *http.Request) {
	key, err := periodKeyFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		BudgetedCents int64 `json:"budgetedCents"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "validation"})
		return
	}

	if err := s.budget.Allocate(r.Context(), key, envelopeRefFrom(r), body.BudgetedCents); err != nil {
		writeError(w, err)
		return
	}
	s.invalidateDerived()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleIncrement(w http.ResponseWriter, r *http.Request) {
	key, err := periodKeyFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		DeltaCents int64 `json:"deltaCents"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "validation"})
		return
	}

	if err := s.budget.Increment(r.Context(), key, envelopeRefFrom(r), body.DeltaCents); err != nil {
		writeError(w, err)
		return
	}
	s.invalidateDerived()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResetPeriod(w http.ResponseWriter, r *http.Request) {
	key, err := periodKeyFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.budget.ResetPeriod(r.Context(), key); err != nil {
		writeError(w, err)
		return
	}
	s.invalidateDerived()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePaymentMethodBalances(w http.ResponseWriter, r *http.Request) {
	key, err := periodKeyFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	balances, err := s.budget.PaymentMethodBalances(r.Context(), key)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balances)
}

func (s *Server) handleListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := s.budget.ListPaymentMethods(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, methods)
}

func (s *Server) handleAddPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "validation"})
		return
	}

	if err := s.budget.AddPaymentMethod(r.Context(), body.Name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}
