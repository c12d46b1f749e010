package http

import (
	"net/http"

	"github.com/google/uuid"

	"tally/internal/core"
	applog "tally/internal/log"
)

type transactionRequest struct {
	Date          string `json:"date"`
	Envelope      string `json:"envelope"`
	Amount        string `json:"amount"`
	Description   string `json:"description"`
	PaymentMethod string `json:"paymentMethod"`
	Type          string `json:"type"`
}

func (req transactionRequest) toTransaction() (core.Transaction, error) {
	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:            uuid.NewString(),
		Date:          req.Date,
		Envelope:      core.EnvelopeTag(req.Envelope),
		Amount:        amount,
		Description:   req.Description,
		PaymentMethod: req.PaymentMethod,
		Type:          core.TransactionType(req.Type),
	}, nil
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	key, err := periodKeyFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "validation"})
		return
	}
	tx, err := req.toTransaction()
	if err != nil {
		writeError(w, err)
		return
	}

	// Interactive entry allows overdraft; the envelope shows the shortfall.
	if err := s.budget.AddTransaction(r.Context(), key, tx, false); err != nil {
		writeError(w, err)
		return
	}
	s.invalidateDerived()
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	key, err := periodKeyFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.budget.DeleteTransaction(r.Context(), key, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	s.invalidateDerived()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCorrectPaymentMethod(w http.ResponseWriter, r *http.Request) {
	key, err := periodKeyFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		PaymentMethod string `json:"paymentMethod"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "validation"})
		return
	}

	if err := s.budget.CorrectPaymentMethod(r.Context(), key, r.PathValue("id"), body.PaymentMethod); err != nil {
		writeError(w, err)
		return
	}
	s.invalidateDerived()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	key, err := periodKeyFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var body struct {
		From   string `json:"from"`
		To     string `json:"to"`
		Amount string `json:"amount"`
		Date   string `json:"date"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "validation"})
		return
	}

	amount, err := core.ParseAmount(body.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.budget.Transfer(r.Context(), key, body.From, body.To, amount, body.Date); err != nil {
		writeError(w, err)
		return
	}
	s.invalidateDerived()
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	result, err := s.importer.ImportTransactions(r.Context(), r.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	applog.FromContext(r.Context()).Info("CSV upload processed",
		applog.FieldOperation, "import",
		"success_count", result.SuccessCount,
		"error_count", result.ErrorCount)
	s.invalidateDerived()
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	key, err := periodKeyFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="ledger-`+string(key)+`.csv"`)
	if err := s.importer.ExportTransactions(r.Context(), w, key); err != nil {
		writeError(w, err)
	}
}
