package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"tally/internal/core"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// writeError maps domain errors onto HTTP statuses. Validation problems are
// 400, missing things 404, budget-rule violations 422.
func writeError(w http.ResponseWriter, err error) {
	var (
		exceeded     *core.AllocationExceededError
		insufficient *core.InsufficientBalanceError
		invalidRef   *core.InvalidEnvelopeReferenceError
	)

	switch {
	case errors.As(err, &exceeded):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "allocation_exceeded"})
	case errors.As(err, &insufficient):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "insufficient_balance"})
	case errors.As(err, &invalidRef):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "invalid_envelope"})
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error(), Code: "not_found"})
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidPeriodKey),
		errors.Is(err, core.ErrInvalidEnvelope),
		errors.Is(err, core.ErrInvalidTxType),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrEmptyPaymentMethod),
		errors.Is(err, core.ErrSamePaymentMethod),
		errors.Is(err, core.ErrUnknownFrequency):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "validation"})
	default:
		slog.Error("Unhandled request error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
