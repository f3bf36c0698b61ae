package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bookloop/bookloop/internal/catalog"
	"github.com/bookloop/bookloop/internal/consent"
	"github.com/bookloop/bookloop/internal/quiz"
	"github.com/bookloop/bookloop/internal/reading"
)

type apiError struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// writeError maps domain errors to HTTP statuses. Locked and conflict are
// both 409 but carry distinct codes: LOCKED clears when the state changes,
// CONFLICT requires a re-read before retrying.
func writeError(w http.ResponseWriter, err error) {
	code, status := "internal", http.StatusInternalServerError
	switch {
	case errors.Is(err, reading.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, quiz.ErrSessionNotFound):
		code, status = "not_found", http.StatusNotFound
	case errors.Is(err, quiz.ErrBankEmpty):
		code, status = "bank_unavailable", http.StatusNotFound
	case errors.Is(err, reading.ErrLocked),
		errors.Is(err, reading.ErrNotEligible),
		errors.Is(err, reading.ErrPinned):
		code, status = "locked", http.StatusConflict
	case errors.Is(err, reading.ErrConflict):
		code, status = "conflict", http.StatusConflict
	case errors.Is(err, consent.ErrInvalidCode):
		code, status = "invalid_code", http.StatusUnauthorized
	case errors.Is(err, consent.ErrNoCode):
		code, status = "no_code", http.StatusConflict
	case errors.Is(err, reading.ErrProgressRange),
		errors.Is(err, reading.ErrRatingRange),
		errors.Is(err, reading.ErrUnknownMethod),
		errors.Is(err, reading.ErrNotPinned),
		errors.Is(err, reading.ErrAlreadyReading),
		errors.Is(err, quiz.ErrEmptyAnswer):
		code, status = "invalid_request", http.StatusBadRequest
	case errors.Is(err, quiz.ErrFinished),
		errors.Is(err, quiz.ErrExpired),
		errors.Is(err, quiz.ErrUnanswered),
		errors.Is(err, quiz.ErrNotAtLast),
		errors.Is(err, quiz.ErrAtStart):
		code, status = "quiz_state", http.StatusConflict
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{Code: code, Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
