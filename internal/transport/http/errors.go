package http

import (
	"errors"
	"net/http"

	"quiz-arena/internal/domain"
)

var errorCodes = []struct {
	err    error
	code   string
	status int
}{
	{domain.ErrSessionNotFound, "session_not_found", http.StatusNotFound},
	{domain.ErrBankNotFound, "bank_not_found", http.StatusNotFound},
	{domain.ErrParticipantNotFound, "participant_not_found", http.StatusBadRequest},
	{domain.ErrInvalidConfiguration, "invalid_configuration", http.StatusBadRequest},
	{domain.ErrInvalidChoice, "invalid_choice", http.StatusBadRequest},
	{domain.ErrIncompleteAnswers, "incomplete_answers", http.StatusConflict},
	{domain.ErrAlreadyAnswered, "already_answered", http.StatusConflict},
	{domain.ErrNotInProgress, "not_in_progress", http.StatusConflict},
	{domain.ErrNotCompleted, "not_completed", http.StatusConflict},
	{domain.ErrReviewUnavailable, "review_unavailable", http.StatusConflict},
	{domain.ErrOutOfRange, "out_of_range", http.StatusConflict},
	{domain.ErrPersistence, "persistence_failed", http.StatusServiceUnavailable},
	{domain.ErrMissingColumn, "invalid_bank", http.StatusUnprocessableEntity},
	{domain.ErrMalformedRow, "invalid_bank", http.StatusUnprocessableEntity},
	{domain.ErrEmptyBank, "invalid_bank", http.StatusUnprocessableEntity},
	{domain.ErrInvalidCredentials, "invalid_credentials", http.StatusUnauthorized},
	{domain.ErrPlayerExists, "player_exists", http.StatusConflict},
}

// classify maps an error to a stable code and HTTP status.
func classify(err error) (string, int) {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code, c.status
		}
	}
	return "internal", http.StatusInternalServerError
}
