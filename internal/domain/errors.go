package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a quiz session has not been opened.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrParticipantNotFound is returned when an answer names an unknown participant slot.
	ErrParticipantNotFound = errors.New("participant not found in session")
	// ErrBankNotFound indicates the question bank could not be loaded.
	ErrBankNotFound = errors.New("question bank not found")

	// ErrInvalidConfiguration rejects a configure call; the session stays in configuring.
	ErrInvalidConfiguration = errors.New("invalid session configuration")
	// ErrInvalidChoice indicates the submitted value is not one of the frozen options.
	ErrInvalidChoice = errors.New("choice is not one of the question options")
	// ErrIncompleteAnswers indicates a participant slot has no pick for the question yet.
	ErrIncompleteAnswers = errors.New("not every participant has answered")
	// ErrAlreadyAnswered indicates a training-mode pick that was already revealed.
	ErrAlreadyAnswered = errors.New("participant already answered this question")
	// ErrNotInProgress indicates a transition that needs a running session.
	ErrNotInProgress = errors.New("session is not in progress")
	// ErrNotCompleted indicates a request for results of an unfinished session.
	ErrNotCompleted = errors.New("session is not completed")
	// ErrReviewUnavailable indicates navigation outside single-participant exam mode.
	ErrReviewUnavailable = errors.New("review navigation requires a solo exam session")
	// ErrOutOfRange indicates navigation past the first or last question.
	ErrOutOfRange = errors.New("question index out of range")
	// ErrPersistence wraps result sink write failures.
	ErrPersistence = errors.New("result persistence failed")

	// ErrMissingColumn indicates a question sheet lacks a prompt or answer column.
	ErrMissingColumn = errors.New("question sheet missing required column")
	// ErrMalformedRow indicates a non-empty row without a prompt or an answer.
	ErrMalformedRow = errors.New("malformed question row")
	// ErrEmptyBank indicates a sheet without any usable question rows.
	ErrEmptyBank = errors.New("question bank has no questions")

	// ErrInvalidCredentials is returned on unknown player or wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPlayerExists is returned when registering a taken player name.
	ErrPlayerExists = errors.New("player already registered")
)
