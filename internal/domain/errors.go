package domain

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidSubmission is returned when a submission is missing required fields or is malformed.
	ErrInvalidSubmission = errors.New("invalid submission")
	// ErrHistoryUnavailable marks a failure to read a user's submission history.
	ErrHistoryUnavailable = errors.New("submission history unavailable")
	// ErrPersistenceFailure marks a failure to store a history entry or fraud record.
	ErrPersistenceFailure = errors.New("fraud record persistence failed")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
)

// ValidationError lists what is wrong with a submission. It unwraps to ErrInvalidSubmission.
type ValidationError struct {
	Missing []string
	Reason  string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		return "Missing required fields: " + strings.Join(e.Missing, ", ")
	}
	return e.Reason
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidSubmission
}
