package reconcile

import (
	"errors"
	"fmt"
)

var (
	// ErrRequestNumberExhausted is returned when every suffixed request number is taken
	ErrRequestNumberExhausted = errors.New("request number candidates exhausted")
	// ErrInvalidInput wraps RunInput validation failures
	ErrInvalidInput = errors.New("invalid run input")
	// ErrFetchFailed wraps failures to retrieve the legacy row set
	ErrFetchFailed = errors.New("failed to fetch legacy rows")
)

// rowError ends a row in the skipped or unmatched bucket
type rowError struct {
	Outcome Outcome
	Reason  string
	Message string
}

func (e *rowError) Error() string {
	if e.Message == "" {
		return e.Reason
	}
	return e.Reason + ": " + e.Message
}

func skipRow(reason, format string, args ...any) error {
	return &rowError{Outcome: OutcomeSkipped, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func unmatchedRow(reason, format string, args ...any) error {
	return &rowError{Outcome: OutcomeUnmatched, Reason: reason, Message: fmt.Sprintf(format, args...)}
}
