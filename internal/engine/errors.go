package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected while repairing a query.
//
// Runtime errors include:
//   - Malformed query: the input cannot be repaired (no conditions,
//     unbound output variables, invalid filters)
//   - Source failure: a probe failed and was counted as zero results
//   - Rounds exceeded: the search spent its round quota
//
// Only malformed queries are returned to callers. The other codes are
// logged and end up in the report counters.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// RequestID identifies the affected repair.
	RequestID string

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeMalformedQuery indicates the input query cannot be repaired.
	ErrCodeMalformedQuery RuntimeErrorCode = "MALFORMED_QUERY"

	// ErrCodeSourceFailure indicates a data source probe failed.
	ErrCodeSourceFailure RuntimeErrorCode = "SOURCE_FAILURE"

	// ErrCodeRoundsExceeded indicates the search ran out of rounds.
	ErrCodeRoundsExceeded RuntimeErrorCode = "ROUNDS_EXCEEDED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.RequestID != "" {
		msg += fmt.Sprintf(" (request=%s)", e.RequestID)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsMalformedQuery returns true if the error reports unrepairable input.
// Uses errors.As to handle wrapped errors.
func IsMalformedQuery(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeMalformedQuery
	}
	return false
}

// IsQuotaError returns true if the error is a rounds exceeded error.
// Matches both RuntimeError with ErrCodeRoundsExceeded and
// RoundsExceededError.
func IsQuotaError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeRoundsExceeded
	}
	var se *RoundsExceededError
	return errors.As(err, &se)
}

// NewMalformedQueryError wraps a validation failure.
func NewMalformedQueryError(requestID string, err error) *RuntimeError {
	return &RuntimeError{
		Code:      ErrCodeMalformedQuery,
		Message:   "query cannot be repaired",
		RequestID: requestID,
		Err:       err,
	}
}

// NewSourceError records a failed probe.
func NewSourceError(requestID, op string, err error) *RuntimeError {
	return &RuntimeError{
		Code:      ErrCodeSourceFailure,
		Message:   op + " failed, counted as zero results",
		RequestID: requestID,
		Details:   map[string]string{"op": op},
		Err:       err,
	}
}

// NewRoundsError creates a RuntimeError for an exhausted round quota.
func NewRoundsError(requestID string, rounds, maxRounds int) *RuntimeError {
	return &RuntimeError{
		Code:      ErrCodeRoundsExceeded,
		Message:   fmt.Sprintf("search exceeded max rounds (%d > %d)", rounds, maxRounds),
		RequestID: requestID,
		Details: map[string]string{
			"rounds":     fmt.Sprintf("%d", rounds),
			"max_rounds": fmt.Sprintf("%d", maxRounds),
		},
	}
}
