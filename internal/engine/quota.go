package engine

import (
	"errors"
	"fmt"
)

// RoundQuota limits the number of relaxation rounds of one repair.
//
// A round is one Expand barrier for the naive and smart strategies and
// one evaluated candidate for MBS. The queued-key set already bounds
// the search, but the candidate space is exponential in the number of
// relaxable terms. The quota is what keeps a repair interactive.
//
// Each repair has its own RoundQuota instance.
type RoundQuota struct {
	maxRounds int
	current   int
}

// NewRoundQuota creates a quota with the given limit.
//
// maxRounds: Typical default 8 (configurable via WithMaxRounds).
func NewRoundQuota(maxRounds int) *RoundQuota {
	return &RoundQuota{maxRounds: maxRounds}
}

// Check increments the round counter and validates against the limit.
//
// Returns RoundsExceededError if the quota is exceeded.
func (q *RoundQuota) Check(requestID string) error {
	q.current++
	if q.current > q.maxRounds {
		return &RoundsExceededError{
			RequestID: requestID,
			Rounds:    q.current,
			Limit:     q.maxRounds,
		}
	}
	return nil
}

// Current returns the number of rounds checked so far.
func (q *RoundQuota) Current() int {
	return q.current
}

// Used returns the number of rounds that passed the check.
func (q *RoundQuota) Used() int {
	return min(q.current, q.maxRounds)
}

// MaxRounds returns the limit.
func (q *RoundQuota) MaxRounds() int {
	return q.maxRounds
}

// RoundsExceededError is returned when a repair exceeds its round quota.
//
// The search stops gracefully: the XSS fallback still runs and the
// report is returned.
type RoundsExceededError struct {
	RequestID string
	Rounds    int
	Limit     int
}

// Error implements the error interface.
func (e *RoundsExceededError) Error() string {
	return fmt.Sprintf("request %s exceeded round quota: %d rounds > %d limit",
		e.RequestID, e.Rounds, e.Limit)
}

// IsRoundsExceededError returns true if the error is a RoundsExceededError.
// Uses errors.As to handle wrapped errors.
func IsRoundsExceededError(err error) bool {
	var se *RoundsExceededError
	return errors.As(err, &se)
}
