package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRoundQuota_WithinLimit tests normal operation within quota.
func TestRoundQuota_WithinLimit(t *testing.T) {
	q := NewRoundQuota(10)

	for i := 0; i < 10; i++ {
		err := q.Check("req-1")
		assert.NoError(t, err, "round %d should be allowed", i+1)
	}

	assert.Equal(t, 10, q.Current())
	assert.Equal(t, 10, q.Used())
	assert.Equal(t, 10, q.MaxRounds())
}

// TestRoundQuota_ExceedsLimit tests the rounds exceeded error.
func TestRoundQuota_ExceedsLimit(t *testing.T) {
	q := NewRoundQuota(5)

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Check("req-1"))
	}

	err := q.Check("req-1")
	require.Error(t, err)

	var roundsErr *RoundsExceededError
	require.ErrorAs(t, err, &roundsErr)
	assert.Equal(t, "req-1", roundsErr.RequestID)
	assert.Equal(t, 6, roundsErr.Rounds)
	assert.Equal(t, 5, roundsErr.Limit)
	assert.Equal(t, 5, q.Used(), "failed check does not count as used")
}

// TestRoundQuota_Zero stops before the first round.
func TestRoundQuota_Zero(t *testing.T) {
	q := NewRoundQuota(0)
	assert.Error(t, q.Check("req-1"))
	assert.Equal(t, 0, q.Used())
}

func TestRoundsExceededError_Message(t *testing.T) {
	err := &RoundsExceededError{RequestID: "req-9", Rounds: 9, Limit: 8}
	assert.Equal(t, "request req-9 exceeded round quota: 9 rounds > 8 limit", err.Error())
}

func TestIsRoundsExceededError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"direct", &RoundsExceededError{}, true},
		{"wrapped", fmt.Errorf("search: %w", &RoundsExceededError{}), true},
		{"other", fmt.Errorf("boom"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRoundsExceededError(tt.err))
		})
	}
}

func TestRuntimeErrors(t *testing.T) {
	cause := fmt.Errorf("no conditions")

	malformed := NewMalformedQueryError("req-1", cause)
	assert.True(t, IsMalformedQuery(fmt.Errorf("repair: %w", malformed)))
	assert.ErrorIs(t, malformed, cause)
	assert.Equal(t, "MALFORMED_QUERY: query cannot be repaired (request=req-1): no conditions", malformed.Error())

	rounds := NewRoundsError("req-1", 9, 8)
	assert.True(t, IsQuotaError(rounds))
	assert.Equal(t, "8", rounds.Details["max_rounds"])
	assert.True(t, IsQuotaError(&RoundsExceededError{}))

	source := NewSourceError("", "count", cause)
	assert.False(t, IsQuotaError(source))
	assert.False(t, IsMalformedQuery(source))
	assert.Equal(t, "SOURCE_FAILURE: count failed, counted as zero results: no conditions", source.Error())
}
