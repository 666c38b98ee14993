package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityQueue_SimilarityDescending(t *testing.T) {
	q := newPriorityQueue(NewClock())
	for _, sim := range []float64{0.2, 0.9, 0.5, 1, 0} {
		q.Push(&candidate{similarity: sim})
	}
	require.Equal(t, 5, q.Len())

	var got []float64
	for c := q.Pop(); c != nil; c = q.Pop() {
		got = append(got, c.similarity)
	}
	assert.Equal(t, []float64{1, 0.9, 0.5, 0.2, 0}, got)
	assert.Nil(t, q.Pop(), "empty queue pops nil")
}

func TestPriorityQueue_TiesAreFIFO(t *testing.T) {
	q := newPriorityQueue(NewClock())
	for _, key := range []string{"a", "b", "c", "d"} {
		q.Push(&candidate{key: key, similarity: 0.5})
	}
	q.Push(&candidate{key: "top", similarity: 0.75})

	var got []string
	for c := q.Pop(); c != nil; c = q.Pop() {
		got = append(got, c.key)
	}
	assert.Equal(t, []string{"top", "a", "b", "c", "d"}, got)
}

func TestPriorityQueue_StampsSequence(t *testing.T) {
	clock := NewClock()
	q := newPriorityQueue(clock)
	c1, c2 := &candidate{}, &candidate{}
	q.Push(c1)
	q.Push(c2)

	assert.Equal(t, int64(1), c1.seq)
	assert.Equal(t, int64(2), c2.seq)
	assert.Equal(t, int64(2), clock.Current())
}

func TestRetryQueue_Drain(t *testing.T) {
	var q retryQueue
	a, b := &candidate{key: "a"}, &candidate{key: "b"}
	q.Enqueue(a)
	q.Enqueue(b)
	assert.Equal(t, 2, q.Len())

	assert.Equal(t, []*candidate{a, b}, q.Drain())
	assert.Equal(t, 0, q.Len())
	assert.Empty(t, q.Drain())
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"naive", StrategyNaive, false},
		{"SMART", StrategySmart, false},
		{" mbs ", StrategyMBS, false},
		{"", StrategySmart, false},
		{"greedy", "", true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStrategy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
