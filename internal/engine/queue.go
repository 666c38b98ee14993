package engine

import (
	"container/heap"

	"github.com/roach88/qrelax/internal/ir"
)

// candidate is a relaxed remainder paired with the base it is unioned onto.
//
// merged and similarity are derived from the pair whenever it is ranked;
// they are cached here only while the candidate sits in a queue.
type candidate struct {
	remainder  *ir.Query
	base       *ir.Query
	merged     *ir.Query
	key        string
	similarity float64
	seq        int64

	// failed marks MBS candidates known to contain an intact MFS.
	failed bool
}

// candidateHeap is a max-heap on similarity with insertion order as the
// secondary key (FIFO among equal similarity).
//
// Not thread-safe: only the coordinator touches it.
type candidateHeap []*candidate

func (h candidateHeap) Len() int { return len(h) }

func (h candidateHeap) Less(i, j int) bool {
	if h[i].similarity != h[j].similarity {
		return h[i].similarity > h[j].similarity
	}
	return h[i].seq < h[j].seq
}

func (h candidateHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *candidateHeap) Push(x any) {
	*h = append(*h, x.(*candidate))
}

func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	// CRITICAL: Nil out the slot so popped candidates and their queries
	// can be collected while the heap keeps its capacity.
	old[n-1] = nil
	*h = old[:n-1]
	return c
}

// priorityQueue stamps candidates with a sequence from the clock.
type priorityQueue struct {
	clock *Clock
	h     candidateHeap
}

func newPriorityQueue(clock *Clock) *priorityQueue {
	return &priorityQueue{clock: clock}
}

// Push stamps c and inserts it.
func (q *priorityQueue) Push(c *candidate) {
	c.seq = q.clock.Next()
	heap.Push(&q.h, c)
}

// Pop removes the most similar candidate. Returns nil when empty.
func (q *priorityQueue) Pop() *candidate {
	if q.h.Len() == 0 {
		return nil
	}
	return heap.Pop(&q.h).(*candidate)
}

// Len returns the number of queued candidates.
func (q *priorityQueue) Len() int {
	return q.h.Len()
}

// retryQueue is a FIFO of candidates waiting for another relaxation round.
//
// Not thread-safe: only the coordinator touches it.
type retryQueue struct {
	items []*candidate
}

// Enqueue adds a candidate to the back of the queue.
func (q *retryQueue) Enqueue(c *candidate) {
	q.items = append(q.items, c)
}

// Drain returns every queued candidate in FIFO order and empties the queue.
func (q *retryQueue) Drain() []*candidate {
	items := q.items
	q.items = nil
	return items
}

// Len returns the current queue length.
func (q *retryQueue) Len() int {
	return len(q.items)
}
