package engine

import "github.com/roach88/qrelax/internal/ir"

// failureMemo remembers queries proven to return no results.
//
// Conjunctive queries are monotone: adding conditions never adds results.
// Any query containing a memoized failing query therefore fails too and
// can be pruned without a probe.
//
// Not thread-safe: only the coordinator touches it.
type failureMemo struct {
	failing []*ir.Query
	keys    map[string]struct{}
}

func newFailureMemo() *failureMemo {
	return &failureMemo{keys: make(map[string]struct{})}
}

// Add memoizes q. Adding a query already covered by the memo is a no-op.
func (m *failureMemo) Add(q *ir.Query) bool {
	if m.Covers(q) {
		return false
	}
	m.keys[q.Key()] = struct{}{}
	m.failing = append(m.failing, q)
	return true
}

// Covers reports whether q contains a memoized failing query.
func (m *failureMemo) Covers(q *ir.Query) bool {
	if _, ok := m.keys[q.Key()]; ok {
		return true
	}
	for _, f := range m.failing {
		if f.IsSubqueryOf(q) {
			return true
		}
	}
	return false
}

// Len returns the number of memoized queries.
func (m *failureMemo) Len() int {
	return len(m.failing)
}
