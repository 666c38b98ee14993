package testutil

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/roach88/qrelax/internal/datasource"
	"github.com/roach88/qrelax/internal/ir"
)

// MemorySource is an in-memory datasource.Source over a fixed triple list.
//
// It evaluates conjunctive queries by nested-loop matching in triple order,
// so results are deterministic. Individual queries can be scripted to fail
// with FailQuery to exercise error paths.
//
// Thread-safety: triples are immutable after construction; the failure
// script is guarded by a mutex and counters are atomic.
type MemorySource struct {
	triples []ir.Triple

	mu       sync.Mutex
	failures map[string]error

	evaluations atomic.Int64
}

var _ datasource.Source = (*MemorySource)(nil)

// NewMemorySource creates a source over triples.
func NewMemorySource(triples []ir.Triple) *MemorySource {
	return &MemorySource{triples: triples, failures: make(map[string]error)}
}

// FailQuery makes Evaluate and Count return err for queries with the same
// condition set as q.
func (m *MemorySource) FailQuery(q *ir.Query, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[q.Key()] = err
}

// Evaluations returns how many Evaluate and Count calls were served.
func (m *MemorySource) Evaluations() int64 {
	return m.evaluations.Load()
}

func (m *MemorySource) scripted(q *ir.Query) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures[q.Key()]
}

// Evaluate returns the distinct projected bindings of q.
func (m *MemorySource) Evaluate(ctx context.Context, q *ir.Query) (datasource.ResultSet, error) {
	m.evaluations.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := m.scripted(q); err != nil {
		return nil, err
	}

	conds := q.Conditions()
	filters := q.Filters()
	proj := q.Projection()
	seen := make(map[string]struct{})
	results := datasource.ResultSet{}

	var match func(i int, b datasource.Binding)
	match = func(i int, b datasource.Binding) {
		if i == len(conds) {
			for _, f := range filters {
				if !holds(f, b) {
					return
				}
			}
			row := make(datasource.Binding, len(proj))
			for _, v := range proj {
				if t, ok := b[v]; ok {
					row[v] = t
				}
			}
			key := row.Key()
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				results = append(results, row)
			}
			return
		}
		for _, tr := range m.triples {
			next, ok := unify(conds[i], tr, b)
			if ok {
				match(i+1, next)
			}
		}
	}
	match(0, datasource.Binding{})
	return results, nil
}

// Count evaluates q and caps the result size at limit.
func (m *MemorySource) Count(ctx context.Context, q *ir.Query, limit int) (int, error) {
	return datasource.CountByEvaluate(ctx, m, q, limit)
}

// ClassFrequency counts distinct subjects typed with class over distinct
// typed subjects.
func (m *MemorySource) ClassFrequency(ctx context.Context, class ir.Term) (datasource.Frequency, error) {
	typed := make(map[ir.Term]struct{})
	members := make(map[ir.Term]struct{})
	for _, tr := range m.triples {
		if tr.Predicate != ir.IRI(ir.RDFType) {
			continue
		}
		typed[tr.Subject] = struct{}{}
		if tr.Object == class {
			members[tr.Subject] = struct{}{}
		}
	}
	return datasource.Frequency{Count: int64(len(members)), Total: int64(len(typed))}, nil
}

// PropertyFrequency counts triples using property over all triples.
func (m *MemorySource) PropertyFrequency(ctx context.Context, property ir.Term) (datasource.Frequency, error) {
	var n int64
	for _, tr := range m.triples {
		if tr.Predicate == property {
			n++
		}
	}
	return datasource.Frequency{Count: n, Total: int64(len(m.triples))}, nil
}

// BroaderClasses follows one rdfs:subClassOf edge.
func (m *MemorySource) BroaderClasses(ctx context.Context, class ir.Term) ([]ir.Term, error) {
	return m.broader(class, ir.RDFSSubClassOf), nil
}

// BroaderProperties follows one rdfs:subPropertyOf edge.
func (m *MemorySource) BroaderProperties(ctx context.Context, property ir.Term) ([]ir.Term, error) {
	return m.broader(property, ir.RDFSSubPropertyOf), nil
}

func (m *MemorySource) broader(t ir.Term, edge string) []ir.Term {
	var out []ir.Term
	for _, tr := range m.triples {
		if tr.Subject == t && tr.Predicate == ir.IRI(edge) && tr.Object != t {
			out = append(out, tr.Object)
		}
	}
	return out
}

// unify extends b so that c matches tr.
func unify(c ir.Condition, tr ir.Triple, b datasource.Binding) (datasource.Binding, bool) {
	var added map[string]ir.Term
	pairs := [3][2]ir.Term{
		{c.Subject, tr.Subject},
		{c.Predicate, tr.Predicate},
		{c.Object, tr.Object},
	}
	for _, p := range pairs {
		pattern, value := p[0], p[1]
		if !pattern.IsVariable() {
			if pattern != value {
				return nil, false
			}
			continue
		}
		if bound, ok := b[pattern.Value]; ok {
			if bound != value {
				return nil, false
			}
			continue
		}
		if bound, ok := added[pattern.Value]; ok {
			if bound != value {
				return nil, false
			}
			continue
		}
		if added == nil {
			added = make(map[string]ir.Term, 3)
		}
		added[pattern.Value] = value
	}
	if len(added) == 0 {
		return b, true
	}
	next := make(datasource.Binding, len(b)+len(added))
	for k, v := range b {
		next[k] = v
	}
	for k, v := range added {
		next[k] = v
	}
	return next, true
}

// holds evaluates a filter. Unbound variables make comparisons false.
func holds(f ir.Filter, b datasource.Binding) bool {
	switch n := f.(type) {
	case ir.Compare:
		t, ok := b[n.Var]
		return ok && compare(t, n.Op, n.Value)
	case ir.VarCompare:
		l, lok := b[n.Left]
		r, rok := b[n.Right]
		return lok && rok && compare(l, n.Op, r)
	case ir.And:
		for _, c := range n.Filters {
			if !holds(c, b) {
				return false
			}
		}
		return true
	}
	return false
}

func compare(a ir.Term, op ir.Op, b ir.Term) bool {
	if a.IsNumeric() && b.IsNumeric() {
		x, errA := strconv.ParseFloat(a.Value, 64)
		y, errB := strconv.ParseFloat(b.Value, 64)
		if errA == nil && errB == nil {
			return ordered(op, cmpFloat(x, y))
		}
	}
	switch op {
	case ir.OpEq:
		return a == b
	case ir.OpNe:
		return a != b
	}
	if a.Kind != b.Kind {
		return false
	}
	return ordered(op, cmpString(a.Value, b.Value))
}

func ordered(op ir.Op, c int) bool {
	switch op {
	case ir.OpEq:
		return c == 0
	case ir.OpNe:
		return c != 0
	case ir.OpLt:
		return c < 0
	case ir.OpLe:
		return c <= 0
	case ir.OpGt:
		return c > 0
	case ir.OpGe:
		return c >= 0
	}
	return false
}

func cmpFloat(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func cmpString(x, y string) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}
