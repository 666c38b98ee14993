package analysis

import (
	"context"
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/roach88/qrelax/internal/ir"
)

// Predicate reports whether q, evaluated alone, fails the success goal.
//
// datasource.FailurePredicate builds one from a data source. Data source
// errors must be reported as failing.
type Predicate func(ctx context.Context, q *ir.Query) bool

// FindAllFailingCauses returns every minimal failing subquery of q.
//
// A query that does not fail has no causes and yields an empty slice. A
// single failing condition is its own cause. Otherwise each condition is
// removed in turn and the reduced query searched recursively; when no
// reduction fails, q itself is minimal.
//
// The search is exponential in the number of conditions. Verdicts are
// remembered per condition set, so each distinct subquery reaches the
// predicate at most once.
func FindAllFailingCauses(ctx context.Context, q *ir.Query, failing Predicate) ([]*ir.Query, error) {
	if q == nil || q.Len() == 0 {
		return nil, errors.WithHint(ir.ErrEmptyQuery, "a failing cause needs at least one condition")
	}
	if failing == nil {
		return nil, errors.AssertionFailedf("nil failure predicate")
	}
	s := &search{failing: failing, verdicts: make(map[string]bool)}
	return s.causes(ctx, q.Clone())
}

type search struct {
	failing  Predicate
	verdicts map[string]bool
}

func (s *search) fails(ctx context.Context, q *ir.Query) bool {
	key := q.Key()
	if v, ok := s.verdicts[key]; ok {
		return v
	}
	v := s.failing(ctx, q)
	s.verdicts[key] = v
	return v
}

func (s *search) causes(ctx context.Context, q *ir.Query) ([]*ir.Query, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.fails(ctx, q) {
		return []*ir.Query{}, nil
	}
	if q.Len() == 1 {
		return []*ir.Query{q.Clone()}, nil
	}

	var found []*ir.Query
	conds := q.Conditions()
	for i := range conds {
		// Each condition is dropped on its own, not cumulatively.
		reduced := q.WithConditions(slices.Delete(slices.Clone(conds), i, i+1))
		sub, err := s.causes(ctx, reduced)
		if err != nil {
			return nil, err
		}
		for _, m := range sub {
			found = addMinimal(found, m)
		}
	}
	if len(found) == 0 {
		return []*ir.Query{q.Clone()}, nil
	}
	return found, nil
}

// addMinimal appends m unless an existing cause is a subquery of it.
func addMinimal(list []*ir.Query, m *ir.Query) []*ir.Query {
	for _, existing := range list {
		if existing.IsSubqueryOf(m) {
			return list
		}
	}
	return append(list, m)
}
