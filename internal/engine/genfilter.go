package engine

import (
	"context"

	"github.com/roach88/qrelax/internal/ir"
)

// genFilter looks for small failing sub-combinations of a candidate that
// returned no rows and memoizes them.
//
// The candidate itself is memoized first since its emptiness is already
// known. Singletons and pairs of the remainder's conditions are then
// unioned with the base and each tested once per request, singletons
// first so a failing singleton drops the pairs containing it. Pairs are
// skipped for two-condition remainders, where the only pair is the
// candidate itself.
func (st *search) genFilter(ctx context.Context, c *candidate) {
	st.memo.Add(c.merged)
	st.tested[c.key] = struct{}{}

	conds := c.remainder.Conditions()
	if len(conds) < 2 {
		return
	}

	for _, combo := range selfCombinations(conds, len(conds) > 2) {
		test := ir.Union(combo, c.base)
		if st.memo.Covers(test) {
			continue
		}
		key := test.Key()
		if _, ok := st.tested[key]; ok {
			continue
		}
		st.tested[key] = struct{}{}

		n, err := st.s.source.Count(ctx, test, 1)
		if err != nil {
			// Unknown is not failing: memoizing it could prune a real answer.
			st.s.logger.Warn("genfilter probe failed",
				"labels", test.Labels(),
				"error", NewSourceError(st.s.id, "count", err))
			continue
		}
		if n == 0 {
			st.memo.Add(test)
			st.s.logger.Debug("failing combination memoized",
				"labels", combo.Labels(),
				"memo", st.memo.Len())
		}
	}
}

// selfCombinations returns the singletons of conds, then their unordered
// pairs when withPairs is set.
func selfCombinations(conds []ir.Condition, withPairs bool) []*ir.Query {
	out := make([]*ir.Query, 0, len(conds)*(len(conds)+1)/2)
	for _, c := range conds {
		out = append(out, ir.NewQuery(c))
	}
	if !withPairs {
		return out
	}
	for i := range conds {
		for j := i + 1; j < len(conds); j++ {
			out = append(out, ir.NewQuery(conds[i], conds[j]))
		}
	}
	return out
}
