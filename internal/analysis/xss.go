package analysis

import (
	"github.com/roach88/qrelax/internal/ir"
)

// Combinations returns the Cartesian product of the condition lists of qs.
// Each combination picks one condition per query and is returned as a
// condition set. Combinations that merge into the same set are kept once,
// in first-seen order.
//
// No input queries yields a single empty combination. An input query with
// no conditions yields none.
func Combinations(qs []*ir.Query) []*ir.Query {
	combos := []*ir.Query{ir.NewQuery()}
	for _, q := range qs {
		conds := q.Conditions()
		seen := make(map[string]struct{}, len(combos)*len(conds))
		next := make([]*ir.Query, 0, len(combos)*len(conds))
		for _, prefix := range combos {
			for _, c := range conds {
				merged := prefix.Clone()
				merged.Add(c)
				key := merged.Key()
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				next = append(next, merged)
			}
		}
		combos = next
	}
	return combos
}

// ComputeXSS returns the maximal succeeding subqueries of q given its
// minimal failing subqueries.
//
// Every combination of one condition per MFS is subtracted from q. A
// remainder contained in an accepted one is discarded; accepted remainders
// contained in a new one are evicted. The result is pairwise incomparable
// under the subquery order. With no MFS the result is q itself.
//
// Results keep q's output variables and filters.
func ComputeXSS(q *ir.Query, mfs []*ir.Query) []*ir.Query {
	var accepted []*ir.Query
	for _, combo := range Combinations(mfs) {
		accepted = addMaximal(accepted, q.Minus(combo))
	}
	return accepted
}

func addMaximal(list []*ir.Query, cand *ir.Query) []*ir.Query {
	for _, a := range list {
		if cand.IsSubqueryOf(a) {
			return list
		}
	}
	kept := list[:0]
	for _, a := range list {
		if !a.IsSubqueryOf(cand) {
			kept = append(kept, a)
		}
	}
	return append(kept, cand)
}
