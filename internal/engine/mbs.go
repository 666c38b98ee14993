package engine

import (
	"context"

	"github.com/roach88/qrelax/internal/ir"
)

// runMBS is the MFS-based best-first strategy.
//
// The whole query is relaxed, not an XSS complement. A candidate that
// still contains an intact MFS cannot succeed, so it is marked failed and
// never evaluated, but it is still expanded: its relaxations may break
// the MFS. Each evaluated candidate uses one round of the quota.
func (st *search) runMBS(ctx context.Context, mfs []*ir.Query) error {
	root := &candidate{
		merged:     st.q,
		key:        st.q.Key(),
		similarity: 1,
		failed:     true,
	}
	st.queue.Push(root)

	for !st.done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		c := st.queue.Pop()
		if c == nil {
			return nil
		}

		switch {
		case c.failed:
			if c != root {
				st.report.Counters.Pruned++
				candidatesTotal.WithLabelValues(candidatePruned).Inc()
			}
		default:
			if err := st.quota.Check(st.s.id); err != nil {
				st.s.logger.Info("stopping search",
					"error", NewRoundsError(st.s.id, st.quota.Current(), st.quota.MaxRounds()))
				return nil
			}
			if st.probe(ctx, c.merged, c.similarity, OriginRelaxed) == probeAccepted && st.done() {
				return nil
			}
		}

		children, err := st.s.relaxer.RelaxQuery(ctx, c.merged)
		if err != nil {
			return err
		}
		expandBatchSize.Observe(1)
		for _, child := range children {
			key := child.Key()
			if _, dup := st.queued[key]; dup {
				continue
			}
			st.queued[key] = struct{}{}
			st.report.Counters.Generated++
			st.queue.Push(&candidate{
				merged:     child,
				key:        key,
				similarity: st.score(ctx, child),
				failed:     containsMFS(child, mfs),
			})
		}
	}
	return nil
}

// containsMFS reports whether some MFS survives intact in q.
func containsMFS(q *ir.Query, mfs []*ir.Query) bool {
	for _, m := range mfs {
		if m.IsSubqueryOf(q) {
			return true
		}
	}
	return false
}
