package engine

import (
	"context"
	"math"
	"slices"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/qrelax/internal/datasource"
	"github.com/roach88/qrelax/internal/ir"
)

// search is the state of one repair.
//
// CRITICAL: Only the coordinating goroutine touches the queues, result
// set, memo and key sets. Expand tasks read q and the session (whose
// caches are concurrency-safe) and write only to their own slot.
type search struct {
	e     *Engine
	s     *session
	q     *ir.Query
	k     int
	smart bool

	queue  *priorityQueue
	retry  retryQueue
	queued map[string]struct{}
	tested map[string]struct{}
	memo   *failureMemo
	quota  *RoundQuota

	results datasource.ResultSet
	seen    map[string]struct{}
	report  *Report
}

func newSearch(e *Engine, s *session, q *ir.Query, k int) *search {
	return &search{
		e:       e,
		s:       s,
		q:       q,
		k:       k,
		smart:   e.strategy == StrategySmart,
		queue:   newPriorityQueue(NewClock()),
		queued:  map[string]struct{}{q.Key(): {}},
		tested:  make(map[string]struct{}),
		memo:    newFailureMemo(),
		quota:   NewRoundQuota(e.maxRounds),
		results: datasource.ResultSet{},
		seen:    make(map[string]struct{}),
		report: &Report{
			RequestID: s.id,
			Strategy:  e.strategy,
			K:         k,
			Query:     ViewOf(q),
			Accepted:  []Accepted{},
		},
	}
}

// done reports whether k results have been collected.
func (st *search) done() bool {
	return len(st.results) >= st.k
}

// probeOutcome classifies one evaluation.
type probeOutcome int

const (
	probeAccepted probeOutcome = iota + 1
	probeEmpty                 // no rows at all
	probeStale                 // rows, none new
	probeError                 // source failure, counted as no rows
)

// acceptOriginal handles a query that already succeeds.
func (st *search) acceptOriginal(ctx context.Context) {
	st.s.logger.Info("query already succeeds, returning it unchanged")
	rs, err := st.s.source.Evaluate(ctx, st.q)
	st.report.Counters.Evaluated++
	if err != nil {
		st.s.logger.Warn("evaluating original query failed",
			"error", NewSourceError(st.s.id, "evaluate", err))
	}
	added := st.addResults(rs)
	st.accept(st.q, 1, OriginOriginal, added)
}

// runBestFirst is the naive and smart strategy: seed from XSS
// complements, then Expand, Rank and Evaluate until done.
func (st *search) runBestFirst(ctx context.Context, xss []*ir.Query) error {
	pending := make([]*candidate, 0, len(xss))
	for _, x := range xss {
		pending = append(pending, &candidate{remainder: st.q.Minus(x), base: x})
	}

	for len(pending) > 0 && !st.done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := st.quota.Check(st.s.id); err != nil {
			st.s.logger.Info("stopping search",
				"error", NewRoundsError(st.s.id, st.quota.Current(), st.quota.MaxRounds()))
			break
		}

		batches, err := st.expand(ctx, pending)
		if err != nil {
			return err
		}
		st.rank(batches)
		if err := st.drain(ctx); err != nil {
			return err
		}
		pending = st.retry.Drain()
	}
	return nil
}

// expand relaxes every pending remainder concurrently and scores the
// merged candidates. Tasks start together and are joined before ranking.
func (st *search) expand(ctx context.Context, items []*candidate) ([][]*candidate, error) {
	expandBatchSize.Observe(float64(len(items)))
	slots := make([][]*candidate, len(items))

	g, gctx := errgroup.WithContext(ctx)
	if st.e.expandWorkers > 0 {
		g.SetLimit(st.e.expandWorkers)
	}
	for i, item := range items {
		i := i
		item := item
		g.Go(func() error {
			relaxed, err := st.s.relaxer.RelaxQuery(gctx, item.remainder)
			if err != nil {
				return err
			}
			out := make([]*candidate, 0, len(relaxed))
			for _, r := range relaxed {
				merged := ir.Union(r, item.base)
				out = append(out, &candidate{
					remainder:  r,
					base:       item.base,
					merged:     merged,
					key:        merged.Key(),
					similarity: st.score(gctx, merged),
				})
			}
			slots[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "expand")
	}
	return slots, nil
}

// rank pushes unseen candidates onto the priority queue in slot order.
func (st *search) rank(batches [][]*candidate) {
	for _, batch := range batches {
		for _, c := range batch {
			if _, dup := st.queued[c.key]; dup {
				continue
			}
			st.queued[c.key] = struct{}{}
			st.report.Counters.Generated++
			st.queue.Push(c)
		}
	}
}

// drain evaluates queued candidates in similarity order until k results
// are collected or the queue is empty. Failures go to the retry queue.
func (st *search) drain(ctx context.Context) error {
	for !st.done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		c := st.queue.Pop()
		if c == nil {
			return nil
		}

		if st.smart && st.memo.Covers(c.merged) {
			st.report.Counters.Pruned++
			candidatesTotal.WithLabelValues(candidatePruned).Inc()
			st.s.logger.Debug("candidate pruned by memo",
				"labels", c.merged.Labels(),
				"similarity", c.similarity)
			st.retry.Enqueue(c)
			continue
		}

		switch st.probe(ctx, c.merged, c.similarity, OriginRelaxed) {
		case probeAccepted:
		case probeEmpty:
			st.retry.Enqueue(c)
			if st.smart {
				st.genFilter(ctx, c)
			}
		default:
			st.retry.Enqueue(c)
		}
	}
	return nil
}

// probe evaluates q and records new results.
func (st *search) probe(ctx context.Context, q *ir.Query, similarity float64, origin Origin) probeOutcome {
	st.report.Counters.Evaluated++
	rs, err := st.s.source.Evaluate(ctx, q)
	if err != nil {
		candidatesTotal.WithLabelValues(candidateFailed).Inc()
		st.s.logger.Warn("candidate probe failed",
			"labels", q.Labels(),
			"error", NewSourceError(st.s.id, "evaluate", err))
		return probeError
	}

	added := st.addResults(rs)
	st.s.logger.Debug("candidate evaluated",
		"labels", q.Labels(),
		"similarity", similarity,
		"rows", len(rs),
		"new", added)
	if added > 0 {
		candidatesTotal.WithLabelValues(candidateAccepted).Inc()
		st.accept(q, similarity, origin, added)
		return probeAccepted
	}
	candidatesTotal.WithLabelValues(candidateFailed).Inc()
	if len(rs) == 0 {
		return probeEmpty
	}
	return probeStale
}

// addResults appends unseen bindings up to k and returns how many.
func (st *search) addResults(rs datasource.ResultSet) int {
	added := 0
	for _, b := range rs {
		if st.done() {
			break
		}
		key := b.Key()
		if _, ok := st.seen[key]; ok {
			continue
		}
		st.seen[key] = struct{}{}
		st.results = append(st.results, b)
		added++
	}
	return added
}

func (st *search) accept(q *ir.Query, similarity float64, origin Origin, added int) {
	st.report.Accepted = append(st.report.Accepted, Accepted{
		Query:      q,
		View:       ViewOf(q),
		Similarity: similarity,
		Origin:     origin,
		NewResults: added,
	})
	st.s.logger.Info("query accepted",
		"labels", q.Labels(),
		"similarity", similarity,
		"origin", string(origin),
		"results", len(st.results))
}

// score returns the similarity of a merged candidate to the original.
// Merging may collapse value-identical conditions; those candidates are
// scored as subqueries.
//
// Scores are rounded to similarityPrecision so that candidates with equal
// term scores tie exactly and pop in insertion order.
func (st *search) score(ctx context.Context, merged *ir.Query) float64 {
	v, err := st.s.sim.Query(ctx, st.q, merged)
	if err != nil {
		v = st.s.sim.Subquery(ctx, st.q, merged)
	}
	return roundSimilarity(v)
}

const similarityPrecision = 1e9

func roundSimilarity(v float64) float64 {
	return math.Round(v*similarityPrecision) / similarityPrecision
}

// fallback evaluates the XSS themselves, most similar first.
func (st *search) fallback(ctx context.Context, xss []*ir.Query) {
	type scored struct {
		q   *ir.Query
		sim float64
	}
	var list []scored
	for _, x := range xss {
		if x.Len() == 0 {
			continue
		}
		list = append(list, scored{q: x, sim: roundSimilarity(st.s.sim.Subquery(ctx, st.q, x))})
	}
	slices.SortStableFunc(list, func(a, b scored) int {
		switch {
		case a.sim > b.sim:
			return -1
		case a.sim < b.sim:
			return 1
		}
		return 0
	})

	for _, f := range list {
		if st.done() || ctx.Err() != nil {
			return
		}
		st.probe(ctx, f.q, f.sim, OriginFallback)
	}
}

// finish fills counters and records metrics.
func (st *search) finish(start time.Time) *Report {
	r := st.report
	r.Results = st.results
	r.Counters.RoundTrips = st.s.metered.RoundTrips()
	r.Counters.Lookups = st.s.metered.Lookups()
	r.Counters.Rounds = st.quota.Used()
	r.Outcome = OutcomeExhausted
	if st.done() {
		r.Outcome = OutcomeSatisfied
	}
	r.Duration = st.e.now().Sub(start)

	repairsTotal.WithLabelValues(r.Strategy.String(), string(r.Outcome)).Inc()
	repairDuration.WithLabelValues(r.Strategy.String()).Observe(r.Duration.Seconds())
	st.s.logger.Info("repair finished",
		"outcome", string(r.Outcome),
		"results", len(r.Results),
		"accepted", len(r.Accepted),
		"round_trips", r.Counters.RoundTrips,
		"pruned", r.Counters.Pruned,
		"duration", r.Duration)
	return r
}
