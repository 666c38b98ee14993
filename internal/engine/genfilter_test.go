package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qrelax/internal/ir"
	"github.com/roach88/qrelax/internal/testutil"
)

// Over the lecturer graph, with base {?p a Lecturer}:
//
//	a: ?p nationality ?n   (s2)
//	b: ?p teacherOf ?c     (s1)
//	c: ?p age ?x           (s1, s2)
//
// every singleton and the pairs {a,c} and {b,c} succeed with the base,
// but {a,b} does not.
func genFilterFixture() (base *ir.Query, a, b, c ir.Condition) {
	base = ir.NewQuery(ir.NewCondition("t0", ir.Var("p"), ir.IRI(ir.RDFType), ir.IRI(ex+"Lecturer")))
	a = ir.NewCondition("t1", ir.Var("p"), ir.IRI(ex+"nationality"), ir.Var("n"))
	b = ir.NewCondition("t2", ir.Var("p"), ir.IRI(ex+"teacherOf"), ir.Var("c"))
	c = ir.NewCondition("t3", ir.Var("p"), ir.IRI(ex+"age"), ir.Var("x"))
	return base, a, b, c
}

func newCandidate(remainder, base *ir.Query) *candidate {
	merged := ir.Union(remainder, base)
	return &candidate{remainder: remainder, base: base, merged: merged, key: merged.Key()}
}

func newTestSearch(t *testing.T, strategy Strategy) *search {
	t.Helper()
	e := newTestEngine(lecturerSource(), WithStrategy(strategy))
	s, err := e.newSession(strategy)
	require.NoError(t, err)
	return newSearch(e, s, testutil.LecturerQuery(), 1)
}

func TestGenFilter_MemoizedPairPrunesWithoutRoundTrip(t *testing.T) {
	st := newTestSearch(t, StrategySmart)
	ctx := context.Background()
	base, a, b, c := genFilterFixture()

	failed := newCandidate(ir.NewQuery(a, b, c), base)
	before := st.s.metered.RoundTrips()
	st.genFilter(ctx, failed)

	// Three singletons and three pairs, one count each.
	assert.Equal(t, int64(6), st.s.metered.RoundTrips()-before)
	assert.Equal(t, 2, st.memo.Len(), "the candidate and {a,b} with the base")
	assert.True(t, st.memo.Covers(ir.Union(ir.NewQuery(a, b), base)))
	assert.False(t, st.memo.Covers(ir.Union(ir.NewQuery(a, c), base)))

	// A later candidate containing {a,b} and a different third condition.
	wider := ir.NewCondition("t3", ir.Var("p"), ir.Erased("_t3_p"), ir.Var("x"))
	later := newCandidate(ir.NewQuery(a, b, wider), base)
	st.queue.Push(later)

	before = st.s.metered.RoundTrips()
	require.NoError(t, st.drain(ctx))

	assert.Equal(t, before, st.s.metered.RoundTrips(), "pruned without a probe")
	assert.Equal(t, int64(1), st.report.Counters.Pruned)
	assert.Equal(t, int64(0), st.report.Counters.Evaluated)
	assert.Equal(t, 1, st.retry.Len())
}

func TestGenFilter_CandidateWithoutMemoizedCombinationIsProbed(t *testing.T) {
	st := newTestSearch(t, StrategySmart)
	ctx := context.Background()
	base, a, b, c := genFilterFixture()
	st.genFilter(ctx, newCandidate(ir.NewQuery(a, b, c), base))

	looserB := ir.NewCondition("t2", ir.Var("p"), ir.Erased("_t2_p"), ir.Var("c"))
	st.queue.Push(newCandidate(ir.NewQuery(a, looserB, c), base))

	before := st.s.metered.RoundTrips()
	require.NoError(t, st.drain(ctx))

	assert.Equal(t, before+1, st.s.metered.RoundTrips())
	assert.Equal(t, int64(0), st.report.Counters.Pruned)
	assert.True(t, st.done())
	assert.Equal(t, ir.IRI(ex+"s2"), st.results[0]["p"])
}

func TestGenFilter_TestsEachCombinationOnce(t *testing.T) {
	st := newTestSearch(t, StrategySmart)
	ctx := context.Background()
	base, a, b, c := genFilterFixture()

	st.genFilter(ctx, newCandidate(ir.NewQuery(a, b, c), base))
	before := st.s.metered.RoundTrips()

	// Shares {a}, {c} and {a,c} with the first candidate.
	wider := ir.NewCondition("t2", ir.Var("p"), ir.IRI(ex+"teacherOf"), ir.Erased("_t2_o"))
	st.genFilter(ctx, newCandidate(ir.NewQuery(a, wider, c), base))

	// Only {wider}, {a,wider} and {wider,c} are counted.
	assert.Equal(t, int64(3), st.s.metered.RoundTrips()-before)
}

func TestGenFilter_SingleConditionRemainder(t *testing.T) {
	st := newTestSearch(t, StrategySmart)
	base, a, _, _ := genFilterFixture()

	before := st.s.metered.RoundTrips()
	st.genFilter(context.Background(), newCandidate(ir.NewQuery(a), base))

	assert.Equal(t, before, st.s.metered.RoundTrips())
	assert.Equal(t, 1, st.memo.Len())
}

func TestDrain_NaiveNeverPrunes(t *testing.T) {
	st := newTestSearch(t, StrategyNaive)
	base, a, b, c := genFilterFixture()
	st.memo.Add(ir.Union(ir.NewQuery(a, b), base))

	st.queue.Push(newCandidate(ir.NewQuery(a, b, c), base))
	require.NoError(t, st.drain(context.Background()))

	assert.Equal(t, int64(0), st.report.Counters.Pruned)
	assert.Equal(t, int64(1), st.report.Counters.Evaluated)
	assert.Equal(t, 1, st.retry.Len())
}

func TestSelfCombinations(t *testing.T) {
	_, a, b, c := genFilterFixture()
	conds := []ir.Condition{a, b, c}

	singles := selfCombinations(conds, false)
	require.Len(t, singles, 3)
	for i, q := range singles {
		assert.Equal(t, []string{conds[i].Label}, q.Labels())
	}

	all := selfCombinations(conds, true)
	require.Len(t, all, 6)
	assert.Equal(t, []string{"t1", "t2"}, all[3].Labels())
	assert.Equal(t, []string{"t1", "t3"}, all[4].Labels())
	assert.Equal(t, []string{"t2", "t3"}, all[5].Labels())
}
