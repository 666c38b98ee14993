package relax

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qrelax/internal/ir"
	"github.com/roach88/qrelax/internal/similarity"
	"github.com/roach88/qrelax/internal/testutil"
)

const ex = testutil.EX

func newLecturerRelaxer(opts ...Option) *Relaxer {
	return New(testutil.NewMemorySource(testutil.LecturerTriples()), opts...)
}

// failingOntology errors on every lookup.
type failingOntology struct{}

func (failingOntology) BroaderClasses(context.Context, ir.Term) ([]ir.Term, error) {
	return nil, errors.New("ontology unavailable")
}

func (failingOntology) BroaderProperties(context.Context, ir.Term) ([]ir.Term, error) {
	return nil, errors.New("ontology unavailable")
}

// flatScorer scores broader terms above the original to check ordering.
type flatScorer map[string]float64

func (s flatScorer) Term(_ context.Context, orig, relaxed ir.Term, _ ir.Role) float64 {
	if orig.Equal(relaxed) {
		return 1
	}
	return s[relaxed.String()]
}

func TestNamespace_Erased(t *testing.T) {
	ns := NewNamespace("")
	assert.Equal(t, ir.Erased("_t3_o"), ns.Erased("t3", ir.RoleObject))
	assert.Equal(t, ir.Erased("_t0_p"), ns.Erased("t0", ir.RolePredicate))
	assert.Equal(t, ir.Erased("r1t0_s"), NewNamespace("r1").Erased("t0", ir.RoleSubject))
}

func TestRelaxCondition_ClassHierarchy(t *testing.T) {
	r := newLecturerRelaxer()
	c := ir.NewCondition("t0", ir.Var("p"), ir.IRI(ir.RDFType), ir.IRI(ex+"FullProfessor"))

	alts, err := r.RelaxCondition(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, alts, 6)

	assert.Equal(t, c, alts[0].Condition, "identity first, unchanged")
	assert.True(t, alts[0].Identity())
	assert.Equal(t, 1.0, alts[0].Similarity)

	type row struct {
		label  string
		levels [3]int
		object ir.Term
	}
	var got []row
	for _, a := range alts[1:] {
		got = append(got, row{a.Condition.Label, a.Levels, a.Condition.Object})
		assert.Equal(t, "t0", a.Condition.Origin)
	}
	assert.Equal(t, []row{
		{"t0(1)", [3]int{0, 0, LevelBroader}, ir.IRI(ex + "Lecturer")},
		{"t0(2)", [3]int{0, 0, LevelErased}, ir.Erased("_t0_o")},
		{"t0(3)", [3]int{0, LevelErased, 0}, ir.IRI(ex + "FullProfessor")},
		{"t0(4)", [3]int{0, LevelErased, LevelBroader}, ir.IRI(ex + "Lecturer")},
		{"t0(5)", [3]int{0, LevelErased, LevelErased}, ir.Erased("_t0_o")},
	}, got)

	for i := 1; i < len(alts); i++ {
		assert.GreaterOrEqual(t, alts[i-1].Similarity, alts[i].Similarity)
	}
}

func TestRelaxCondition_LiteralAndVariables(t *testing.T) {
	r := newLecturerRelaxer()

	tests := []struct {
		name string
		cond ir.Condition
		want int
	}{
		{"literal object", ir.NewCondition("t2", ir.Var("p"), ir.IRI(ex+"teacherOf"), ir.Literal("SW")), 4},
		{"all variables", ir.NewCondition("t9", ir.Var("s"), ir.Var("p"), ir.Var("o")), 1},
		{"already erased", ir.NewCondition("t9", ir.Var("s"), ir.Erased("_t9_p"), ir.Erased("_t9_o")), 1},
		{"constant subject", ir.NewCondition("t1", ir.IRI(ex+"s2"), ir.IRI(ex+"nationality"), ir.Var("n")), 4},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			alts, err := r.RelaxCondition(context.Background(), tt.cond)
			require.NoError(t, err)
			assert.Len(t, alts, tt.want)
			assert.Equal(t, tt.cond, alts[0].Condition)
		})
	}
}

func TestRelaxCondition_NoPlaceholderByDefault(t *testing.T) {
	c := ir.NewCondition("t0", ir.Var("p"), ir.IRI(ir.RDFType), ir.IRI(ex+"Professor"))

	alts, err := New(nil).RelaxCondition(context.Background(), c)
	require.NoError(t, err)
	for _, a := range alts {
		assert.NotEqual(t, LevelBroader, a.Levels[ir.RoleObject])
	}

	alts, err = New(nil, WithPlaceholderBroader()).RelaxCondition(context.Background(), c)
	require.NoError(t, err)
	var broader []ir.Term
	for _, a := range alts {
		if a.Levels[ir.RoleObject] == LevelBroader {
			broader = append(broader, a.Condition.Object)
		}
	}
	assert.Contains(t, broader, ir.IRI(ex+"SuperProfessor"))
}

func TestRelaxCondition_OntologyErrorKeepsErasure(t *testing.T) {
	r := New(failingOntology{})
	c := ir.NewCondition("t0", ir.Var("p"), ir.IRI(ir.RDFType), ir.IRI(ex+"FullProfessor"))

	alts, err := r.RelaxCondition(context.Background(), c)
	require.NoError(t, err)
	assert.Len(t, alts, 4)
}

func TestRelaxCondition_ScorerOrdering(t *testing.T) {
	scorer := flatScorer{
		"<" + ex + "Lecturer>": 0.2,
		"?_t0_o":               0.5,
		"?_t0_p":               0.1,
	}
	r := newLecturerRelaxer(WithScorer(scorer))
	c := ir.NewCondition("t0", ir.Var("p"), ir.IRI(ir.RDFType), ir.IRI(ex+"FullProfessor"))

	alts, err := r.RelaxCondition(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, alts, 6)
	assert.Equal(t, ir.Erased("_t0_o"), alts[1].Condition.Object)
	assert.InDelta(t, 2.5/3, alts[1].Similarity, 1e-9)
	assert.Equal(t, ir.IRI(ex+"Lecturer"), alts[2].Condition.Object)
}

func TestRelaxCondition_EstimatorScores(t *testing.T) {
	src := testutil.NewMemorySource(testutil.LecturerTriples())
	est, err := similarity.New(src)
	require.NoError(t, err)
	r := New(src, WithScorer(est))
	c := ir.NewCondition("t0", ir.Var("p"), ir.IRI(ir.RDFType), ir.IRI(ex+"FullProfessor"))

	alts, err := r.RelaxCondition(context.Background(), c)
	require.NoError(t, err)
	for _, a := range alts {
		assert.InDelta(t, est.Condition(context.Background(), c, a.Condition), a.Similarity, 1e-9)
	}
}

func TestRelaxCondition_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newLecturerRelaxer().RelaxCondition(ctx, testutil.LecturerQuery().Conditions()[0])
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCombinations_IdentityFirst(t *testing.T) {
	r := newLecturerRelaxer()
	q := testutil.Subquery(testutil.LecturerQuery(), "t2", "t3")

	all, err := r.Combinations(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, all, 16)
	assert.True(t, all[0].Equal(q))
	assert.Equal(t, q.Labels(), all[0].Labels())
	for _, c := range all {
		assert.Equal(t, q.Select(), c.Select())
	}
}

func TestRelaxQuery_ExcludesIdentity(t *testing.T) {
	r := newLecturerRelaxer()
	q := testutil.Subquery(testutil.LecturerQuery(), "t2", "t3")

	relaxed, err := r.RelaxQuery(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, relaxed, 15)

	seen := make(map[string]bool)
	for _, rq := range relaxed {
		assert.False(t, rq.Equal(q), "%s is the identity", rq)
		assert.Equal(t, 2, rq.Len())
		assert.False(t, seen[rq.Key()], "duplicate %s", rq)
		seen[rq.Key()] = true
	}
}

func TestRelaxQuery_EmptyAndVariableOnly(t *testing.T) {
	r := newLecturerRelaxer()

	relaxed, err := r.RelaxQuery(context.Background(), ir.NewQuery())
	require.NoError(t, err)
	assert.Empty(t, relaxed)

	relaxed, err = r.RelaxQuery(context.Background(),
		ir.NewQuery(ir.NewCondition("t0", ir.Var("s"), ir.Var("p"), ir.Var("o"))))
	require.NoError(t, err)
	assert.Empty(t, relaxed)
}

func TestRelaxQuery_ConcurrentRunsAgree(t *testing.T) {
	r := newLecturerRelaxer()
	q := testutil.LecturerQuery()

	want, err := r.RelaxQuery(context.Background(), q)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]*ir.Query, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = r.RelaxQuery(context.Background(), q)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		require.Len(t, got, len(want))
		for j := range want {
			assert.Equal(t, want[j].Key(), got[j].Key())
		}
	}
}
