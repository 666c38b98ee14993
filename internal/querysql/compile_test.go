package querysql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qrelax/internal/ir"
)

const ex = "http://example.org/"

func testQuery() *ir.Query {
	q := ir.NewQuery(
		ir.NewCondition("t0", ir.Var("p"), ir.IRI(ir.RDFType), ir.IRI(ex+"Lecturer")),
		ir.NewCondition("t1", ir.Var("p"), ir.IRI(ex+"nationality"), ir.Var("n")),
	)
	q.SetSelect("p", "n")
	return q
}

func TestSelect_Structure(t *testing.T) {
	st, err := NewSQLCompiler().Select(testQuery(), 0)
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT DISTINCT v0.kind, v0.value, v0.datatype, v0.lang, v1.kind, v1.value, v1.datatype, v1.lang"+
			" FROM triples c0, triples c1, terms v0, terms v1"+
			" WHERE c0.p = (SELECT id FROM terms WHERE kind = ? AND value = ? AND datatype = ? AND lang = ?)"+
			" AND c0.o = (SELECT id FROM terms WHERE kind = ? AND value = ? AND datatype = ? AND lang = ?)"+
			" AND c1.s = c0.s"+
			" AND c1.p = (SELECT id FROM terms WHERE kind = ? AND value = ? AND datatype = ? AND lang = ?)"+
			" AND v0.id = c0.s AND v1.id = c1.o"+
			" ORDER BY c0.s ASC, c1.o ASC",
		st.SQL)
	assert.Equal(t, []string{"p", "n"}, st.Columns)
	assert.Empty(t, st.Unbound)
	assert.Equal(t, []any{
		int(ir.KindIRI), ir.RDFType, "", "",
		int(ir.KindIRI), ex + "Lecturer", "", "",
		int(ir.KindIRI), ex + "nationality", "", "",
	}, st.Params)
}

func TestSelect_ParameterizedNeverInterpolated(t *testing.T) {
	q := ir.NewQuery(ir.NewCondition("t0", ir.Var("p"), ir.IRI(ex+"teacherOf"), ir.Literal("'; DROP TABLE triples; --")))

	st, err := NewSQLCompiler().Select(q, 10)
	require.NoError(t, err)

	assert.NotContains(t, st.SQL, "DROP")
	assert.True(t, strings.HasSuffix(st.SQL, " LIMIT ?"))
	assert.Equal(t, 10, st.Params[len(st.Params)-1])
}

func TestSelect_OrderByMandatory(t *testing.T) {
	queries := []*ir.Query{
		testQuery(),
		ir.NewQuery(ir.NewCondition("t0", ir.IRI(ex+"s1"), ir.IRI(ex+"age"), ir.Integer(45))),
		ir.NewQuery(),
	}
	for _, q := range queries {
		st, err := NewSQLCompiler().Select(q, 0)
		require.NoError(t, err)
		assert.Contains(t, st.SQL, " ORDER BY ")
	}
}

func TestSelect_UnboundProjection(t *testing.T) {
	q := testQuery()
	xss := q.Minus(ir.NewQuery(q.Conditions()[1]))

	st, err := NewSQLCompiler().Select(xss, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"p"}, st.Columns)
	assert.Equal(t, []string{"n"}, st.Unbound)
}

func TestSelect_Deterministic(t *testing.T) {
	c := NewSQLCompiler()
	a, err := c.Select(testQuery(), 3)
	require.NoError(t, err)
	b, err := c.Select(testQuery(), 3)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCount(t *testing.T) {
	st, err := NewSQLCompiler().Count(testQuery(), 2)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(st.SQL, "SELECT COUNT(*) FROM (SELECT DISTINCT c0.s, c1.o FROM triples c0, triples c1 WHERE "))
	assert.True(t, strings.HasSuffix(st.SQL, " LIMIT ?)"))
	assert.Equal(t, 2, st.Params[len(st.Params)-1])
	assert.NotContains(t, st.SQL, "terms v0", "counting needs no value join")
}

func TestFilters(t *testing.T) {
	tests := []struct {
		name     string
		filter   ir.Filter
		contains string
		params   []any
	}{
		{
			name:     "numeric compare",
			filter:   ir.Compare{Var: "n", Op: ir.OpGt, Value: ir.Integer(45)},
			contains: "(v0.datatype IN (?, ?, ?) AND CAST(v0.value AS REAL) > ?)",
			params:   []any{ir.XSDInteger, ir.XSDDecimal, ir.XSDDouble, float64(45)},
		},
		{
			name:     "equality by id",
			filter:   ir.Compare{Var: "n", Op: ir.OpEq, Value: ir.Literal("US")},
			contains: "c1.o = (SELECT id FROM terms",
			params:   []any{int(ir.KindLiteral), "US", "", ""},
		},
		{
			name:     "inequality tolerates missing terms",
			filter:   ir.Compare{Var: "n", Op: ir.OpNe, Value: ir.Literal("US")},
			contains: "c1.o IS NOT (SELECT id FROM terms",
			params:   []any{int(ir.KindLiteral), "US", "", ""},
		},
		{
			name:     "lexical ordering",
			filter:   ir.Compare{Var: "n", Op: ir.OpLt, Value: ir.Literal("M")},
			contains: "(v0.kind = ? AND v0.value < ?)",
			params:   []any{int(ir.KindLiteral), "M"},
		},
		{
			name:     "variable equality",
			filter:   ir.VarCompare{Left: "p", Op: ir.OpNe, Right: "n"},
			contains: "c0.s != c1.o",
		},
		{
			name:     "unbound variable is unsatisfiable",
			filter:   ir.Compare{Var: "age", Op: ir.OpEq, Value: ir.Integer(46)},
			contains: "0 = 1",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			q := testQuery()
			q.SetSelect()
			q.AddFilter(tt.filter)

			st, err := NewSQLCompiler().Count(q, 0)
			require.NoError(t, err)
			assert.Contains(t, st.SQL, tt.contains)
			if tt.params != nil {
				assert.Equal(t, tt.params, st.Params[12:])
			}
		})
	}
}

func TestFilters_VarOrdering(t *testing.T) {
	q := testQuery()
	q.AddFilter(ir.VarCompare{Left: "p", Op: ir.OpLe, Right: "n"})

	st, err := NewSQLCompiler().Count(q, 0)
	require.NoError(t, err)
	assert.Contains(t, st.SQL, "CAST(v0.value AS REAL) <= CAST(v1.value AS REAL)")
	assert.Contains(t, st.SQL, "v0.value <= v1.value")
	assert.Len(t, st.Params, 12+12)
}

func TestFilters_BadNumericLiteral(t *testing.T) {
	q := testQuery()
	q.AddFilter(ir.Compare{Var: "n", Op: ir.OpGt, Value: ir.TypedLiteral("forty", ir.XSDInteger)})

	_, err := NewSQLCompiler().Select(q, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compile filter 0")
}

func TestNilQuery(t *testing.T) {
	_, err := NewSQLCompiler().Select(nil, 0)
	require.Error(t, err)
}
