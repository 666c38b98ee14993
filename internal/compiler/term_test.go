package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qrelax/internal/ir"
)

const ex = "http://example.org/"

func testPrefixes() Prefixes {
	return DefaultPrefixes().With(map[string]string{"ex": ex})
}

func TestParseTerm(t *testing.T) {
	tests := []struct {
		in   string
		want ir.Term
	}{
		{"?p", ir.Var("p")},
		{"$p", ir.Var("p")},
		{"a", ir.IRI(ir.RDFType)},
		{"<http://example.org/s1>", ir.IRI(ex + "s1")},
		{"ex:Lecturer", ir.IRI(ex + "Lecturer")},
		{"rdfs:subClassOf", ir.IRI(ir.RDFSSubClassOf)},
		{`"SW"`, ir.Literal("SW")},
		{`"a \"quoted\" word"`, ir.Literal(`a "quoted" word`)},
		{`"46"^^xsd:integer`, ir.Integer(46)},
		{`"46"^^<http://www.w3.org/2001/XMLSchema#integer>`, ir.Integer(46)},
		{`"x"^^xsd:string`, ir.Literal("x")},
		{`"chat"@FR`, ir.LangLiteral("chat", "fr")},
		{"46", ir.Integer(46)},
		{"-3", ir.Integer(-3)},
		{"4.5", ir.TypedLiteral("4.5", ir.XSDDecimal)},
		{"true", ir.TypedLiteral("true", ir.XSDBoolean)},
		{"_:b0", ir.Blank("b0")},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTerm(tt.in, testPrefixes())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTerm_Errors(t *testing.T) {
	tests := []struct {
		in      string
		wantErr string
	}{
		{"", "empty term"},
		{"?", "variable without a name"},
		{"<http://x", "unterminated IRI"},
		{"_:", "blank node without a label"},
		{`"open`, "unterminated literal"},
		{`"x"@`, "unexpected suffix"},
		{`"x"^^?d`, "must be an IRI"},
		{`"x"^^zz:int`, "unknown prefix"},
		{"foaf:name", `unknown prefix "foaf"`},
		{"Lecturer", "unrecognized term"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			_, err := ParseTerm(tt.in, testPrefixes())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParsePattern(t *testing.T) {
	got, err := ParsePattern(`?p   ex:teacherOf "Semantic Web" .`, testPrefixes())
	require.NoError(t, err)
	assert.Equal(t, [3]ir.Term{ir.Var("p"), ir.IRI(ex + "teacherOf"), ir.Literal("Semantic Web")}, got)

	_, err = ParsePattern("?p ex:age", testPrefixes())
	assert.ErrorContains(t, err, "want 3 terms, got 2")

	_, err = ParsePattern("?p ex:age 46 47", testPrefixes())
	assert.ErrorContains(t, err, "want 3 terms, got 4")

	_, err = ParsePattern("?p bad:age 46", testPrefixes())
	assert.ErrorContains(t, err, "predicate")
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("?age > 45", testPrefixes())
	require.NoError(t, err)
	assert.Equal(t, ir.Compare{Var: "age", Op: ir.OpGt, Value: ir.Integer(45)}, f)

	f, err = ParseFilter(`?a != ?b && ?name == "x"`, testPrefixes())
	require.NoError(t, err)
	assert.Equal(t, ir.And{Filters: []ir.Filter{
		ir.VarCompare{Left: "a", Op: ir.OpNe, Right: "b"},
		ir.Compare{Var: "name", Op: ir.OpEq, Value: ir.Literal("x")},
	}}, f)
}

func TestParseFilter_Errors(t *testing.T) {
	tests := []struct {
		in      string
		wantErr string
	}{
		{"", "empty filter"},
		{"?age >", "incomplete comparison"},
		{"45 < ?age", "must be a variable"},
		{"?age ~ 45", "unknown operator"},
		{"?age > 45 ?x", "expected &&"},
		{"?age > 45 &&", "dangling &&"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			_, err := ParseFilter(tt.in, testPrefixes())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPrefixesWith(t *testing.T) {
	base := DefaultPrefixes()
	p := base.With(map[string]string{"ex": ex, "xsd": "urn:override#"})

	assert.Equal(t, ex, p["ex"])
	assert.Equal(t, "urn:override#", p["xsd"])
	assert.Equal(t, "http://www.w3.org/2001/XMLSchema#", base["xsd"], "receiver untouched")
}
