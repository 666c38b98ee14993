package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSPARQL(t *testing.T) {
	q := lecturerQuery()
	q.AddFilter(Compare{Var: "n", Op: OpNe, Value: Literal("FR")})

	want := `SELECT ?p ?n
WHERE {
  ?p <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://example.org/Lecturer> .  # t0
  ?p <http://example.org/nationality> ?n .  # t1
  ?p <http://example.org/teacherOf> "SW" .  # t2
  ?p <http://example.org/age> "46"^^<http://www.w3.org/2001/XMLSchema#integer> .  # t3
  FILTER(?n != "FR")
}`
	assert.Equal(t, want, q.SPARQL())
}

func TestRenderLimitAndDistinct(t *testing.T) {
	q := NewQuery(NewCondition("t0", Var("s"), IRI(ex+"p"), Var("o")))

	got := Render(q, RenderOptions{Distinct: true, Limit: 5})
	assert.Equal(t, "SELECT DISTINCT *\nWHERE {\n  ?s <http://example.org/p> ?o .\n}\nLIMIT 5", got)
}

func TestRenderCount(t *testing.T) {
	q := NewQuery(NewCondition("t0", Var("s"), IRI(ex+"p"), Var("o")))
	q.SetSelect("s")

	got := Render(q, RenderOptions{CountAs: "n", Limit: 2})
	want := `SELECT (COUNT(*) AS ?n)
WHERE {
  SELECT DISTINCT ?s
  WHERE {
    ?s <http://example.org/p> ?o .
  }
  LIMIT 2
}`
	assert.Equal(t, want, got)
}
