package testutil

import "github.com/roach88/qrelax/internal/ir"

// EX is the namespace of the lecturer fixture.
const EX = "http://example.org/"

// LecturerTriples returns the small staff graph used across tests:
//
//	s1: Lecturer, teaches "SW", age 45
//	s2: Lecturer, nationality "US", age 46
//	s3: FullProfessor, teaches "DB", age 46
//	FullProfessor rdfs:subClassOf Lecturer
//
// No lecturer teaching "SW" is 46, and nobody with a nationality teaches "SW".
func LecturerTriples() []ir.Triple {
	typ := ir.IRI(ir.RDFType)
	return []ir.Triple{
		{Subject: ir.IRI(EX + "s1"), Predicate: typ, Object: ir.IRI(EX + "Lecturer")},
		{Subject: ir.IRI(EX + "s1"), Predicate: ir.IRI(EX + "teacherOf"), Object: ir.Literal("SW")},
		{Subject: ir.IRI(EX + "s1"), Predicate: ir.IRI(EX + "age"), Object: ir.Integer(45)},

		{Subject: ir.IRI(EX + "s2"), Predicate: typ, Object: ir.IRI(EX + "Lecturer")},
		{Subject: ir.IRI(EX + "s2"), Predicate: ir.IRI(EX + "nationality"), Object: ir.Literal("US")},
		{Subject: ir.IRI(EX + "s2"), Predicate: ir.IRI(EX + "age"), Object: ir.Integer(46)},

		{Subject: ir.IRI(EX + "s3"), Predicate: typ, Object: ir.IRI(EX + "FullProfessor")},
		{Subject: ir.IRI(EX + "s3"), Predicate: ir.IRI(EX + "teacherOf"), Object: ir.Literal("DB")},
		{Subject: ir.IRI(EX + "s3"), Predicate: ir.IRI(EX + "age"), Object: ir.Integer(46)},

		{Subject: ir.IRI(EX + "FullProfessor"), Predicate: ir.IRI(ir.RDFSSubClassOf), Object: ir.IRI(EX + "Lecturer")},
	}
}

// LecturerQuery returns the four-condition failing query over the fixture:
//
//	t0: ?p a Lecturer
//	t1: ?p nationality ?n
//	t2: ?p teacherOf "SW"
//	t3: ?p age 46
//
// Its failing subqueries are {t1, t2} and {t2, t3}.
func LecturerQuery() *ir.Query {
	q := ir.NewQuery(
		ir.NewCondition("t0", ir.Var("p"), ir.IRI(ir.RDFType), ir.IRI(EX+"Lecturer")),
		ir.NewCondition("t1", ir.Var("p"), ir.IRI(EX+"nationality"), ir.Var("n")),
		ir.NewCondition("t2", ir.Var("p"), ir.IRI(EX+"teacherOf"), ir.Literal("SW")),
		ir.NewCondition("t3", ir.Var("p"), ir.IRI(EX+"age"), ir.Integer(46)),
	)
	q.SetSelect("p", "n")
	return q
}

// Subquery returns the conditions of q with the given labels, keeping q's
// output variables and filters.
func Subquery(q *ir.Query, labels ...string) *ir.Query {
	var conds []ir.Condition
	for _, c := range q.Conditions() {
		for _, l := range labels {
			if c.Label == l {
				conds = append(conds, c)
			}
		}
	}
	return q.WithConditions(conds)
}
