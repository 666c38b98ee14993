package ir

import (
	"fmt"
	"strings"
)

// Role is the position of a term inside a condition.
type Role int

const (
	RoleSubject Role = iota
	RolePredicate
	RoleObject
)

// Roles lists the three positions in triple order.
var Roles = [3]Role{RoleSubject, RolePredicate, RoleObject}

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleSubject:
		return "subject"
	case RolePredicate:
		return "predicate"
	case RoleObject:
		return "object"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Short returns the one-letter role code used in minted variable names.
func (r Role) Short() string {
	switch r {
	case RoleSubject:
		return "s"
	case RolePredicate:
		return "p"
	default:
		return "o"
	}
}

// Triple is a ground or pattern triple without tracing metadata.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// Condition is a triple pattern inside a conjunctive query.
//
// Label is the display label used for tracing ("t3", "t3(2)").
// Origin is the label of the root condition of the relaxation lineage and
// is what the similarity estimator pairs conditions by.
//
// Equality and set membership are defined on the term triple only.
type Condition struct {
	Subject   Term
	Predicate Term
	Object    Term
	Label     string
	Origin    string
}

// NewCondition creates a root condition. Origin equals label.
func NewCondition(label string, s, p, o Term) Condition {
	return Condition{Subject: s, Predicate: p, Object: o, Label: label, Origin: label}
}

// LabelFor returns the conventional label of the i-th condition of a query.
func LabelFor(i int) string {
	return fmt.Sprintf("t%d", i)
}

// Derive creates a relaxed condition from c. The label records the
// alternative number, the origin is inherited.
func (c Condition) Derive(n int, s, p, o Term) Condition {
	origin := c.Origin
	if origin == "" {
		origin = c.Label
	}
	return Condition{
		Subject:   s,
		Predicate: p,
		Object:    o,
		Label:     fmt.Sprintf("%s(%d)", c.Label, n),
		Origin:    origin,
	}
}

// Term returns the term at the given role.
func (c Condition) Term(r Role) Term {
	switch r {
	case RoleSubject:
		return c.Subject
	case RolePredicate:
		return c.Predicate
	default:
		return c.Object
	}
}

// Terms returns the triple as an array in role order.
func (c Condition) Terms() [3]Term {
	return [3]Term{c.Subject, c.Predicate, c.Object}
}

// Triple drops the tracing metadata.
func (c Condition) Triple() Triple {
	return Triple{Subject: c.Subject, Predicate: c.Predicate, Object: c.Object}
}

// Key identifies the condition by its term triple.
func (c Condition) Key() string {
	return c.Subject.key() + "\x1f" + c.Predicate.key() + "\x1f" + c.Object.key()
}

// SameAs reports term-triple equality, ignoring labels.
func (c Condition) SameAs(o Condition) bool {
	return c.Subject == o.Subject && c.Predicate == o.Predicate && c.Object == o.Object
}

// Variables returns the variable names mentioned by the condition in role order.
func (c Condition) Variables() []string {
	var vars []string
	for _, t := range c.Terms() {
		if t.IsVariable() && !containsString(vars, t.Value) {
			vars = append(vars, t.Value)
		}
	}
	return vars
}

// Pattern renders the condition as a SPARQL triple pattern.
func (c Condition) Pattern() string {
	return c.Subject.String() + " " + c.Predicate.String() + " " + c.Object.String() + " ."
}

// String renders the pattern with its label.
func (c Condition) String() string {
	var b strings.Builder
	b.WriteString(c.Pattern())
	if c.Label != "" {
		b.WriteString("  # ")
		b.WriteString(c.Label)
	}
	return b.String()
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
