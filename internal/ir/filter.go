package ir

import (
	"fmt"
	"strings"
)

// Filter is a residual boolean predicate over query variables.
//
// This is a sealed interface - only types in this package implement it.
// The marker method prevents external implementations and lets the SQL
// compiler and SPARQL renderer switch exhaustively.
//
// Filter types:
//   - Compare: ?var <op> constant
//   - VarCompare: ?a <op> ?b
//   - And: all filters must hold
//
// Filters are carried through relaxation unchanged. The relaxation engine
// never inspects them; data sources honor them during evaluation.
type Filter interface {
	filterNode()
	String() string
}

// Op is a comparison operator.
type Op string

const (
	OpEq Op = "="
	OpNe Op = "!="
	OpLt Op = "<"
	OpLe Op = "<="
	OpGt Op = ">"
	OpGe Op = ">="
)

// Valid reports whether op is one of the supported operators.
func (op Op) Valid() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// Ordering reports whether op needs an order on its operands.
func (op Op) Ordering() bool {
	switch op {
	case OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// ParseOp parses an operator token. "==" is accepted as "=".
func ParseOp(s string) (Op, error) {
	if s == "==" {
		return OpEq, nil
	}
	op := Op(s)
	if !op.Valid() {
		return "", fmt.Errorf("unknown operator %q", s)
	}
	return op, nil
}

// Compare tests a variable against a constant.
//
// Numeric literals compare numerically, everything else compares by
// lexical value:
//
//	Compare{Var: "age", Op: OpGt, Value: ir.Integer(45)}
//
// renders as FILTER(?age > "45"^^xsd:integer).
type Compare struct {
	Var   string
	Op    Op
	Value Term
}

func (Compare) filterNode() {}

func (f Compare) String() string {
	return "?" + f.Var + " " + string(f.Op) + " " + f.Value.String()
}

// VarCompare tests two variables against each other.
type VarCompare struct {
	Left  string
	Op    Op
	Right string
}

func (VarCompare) filterNode() {}

func (f VarCompare) String() string {
	return "?" + f.Left + " " + string(f.Op) + " ?" + f.Right
}

// And holds when every child filter holds. An empty And is true.
type And struct {
	Filters []Filter
}

func (And) filterNode() {}

func (f And) String() string {
	if len(f.Filters) == 0 {
		return "true"
	}
	parts := make([]string, len(f.Filters))
	for i, c := range f.Filters {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, " && ") + ")"
}

// FilterVariables returns the variables a filter references.
func FilterVariables(f Filter) []string {
	var vars []string
	add := func(v string) {
		if !containsString(vars, v) {
			vars = append(vars, v)
		}
	}
	var walk func(Filter)
	walk = func(f Filter) {
		switch n := f.(type) {
		case Compare:
			add(n.Var)
		case VarCompare:
			add(n.Left)
			add(n.Right)
		case And:
			for _, c := range n.Filters {
				walk(c)
			}
		}
	}
	walk(f)
	return vars
}
