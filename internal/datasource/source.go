// Package datasource defines the contract between the relaxation core and
// the graph it queries, plus decorators shared by every implementation.
//
// A Source answers three kinds of questions:
//   - Evaluator: bindings and bounded counts for a conjunctive query
//   - Statistics: corpus frequencies feeding information content
//   - Ontology: one-step broader classes and properties
//
// The in-process SQLite store and the HTTP SPARQL client both satisfy
// Source. Metered and Cached wrap any Source.
package datasource

import (
	"context"
	"math"
	"slices"

	"github.com/roach88/qrelax/internal/ir"
)

// Evaluator executes materialized conjunctive queries.
type Evaluator interface {
	// Evaluate returns the distinct bindings of the query's projection.
	Evaluate(ctx context.Context, q *ir.Query) (ResultSet, error)
	// Count returns the number of distinct bindings, stopping at limit.
	// limit <= 0 counts everything.
	Count(ctx context.Context, q *ir.Query, limit int) (int, error)
}

// Statistics reports corpus frequencies.
type Statistics interface {
	// ClassFrequency counts instances of class against all typed instances.
	ClassFrequency(ctx context.Context, class ir.Term) (Frequency, error)
	// PropertyFrequency counts triples using property against all triples.
	PropertyFrequency(ctx context.Context, property ir.Term) (Frequency, error)
}

// Ontology reports one-step generalizations.
type Ontology interface {
	BroaderClasses(ctx context.Context, class ir.Term) ([]ir.Term, error)
	BroaderProperties(ctx context.Context, property ir.Term) ([]ir.Term, error)
}

// Source is the full data source contract.
type Source interface {
	Evaluator
	Statistics
	Ontology
}

// Binding maps variable names to values for one result row.
// Unbound variables are absent.
type Binding map[string]ir.Term

// Key returns the canonical deduplication key of the row.
func (b Binding) Key() string {
	return ir.BindingKey(b)
}

// Variables returns the bound variable names in sorted order.
func (b Binding) Variables() []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ResultSet is a sequence of bindings. Order is not significant.
type ResultSet []Binding

// Frequency is a count over a total.
type Frequency struct {
	Count int64 `json:"count"`
	Total int64 `json:"total"`
}

// P returns the relative frequency, 0 when total is 0.
func (f Frequency) P() float64 {
	if f.Total <= 0 || f.Count <= 0 {
		return 0
	}
	return float64(f.Count) / float64(f.Total)
}

// IC returns the information content -log(P). P = 0 gives 0.
func (f Frequency) IC() float64 {
	p := f.P()
	if p == 0 {
		return 0
	}
	return -math.Log(p)
}
