package ir

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrEmptyQuery is returned for a query without conditions.
var ErrEmptyQuery = errors.New("query has no conditions")

// ErrUnboundOutput is returned when an output variable is not mentioned by
// any condition.
var ErrUnboundOutput = errors.New("output variable not bound by any condition")

// Query is a conjunctive query: a set of conditions, the output variables
// and residual filters.
//
// Conditions form a set under term-triple equality. Insertion order is kept
// so rendering and iteration are deterministic.
//
// CRITICAL: A *Query handed to another component must not be mutated
// afterwards. Every algebra operation returns a fresh query; callers that
// need a modified copy use Clone first.
type Query struct {
	conds   []Condition
	index   map[string]struct{}
	selects []string
	filters []Filter
}

// NewQuery creates a query from conditions. Duplicates are dropped.
func NewQuery(conds ...Condition) *Query {
	q := &Query{index: make(map[string]struct{}, len(conds))}
	for _, c := range conds {
		q.Add(c)
	}
	return q
}

// Add inserts a condition. A value-identical condition already present
// makes this a no-op.
func (q *Query) Add(c Condition) {
	if q.index == nil {
		q.index = make(map[string]struct{})
	}
	key := c.Key()
	if _, ok := q.index[key]; ok {
		return
	}
	q.index[key] = struct{}{}
	q.conds = append(q.conds, c)
}

// Remove deletes the value-identical condition. Absent conditions are ignored.
func (q *Query) Remove(c Condition) {
	key := c.Key()
	if _, ok := q.index[key]; !ok {
		return
	}
	delete(q.index, key)
	q.conds = slices.DeleteFunc(q.conds, func(x Condition) bool {
		return x.Key() == key
	})
}

// Contains reports whether a value-identical condition is present.
func (q *Query) Contains(c Condition) bool {
	_, ok := q.index[c.Key()]
	return ok
}

// Conditions returns a copy of the conditions in insertion order.
func (q *Query) Conditions() []Condition {
	return slices.Clone(q.conds)
}

// Len returns the number of conditions.
func (q *Query) Len() int {
	return len(q.conds)
}

// Select returns the output variables. Empty means all variables.
func (q *Query) Select() []string {
	return slices.Clone(q.selects)
}

// SetSelect replaces the output variables. Leading '?' is stripped.
func (q *Query) SetSelect(vars ...string) {
	q.selects = q.selects[:0:0]
	for _, v := range vars {
		name := strings.TrimLeft(v, "?$")
		if !slices.Contains(q.selects, name) {
			q.selects = append(q.selects, name)
		}
	}
}

// Projection returns the effective output variables: Select when set,
// otherwise every variable in appearance order.
func (q *Query) Projection() []string {
	if len(q.selects) > 0 {
		return q.Select()
	}
	return q.Variables()
}

// Filters returns the residual filters.
func (q *Query) Filters() []Filter {
	return slices.Clone(q.filters)
}

// AddFilter appends a residual filter.
func (q *Query) AddFilter(f Filter) {
	q.filters = append(q.filters, f)
}

// IsSubqueryOf reports whether every condition of q appears by value in other.
func (q *Query) IsSubqueryOf(other *Query) bool {
	if q.Len() > other.Len() {
		return false
	}
	for _, c := range q.conds {
		if !other.Contains(c) {
			return false
		}
	}
	return true
}

// Equal reports whether both queries hold the same condition set.
func (q *Query) Equal(other *Query) bool {
	return q.Len() == other.Len() && q.IsSubqueryOf(other)
}

// Clone returns a fresh container with the same conditions, output
// variables and filters. Conditions are values, so nothing is shared.
func (q *Query) Clone() *Query {
	c := &Query{
		conds:   slices.Clone(q.conds),
		index:   make(map[string]struct{}, len(q.conds)),
		selects: slices.Clone(q.selects),
		filters: slices.Clone(q.filters),
	}
	for k := range q.index {
		c.index[k] = struct{}{}
	}
	return c
}

// Minus returns a fresh query holding the conditions of q absent from
// other. Output variables and filters come from q.
func (q *Query) Minus(other *Query) *Query {
	out := &Query{
		index:   make(map[string]struct{}, len(q.conds)),
		selects: slices.Clone(q.selects),
		filters: slices.Clone(q.filters),
	}
	for _, c := range q.conds {
		if !other.Contains(c) {
			out.Add(c)
		}
	}
	return out
}

// Union returns base's conditions followed by the conditions of remainder
// not already in base. Output variables and filters come from base.
func Union(remainder, base *Query) *Query {
	out := base.Clone()
	for _, c := range remainder.conds {
		out.Add(c)
	}
	return out
}

// WithConditions returns a fresh query with q's output variables and
// filters but the given conditions.
func (q *Query) WithConditions(conds []Condition) *Query {
	out := NewQuery(conds...)
	out.selects = slices.Clone(q.selects)
	out.filters = slices.Clone(q.filters)
	return out
}

// Variables returns the variable names mentioned by the conditions in
// order of first appearance.
func (q *Query) Variables() []string {
	var vars []string
	for _, c := range q.conds {
		for _, v := range c.Variables() {
			if !slices.Contains(vars, v) {
				vars = append(vars, v)
			}
		}
	}
	return vars
}

// Labels returns the condition labels in order.
func (q *Query) Labels() []string {
	labels := make([]string, len(q.conds))
	for i, c := range q.conds {
		labels[i] = c.Label
	}
	return labels
}

// Key returns the canonical key of the condition set. Two queries with the
// same conditions share a key regardless of order or labels.
func (q *Query) Key() string {
	keys := make([]string, len(q.conds))
	for i, c := range q.conds {
		keys[i] = c.Key()
	}
	slices.Sort(keys)
	// []string always marshals.
	key, err := CanonicalKey(DomainQuery, keys)
	if err != nil {
		panic(err)
	}
	return key
}

// Validate checks that q is acceptable input for a repair request.
func (q *Query) Validate() error {
	if q == nil || q.Len() == 0 {
		return ErrEmptyQuery
	}
	for _, c := range q.conds {
		if err := validateCondition(c); err != nil {
			return err
		}
	}
	vars := q.Variables()
	for _, v := range q.selects {
		if !slices.Contains(vars, v) {
			return fmt.Errorf("%w: ?%s", ErrUnboundOutput, v)
		}
	}
	for i, f := range q.filters {
		if err := ValidateFilter(f, vars); err != nil {
			return fmt.Errorf("filter %d: %w", i, err)
		}
	}
	return nil
}

func validateCondition(c Condition) error {
	for _, r := range Roles {
		if c.Term(r).IsZero() {
			return fmt.Errorf("condition %s: empty %s", c.Label, r)
		}
	}
	switch c.Subject.Kind {
	case KindLiteral:
		return fmt.Errorf("condition %s: literal subject %s", c.Label, c.Subject)
	}
	switch c.Predicate.Kind {
	case KindLiteral, KindBlank:
		return fmt.Errorf("condition %s: predicate must be an IRI or variable, got %s", c.Label, c.Predicate)
	}
	return nil
}

// String renders the labels as a set, e.g. "{t0, t2}".
func (q *Query) String() string {
	return "{" + strings.Join(q.Labels(), ", ") + "}"
}
