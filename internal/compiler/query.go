package compiler

import (
	"fmt"

	"github.com/roach88/qrelax/internal/ir"
)

// QuerySpec is the source form of a query shared by workload files,
// harness scenarios and HTTP requests.
type QuerySpec struct {
	Select  []string `json:"select,omitempty" yaml:"select,omitempty"`
	Where   []string `json:"where" yaml:"where"`
	Filters []string `json:"filters,omitempty" yaml:"filters,omitempty"`
}

// BuildQuery compiles spec into a validated query. Conditions are labeled
// t0, t1, ... in order.
func BuildQuery(spec QuerySpec, prefixes Prefixes) (*ir.Query, error) {
	conds := make([]ir.Condition, 0, len(spec.Where))
	for i, w := range spec.Where {
		terms, err := ParsePattern(w, prefixes)
		if err != nil {
			return nil, &CompileError{Field: fmt.Sprintf("where[%d]", i), Message: err.Error()}
		}
		conds = append(conds, ir.NewCondition(ir.LabelFor(i), terms[0], terms[1], terms[2]))
	}

	q := ir.NewQuery(conds...)
	q.SetSelect(spec.Select...)
	for i, s := range spec.Filters {
		f, err := ParseFilter(s, prefixes)
		if err != nil {
			return nil, &CompileError{Field: fmt.Sprintf("filters[%d]", i), Message: err.Error()}
		}
		q.AddFilter(f)
	}

	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}
	return q, nil
}
