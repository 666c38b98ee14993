package ir

import (
	"errors"
	"fmt"
)

// ErrInvalidFilter wraps every filter validation failure.
var ErrInvalidFilter = errors.New("invalid filter")

// ValidateFilter checks a filter against the variables bound by a query.
//
// Rules:
//  1. Operators must be one of = != < <= > >=
//  2. Every referenced variable must be bound by a condition
//  3. Compare values must be constants
//  4. Ordering operators need a literal value
//
// Relaxation may later erase the conditions binding a filtered variable.
// Data sources then treat the filter as unsatisfiable for that row, so the
// check here only applies to the query as written.
func ValidateFilter(f Filter, bound []string) error {
	switch n := f.(type) {
	case nil:
		return fmt.Errorf("%w: nil filter", ErrInvalidFilter)
	case Compare:
		if !n.Op.Valid() {
			return fmt.Errorf("%w: operator %q", ErrInvalidFilter, n.Op)
		}
		if !containsString(bound, n.Var) {
			return fmt.Errorf("%w: ?%s is not bound", ErrInvalidFilter, n.Var)
		}
		if !n.Value.IsConstant() {
			return fmt.Errorf("%w: ?%s compared to non-constant %s", ErrInvalidFilter, n.Var, n.Value)
		}
		if n.Op.Ordering() && n.Value.Kind != KindLiteral {
			return fmt.Errorf("%w: %s needs a literal operand", ErrInvalidFilter, n.Op)
		}
	case VarCompare:
		if !n.Op.Valid() {
			return fmt.Errorf("%w: operator %q", ErrInvalidFilter, n.Op)
		}
		for _, v := range []string{n.Left, n.Right} {
			if !containsString(bound, v) {
				return fmt.Errorf("%w: ?%s is not bound", ErrInvalidFilter, v)
			}
		}
	case And:
		for i, c := range n.Filters {
			if err := ValidateFilter(c, bound); err != nil {
				return fmt.Errorf("and[%d]: %w", i, err)
			}
		}
	default:
		return fmt.Errorf("%w: unknown filter type %T", ErrInvalidFilter, f)
	}
	return nil
}
