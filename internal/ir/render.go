package ir

import (
	"fmt"
	"strings"
)

// RenderOptions control SPARQL rendering.
type RenderOptions struct {
	// Labels appends "# label" comments after each triple pattern.
	Labels bool
	// Distinct adds DISTINCT to the projection.
	Distinct bool
	// Limit adds LIMIT n when positive.
	Limit int
	// CountAs wraps the query as SELECT (COUNT(*) AS ?name) over a
	// DISTINCT subselect. Limit applies to the inner query.
	CountAs string
}

// SPARQL renders q as a SELECT query with label comments.
func (q *Query) SPARQL() string {
	return Render(q, RenderOptions{Labels: true})
}

// Render renders the conjunctive fragment of q in SPARQL 1.1 syntax.
//
// Output is deterministic: conditions in insertion order, filters in
// insertion order. A query without conditions renders an empty group,
// which matches exactly one empty solution.
func Render(q *Query, opts RenderOptions) string {
	var b strings.Builder
	if opts.CountAs != "" {
		fmt.Fprintf(&b, "SELECT (COUNT(*) AS ?%s)\nWHERE {\n", opts.CountAs)
		inner := opts
		inner.CountAs = ""
		inner.Distinct = true
		for _, line := range strings.Split(Render(q, inner), "\n") {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteByte('\n')
		}
		b.WriteString("}")
		return b.String()
	}

	b.WriteString("SELECT ")
	if opts.Distinct {
		b.WriteString("DISTINCT ")
	}
	proj := q.Select()
	if len(proj) == 0 {
		b.WriteString("*")
	} else {
		for i, v := range proj {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString("?" + v)
		}
	}
	b.WriteString("\nWHERE {\n")
	for _, c := range q.conds {
		b.WriteString("  ")
		if opts.Labels {
			b.WriteString(c.String())
		} else {
			b.WriteString(c.Pattern())
		}
		b.WriteByte('\n')
	}
	for _, f := range q.filters {
		fmt.Fprintf(&b, "  FILTER(%s)\n", f.String())
	}
	b.WriteString("}")
	if opts.Limit > 0 {
		fmt.Fprintf(&b, "\nLIMIT %d", opts.Limit)
	}
	return b.String()
}
