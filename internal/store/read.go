package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/qrelax/internal/datasource"
	"github.com/roach88/qrelax/internal/ir"
)

// Evaluate returns the distinct bindings of q's projection.
// Rows are ordered by term id (insertion order) per the compiler's ORDER BY.
//
// Returns an empty slice (not nil) when nothing matches.
func (s *Store) Evaluate(ctx context.Context, q *ir.Query) (datasource.ResultSet, error) {
	st, err := s.compiler.Select(q, 0)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, st.SQL, st.Params...)
	if err != nil {
		return nil, fmt.Errorf("evaluate: query: %w", err)
	}
	defer rows.Close()

	results := datasource.ResultSet{}
	for rows.Next() {
		b, err := scanBinding(rows, st.Columns)
		if err != nil {
			return nil, fmt.Errorf("evaluate: %w", err)
		}
		results = append(results, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("evaluate: iterate: %w", err)
	}
	return results, nil
}

// Count returns the number of distinct projected rows, capped at limit.
func (s *Store) Count(ctx context.Context, q *ir.Query, limit int) (int, error) {
	st, err := s.compiler.Count(q, limit)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, st.SQL, st.Params...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// scanBinding reads four columns per projected variable.
func scanBinding(rows *sql.Rows, columns []string) (datasource.Binding, error) {
	if len(columns) == 0 {
		var one int
		if err := rows.Scan(&one); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		return datasource.Binding{}, nil
	}

	terms := make([]termRow, len(columns))
	dest := make([]any, 0, 4*len(columns))
	for i := range terms {
		dest = append(dest, &terms[i].kind, &terms[i].value, &terms[i].datatype, &terms[i].lang)
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}

	b := make(datasource.Binding, len(columns))
	for i, name := range columns {
		b[name] = terms[i].term()
	}
	return b, nil
}

// termRow mirrors one row of the terms table.
type termRow struct {
	kind     int
	value    string
	datatype string
	lang     string
}

func (r termRow) term() ir.Term {
	return ir.Term{Kind: ir.Kind(r.kind), Value: r.value, Datatype: r.datatype, Lang: r.lang}
}

// Stats summarizes the stored graph.
type Stats struct {
	Terms   int64 `json:"terms"`
	Triples int64 `json:"triples"`
}

// Stats returns table sizes.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM terms`).Scan(&st.Terms); err != nil {
		return Stats{}, fmt.Errorf("stats: terms: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM triples`).Scan(&st.Triples); err != nil {
		return Stats{}, fmt.Errorf("stats: triples: %w", err)
	}
	return st, nil
}
