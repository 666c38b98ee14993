package store

import (
	"context"
	"fmt"

	"github.com/roach88/qrelax/internal/datasource"
	"github.com/roach88/qrelax/internal/ir"
)

const termIDLookup = `(SELECT id FROM terms WHERE kind = ? AND value = ? AND datatype = ? AND lang = ?)`

func termArgs(t ir.Term) []any {
	return []any{int(t.Kind), t.Value, t.Datatype, t.Lang}
}

// ClassFrequency counts distinct subjects typed with class over distinct
// typed subjects.
func (s *Store) ClassFrequency(ctx context.Context, class ir.Term) (datasource.Frequency, error) {
	typeArgs := termArgs(ir.IRI(ir.RDFType))

	var f datasource.Frequency
	args := append(append([]any{}, typeArgs...), termArgs(class)...)
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT s) FROM triples
		WHERE p = `+termIDLookup+` AND o = `+termIDLookup,
		args...).Scan(&f.Count); err != nil {
		return datasource.Frequency{}, fmt.Errorf("class frequency %s: %w", class, err)
	}
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT s) FROM triples WHERE p = `+termIDLookup,
		typeArgs...).Scan(&f.Total); err != nil {
		return datasource.Frequency{}, fmt.Errorf("class frequency total: %w", err)
	}
	return f, nil
}

// PropertyFrequency counts triples using property over all triples.
func (s *Store) PropertyFrequency(ctx context.Context, property ir.Term) (datasource.Frequency, error) {
	var f datasource.Frequency
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM triples WHERE p = `+termIDLookup,
		termArgs(property)...).Scan(&f.Count); err != nil {
		return datasource.Frequency{}, fmt.Errorf("property frequency %s: %w", property, err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM triples`).Scan(&f.Total); err != nil {
		return datasource.Frequency{}, fmt.Errorf("property frequency total: %w", err)
	}
	return f, nil
}

// BroaderClasses returns the direct rdfs:subClassOf parents of class.
func (s *Store) BroaderClasses(ctx context.Context, class ir.Term) ([]ir.Term, error) {
	return s.broader(ctx, class, ir.RDFSSubClassOf)
}

// BroaderProperties returns the direct rdfs:subPropertyOf parents of property.
func (s *Store) BroaderProperties(ctx context.Context, property ir.Term) ([]ir.Term, error) {
	return s.broader(ctx, property, ir.RDFSSubPropertyOf)
}

// broader follows one edge of the given hierarchy property.
// Self loops are dropped. Results are ordered by term id.
func (s *Store) broader(ctx context.Context, t ir.Term, edge string) ([]ir.Term, error) {
	if t.Kind != ir.KindIRI {
		return nil, nil
	}
	args := append(termArgs(t), termArgs(ir.IRI(edge))...)
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.kind, b.value, b.datatype, b.lang
		FROM triples t JOIN terms b ON b.id = t.o
		WHERE t.s = `+termIDLookup+` AND t.p = `+termIDLookup+` AND t.o != t.s
		ORDER BY b.id ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("broader %s: %w", t, err)
	}
	defer rows.Close()

	var out []ir.Term
	for rows.Next() {
		var r termRow
		if err := rows.Scan(&r.kind, &r.value, &r.datatype, &r.lang); err != nil {
			return nil, fmt.Errorf("broader %s: scan: %w", t, err)
		}
		out = append(out, r.term())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("broader %s: iterate: %w", t, err)
	}
	return out, nil
}
