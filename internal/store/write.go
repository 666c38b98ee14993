package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/qrelax/internal/ir"
)

// InsertTriples adds triples in one transaction and returns how many were
// new. Duplicate triples are ignored (set semantics).
//
// Only constants and blank nodes may be stored. A variable in any
// position rejects the whole batch.
func (s *Store) InsertTriples(ctx context.Context, triples []ir.Triple) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("insert triples: begin: %w", err)
	}
	defer tx.Rollback()

	added := 0
	for i, tr := range triples {
		var ids [3]int64
		for r, t := range [3]ir.Term{tr.Subject, tr.Predicate, tr.Object} {
			id, err := internTerm(ctx, tx, t)
			if err != nil {
				return 0, fmt.Errorf("insert triples: triple %d %s: %w", i, ir.Role(r), err)
			}
			ids[r] = id
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO triples (s, p, o) VALUES (?, ?, ?)
			ON CONFLICT(s, p, o) DO NOTHING
		`, ids[0], ids[1], ids[2])
		if err != nil {
			return 0, fmt.Errorf("insert triples: triple %d: %w", i, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("insert triples: rows affected: %w", err)
		}
		added += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("insert triples: commit: %w", err)
	}
	return added, nil
}

// internTerm returns the id of t, inserting it when absent.
func internTerm(ctx context.Context, tx *sql.Tx, t ir.Term) (int64, error) {
	switch t.Kind {
	case ir.KindIRI, ir.KindLiteral, ir.KindBlank:
	default:
		return 0, fmt.Errorf("cannot store %s term %s", t.Kind, t)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO terms (kind, value, datatype, lang) VALUES (?, ?, ?, ?)
		ON CONFLICT(kind, value, datatype, lang) DO NOTHING
	`, int(t.Kind), t.Value, t.Datatype, t.Lang); err != nil {
		return 0, fmt.Errorf("intern term: %w", err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, `
		SELECT id FROM terms WHERE kind = ? AND value = ? AND datatype = ? AND lang = ?
	`, int(t.Kind), t.Value, t.Datatype, t.Lang).Scan(&id); err != nil {
		return 0, fmt.Errorf("intern term: lookup: %w", err)
	}
	return id, nil
}
