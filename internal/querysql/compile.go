package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/qrelax/internal/ir"
)

// Statement is a compiled, parameterized SQL query.
type Statement struct {
	SQL    string
	Params []any

	// Columns lists the projected variables that are bound by a condition,
	// in output order. Each contributes four result columns:
	// kind, value, datatype, lang.
	Columns []string

	// Unbound lists projected variables no condition binds. They never
	// appear in result rows.
	Unbound []string
}

// SQLCompiler compiles conjunctive queries into SQL over the triple store
// schema (terms, triples).
//
// Each condition becomes one alias over triples. Constants are matched by
// term id through a lookup subselect, repeated variables become equality
// predicates between aliases, and projected variables join the terms
// table to recover their values.
//
// CRITICAL: ALL queries include ORDER BY for deterministic results.
// CRITICAL: All values are parameterized, never interpolated.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

var numericDatatypes = []any{ir.XSDInteger, ir.XSDDecimal, ir.XSDDouble}

var roleColumns = [3]string{"s", "p", "o"}

// builder accumulates FROM, WHERE and parameters in emission order.
type builder struct {
	from    []string
	where   []string
	params  []any
	refs    map[string]string
	aliases map[string]string
}

func newBuilder() *builder {
	return &builder{
		refs:    make(map[string]string),
		aliases: make(map[string]string),
	}
}

func (b *builder) cond(sql string, params ...any) {
	b.where = append(b.where, sql)
	b.params = append(b.params, params...)
}

// termAlias joins the terms table for a bound variable once.
func (b *builder) termAlias(name string) string {
	if a, ok := b.aliases[name]; ok {
		return a
	}
	a := fmt.Sprintf("v%d", len(b.aliases))
	b.aliases[name] = a
	b.from = append(b.from, "terms "+a)
	b.cond(fmt.Sprintf("%s.id = %s", a, b.refs[name]))
	return a
}

// lookup returns a subselect resolving a constant term to its id.
// A term absent from the store resolves to NULL and matches nothing.
func lookup(t ir.Term) (string, []any) {
	return "(SELECT id FROM terms WHERE kind = ? AND value = ? AND datatype = ? AND lang = ?)",
		[]any{int(t.Kind), t.Value, t.Datatype, t.Lang}
}

// Select compiles q into a DISTINCT projection. limit <= 0 means no limit.
func (c *SQLCompiler) Select(q *ir.Query, limit int) (Statement, error) {
	b, err := c.body(q)
	if err != nil {
		return Statement{}, err
	}

	var st Statement
	var cols, order []string
	for _, v := range q.Projection() {
		if _, ok := b.refs[v]; !ok {
			st.Unbound = append(st.Unbound, v)
			continue
		}
		a := b.termAlias(v)
		st.Columns = append(st.Columns, v)
		cols = append(cols, fmt.Sprintf("%s.kind, %s.value, %s.datatype, %s.lang", a, a, a, a))
		order = append(order, b.refs[v]+" ASC")
	}
	if len(cols) == 0 {
		cols = []string{"1"}
		order = []string{"1"}
	}

	var sb strings.Builder
	sb.WriteString("SELECT DISTINCT ")
	sb.WriteString(strings.Join(cols, ", "))
	writeFromWhere(&sb, b)
	// MANDATORY: Always add ORDER BY
	sb.WriteString(" ORDER BY ")
	sb.WriteString(strings.Join(order, ", "))

	st.Params = b.params
	if limit > 0 {
		sb.WriteString(" LIMIT ?")
		st.Params = append(st.Params, limit)
	}
	st.SQL = sb.String()
	return st, nil
}

// Count compiles q into a count of distinct projected rows, capped at limit.
// limit <= 0 counts everything.
func (c *SQLCompiler) Count(q *ir.Query, limit int) (Statement, error) {
	b, err := c.body(q)
	if err != nil {
		return Statement{}, err
	}

	var cols []string
	for _, v := range q.Projection() {
		if ref, ok := b.refs[v]; ok {
			cols = append(cols, ref)
		}
	}
	if len(cols) == 0 {
		cols = []string{"1"}
	}

	var sb strings.Builder
	sb.WriteString("SELECT COUNT(*) FROM (SELECT DISTINCT ")
	sb.WriteString(strings.Join(cols, ", "))
	writeFromWhere(&sb, b)
	params := b.params
	if limit > 0 {
		sb.WriteString(" LIMIT ?")
		params = append(params, limit)
	}
	sb.WriteString(")")
	return Statement{SQL: sb.String(), Params: params}, nil
}

func writeFromWhere(sb *strings.Builder, b *builder) {
	if len(b.from) > 0 {
		sb.WriteString(" FROM ")
		sb.WriteString(strings.Join(b.from, ", "))
	}
	if len(b.where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.where, " AND "))
	}
}

// body emits the triple aliases, join predicates and filters.
func (c *SQLCompiler) body(q *ir.Query) (*builder, error) {
	if q == nil {
		return nil, fmt.Errorf("cannot compile nil query")
	}
	b := newBuilder()
	for i, cond := range q.Conditions() {
		alias := fmt.Sprintf("c%d", i)
		b.from = append(b.from, "triples "+alias)
		for r, t := range cond.Terms() {
			col := alias + "." + roleColumns[r]
			switch {
			case t.IsVariable():
				if ref, ok := b.refs[t.Value]; ok {
					b.cond(col + " = " + ref)
				} else {
					b.refs[t.Value] = col
				}
			case t.IsZero():
				return nil, fmt.Errorf("condition %s: empty %s", cond.Label, ir.Role(r))
			default:
				sub, params := lookup(t)
				b.cond(col+" = "+sub, params...)
			}
		}
	}
	for i, f := range q.Filters() {
		if err := c.filter(b, f); err != nil {
			return nil, fmt.Errorf("compile filter %d: %w", i, err)
		}
	}
	return b, nil
}

// filter compiles a residual filter into a WHERE fragment.
// A filter on a variable no condition binds is unsatisfiable, matching
// SPARQL's error-as-false evaluation of unbound comparisons.
func (c *SQLCompiler) filter(b *builder, f ir.Filter) error {
	switch n := f.(type) {
	case ir.Compare:
		return c.compare(b, n)
	case ir.VarCompare:
		return c.varCompare(b, n)
	case ir.And:
		for _, child := range n.Filters {
			if err := c.filter(b, child); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported filter type: %T", f)
	}
}

func (c *SQLCompiler) compare(b *builder, f ir.Compare) error {
	if !f.Op.Valid() {
		return fmt.Errorf("unsupported operator %q", f.Op)
	}
	ref, ok := b.refs[f.Var]
	if !ok {
		b.cond("0 = 1")
		return nil
	}

	if f.Value.IsNumeric() {
		n, err := strconv.ParseFloat(f.Value.Value, 64)
		if err != nil {
			return fmt.Errorf("numeric literal %s: %w", f.Value, err)
		}
		a := b.termAlias(f.Var)
		params := append([]any{}, numericDatatypes...)
		params = append(params, n)
		b.cond(fmt.Sprintf("(%s.datatype IN (?, ?, ?) AND CAST(%s.value AS REAL) %s ?)", a, a, f.Op), params...)
		return nil
	}

	switch f.Op {
	case ir.OpEq:
		sub, params := lookup(f.Value)
		b.cond(ref+" = "+sub, params...)
	case ir.OpNe:
		sub, params := lookup(f.Value)
		b.cond(ref+" IS NOT "+sub, params...)
	default:
		a := b.termAlias(f.Var)
		b.cond(fmt.Sprintf("(%s.kind = ? AND %s.value %s ?)", a, a, f.Op), int(f.Value.Kind), f.Value.Value)
	}
	return nil
}

func (c *SQLCompiler) varCompare(b *builder, f ir.VarCompare) error {
	if !f.Op.Valid() {
		return fmt.Errorf("unsupported operator %q", f.Op)
	}
	left, lok := b.refs[f.Left]
	right, rok := b.refs[f.Right]
	if !lok || !rok {
		b.cond("0 = 1")
		return nil
	}

	switch f.Op {
	case ir.OpEq:
		b.cond(left + " = " + right)
	case ir.OpNe:
		b.cond(left + " != " + right)
	default:
		la, ra := b.termAlias(f.Left), b.termAlias(f.Right)
		numeric := fmt.Sprintf("%s.datatype IN (?, ?, ?) AND %s.datatype IN (?, ?, ?)", la, ra)
		var params []any
		params = append(params, numericDatatypes...)
		params = append(params, numericDatatypes...)
		params = append(params, numericDatatypes...)
		params = append(params, numericDatatypes...)
		b.cond(fmt.Sprintf("((%s AND CAST(%s.value AS REAL) %s CAST(%s.value AS REAL)) OR (NOT (%s) AND %s.value %s %s.value))",
			numeric, la, f.Op, ra, numeric, la, f.Op, ra), params...)
	}
	return nil
}
