package compiler

import (
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/roach88/qrelax/internal/ir"
)

// Prefixes maps a prefix name to its namespace IRI.
type Prefixes map[string]string

// DefaultPrefixes returns the rdf, rdfs and xsd prefixes.
func DefaultPrefixes() Prefixes {
	return Prefixes{
		"rdf":  "http://www.w3.org/1999/02/22-rdf-syntax-ns#",
		"rdfs": "http://www.w3.org/2000/01/rdf-schema#",
		"xsd":  "http://www.w3.org/2001/XMLSchema#",
	}
}

// With returns a copy of p overlaid with extra.
func (p Prefixes) With(extra map[string]string) Prefixes {
	out := maps.Clone(p)
	if out == nil {
		out = Prefixes{}
	}
	maps.Copy(out, extra)
	return out
}

// ParseTerm parses one term of the fixture syntax:
//
//	?x  $x            variable
//	<http://...>      IRI
//	ex:Lecturer       prefixed IRI
//	a                 rdf:type
//	"SW"              plain literal
//	"46"^^xsd:integer typed literal
//	"chat"@fr         language literal
//	46  4.5  true     integer, decimal, boolean shorthand
//	_:b0              blank node
func ParseTerm(tok string, prefixes Prefixes) (ir.Term, error) {
	switch {
	case tok == "":
		return ir.Term{}, fmt.Errorf("empty term")
	case tok == "a":
		return ir.IRI(ir.RDFType), nil
	case tok[0] == '?' || tok[0] == '$':
		if len(tok) == 1 {
			return ir.Term{}, fmt.Errorf("variable without a name")
		}
		return ir.Var(tok), nil
	case tok[0] == '<':
		if !strings.HasSuffix(tok, ">") || len(tok) < 3 {
			return ir.Term{}, fmt.Errorf("unterminated IRI %s", tok)
		}
		return ir.IRI(tok[1 : len(tok)-1]), nil
	case strings.HasPrefix(tok, "_:"):
		if len(tok) == 2 {
			return ir.Term{}, fmt.Errorf("blank node without a label")
		}
		return ir.Blank(tok), nil
	case tok[0] == '"':
		return parseLiteral(tok, prefixes)
	case tok == "true" || tok == "false":
		return ir.TypedLiteral(tok, ir.XSDBoolean), nil
	}

	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return ir.Integer(n), nil
	}
	if _, err := strconv.ParseFloat(tok, 64); err == nil && strings.Contains(tok, ".") {
		return ir.TypedLiteral(tok, ir.XSDDecimal), nil
	}

	i := strings.IndexByte(tok, ':')
	if i < 0 {
		return ir.Term{}, fmt.Errorf("unrecognized term %q", tok)
	}
	ns, ok := prefixes[tok[:i]]
	if !ok {
		return ir.Term{}, fmt.Errorf("unknown prefix %q in %s", tok[:i], tok)
	}
	return ir.IRI(ns + tok[i+1:]), nil
}

func parseLiteral(tok string, prefixes Prefixes) (ir.Term, error) {
	end := closingQuote(tok)
	if end < 0 {
		return ir.Term{}, fmt.Errorf("unterminated literal %s", tok)
	}
	value, err := strconv.Unquote(tok[:end+1])
	if err != nil {
		return ir.Term{}, fmt.Errorf("literal %s: %w", tok, err)
	}

	rest := tok[end+1:]
	switch {
	case rest == "":
		return ir.Literal(value), nil
	case strings.HasPrefix(rest, "@") && len(rest) > 1:
		return ir.LangLiteral(value, rest[1:]), nil
	case strings.HasPrefix(rest, "^^"):
		dt, err := ParseTerm(rest[2:], prefixes)
		if err != nil {
			return ir.Term{}, fmt.Errorf("datatype of %s: %w", tok, err)
		}
		if dt.Kind != ir.KindIRI {
			return ir.Term{}, fmt.Errorf("datatype of %s must be an IRI", tok)
		}
		return ir.TypedLiteral(value, dt.Value), nil
	}
	return ir.Term{}, fmt.Errorf("unexpected suffix %q after literal", rest)
}

// closingQuote returns the index of the quote ending the literal that
// starts at s[0], or -1.
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

// tokenize splits s on whitespace. Quoted literals, with their datatype
// or language suffix, stay one token.
func tokenize(s string) ([]string, error) {
	var toks []string
	for i := 0; i < len(s); {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
			i++
			continue
		}
		start := i
		if s[i] == '"' {
			end := closingQuote(s[i:])
			if end < 0 {
				return nil, fmt.Errorf("unterminated literal at offset %d", i)
			}
			i += end + 1
		}
		for i < len(s) && !strings.ContainsRune(" \t\n\r", rune(s[i])) {
			i++
		}
		toks = append(toks, s[start:i])
	}
	return toks, nil
}

// ParsePattern parses a "subject predicate object" triple pattern. A
// trailing " ." is allowed.
func ParsePattern(s string, prefixes Prefixes) ([3]ir.Term, error) {
	var out [3]ir.Term
	toks, err := tokenize(s)
	if err != nil {
		return out, err
	}
	if n := len(toks); n > 0 && toks[n-1] == "." {
		toks = toks[:n-1]
	}
	if len(toks) != 3 {
		return out, fmt.Errorf("pattern %q: want 3 terms, got %d", s, len(toks))
	}
	for i, tok := range toks {
		t, err := ParseTerm(tok, prefixes)
		if err != nil {
			return out, fmt.Errorf("pattern %q %s: %w", s, ir.Roles[i], err)
		}
		out[i] = t
	}
	return out, nil
}

// ParseFilter parses a conjunction of comparisons:
//
//	?age > 45
//	?a != ?b && ?age <= 60
func ParseFilter(s string, prefixes Prefixes) (ir.Filter, error) {
	toks, err := tokenize(s)
	if err != nil {
		return nil, err
	}

	var parts []ir.Filter
	for len(toks) > 0 {
		if len(toks) < 3 {
			return nil, fmt.Errorf("filter %q: incomplete comparison", s)
		}
		f, err := parseComparison(toks[0], toks[1], toks[2], prefixes)
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", s, err)
		}
		parts = append(parts, f)
		toks = toks[3:]
		if len(toks) == 0 {
			break
		}
		if toks[0] != "&&" {
			return nil, fmt.Errorf("filter %q: expected && before %q", s, toks[0])
		}
		toks = toks[1:]
		if len(toks) == 0 {
			return nil, fmt.Errorf("filter %q: dangling &&", s)
		}
	}

	switch len(parts) {
	case 0:
		return nil, fmt.Errorf("empty filter")
	case 1:
		return parts[0], nil
	}
	return ir.And{Filters: parts}, nil
}

func parseComparison(left, opTok, right string, prefixes Prefixes) (ir.Filter, error) {
	l, err := ParseTerm(left, prefixes)
	if err != nil {
		return nil, err
	}
	if l.Kind != ir.KindVariable {
		return nil, fmt.Errorf("left operand %s must be a variable", left)
	}
	op, err := ir.ParseOp(opTok)
	if err != nil {
		return nil, err
	}
	r, err := ParseTerm(right, prefixes)
	if err != nil {
		return nil, err
	}
	if r.Kind == ir.KindVariable {
		return ir.VarCompare{Left: l.Value, Op: op, Right: r.Value}, nil
	}
	return ir.Compare{Var: l.Value, Op: op, Value: r}, nil
}
