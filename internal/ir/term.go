package ir

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Well-known vocabulary used by the relaxation engine and data sources.
const (
	RDFType           = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"
	RDFSSubClassOf    = "http://www.w3.org/2000/01/rdf-schema#subClassOf"
	RDFSSubPropertyOf = "http://www.w3.org/2000/01/rdf-schema#subPropertyOf"

	XSDString  = "http://www.w3.org/2001/XMLSchema#string"
	XSDInteger = "http://www.w3.org/2001/XMLSchema#integer"
	XSDDecimal = "http://www.w3.org/2001/XMLSchema#decimal"
	XSDDouble  = "http://www.w3.org/2001/XMLSchema#double"
	XSDBoolean = "http://www.w3.org/2001/XMLSchema#boolean"
)

// Kind distinguishes the term variants.
type Kind int

const (
	// KindIRI is an opaque resource identifier constant.
	KindIRI Kind = iota + 1
	// KindLiteral is a literal value constant.
	KindLiteral
	// KindBlank is an anonymous node. Appears in results, never in input queries.
	KindBlank
	// KindVariable is a named variable scoped to its query.
	KindVariable
	// KindErased is a variable minted by relaxation to replace a constant.
	KindErased
)

// String returns the SPARQL JSON results type name for the kind.
func (k Kind) String() string {
	switch k {
	case KindIRI:
		return "uri"
	case KindLiteral:
		return "literal"
	case KindBlank:
		return "bnode"
	case KindVariable:
		return "variable"
	case KindErased:
		return "erased"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// parseKind maps a SPARQL JSON results type name back to a Kind.
// "typed-literal" is accepted for SPARQL XML-era endpoints.
func parseKind(s string) (Kind, error) {
	switch s {
	case "uri":
		return KindIRI, nil
	case "literal", "typed-literal":
		return KindLiteral, nil
	case "bnode":
		return KindBlank, nil
	case "variable":
		return KindVariable, nil
	case "erased":
		return KindErased, nil
	default:
		return 0, fmt.Errorf("unknown term type %q", s)
	}
}

// Term is one position of a condition: a constant, a variable or a blank node.
//
// Terms are compared by value. Two literals are equal only when lexical
// value, datatype and language all match. The lexical value is NFC
// normalized at construction so equal strings compare equal regardless of
// the source's Unicode normalization.
type Term struct {
	Kind     Kind
	Value    string
	Datatype string
	Lang     string
}

// IRI creates an IRI constant.
func IRI(value string) Term {
	return Term{Kind: KindIRI, Value: value}
}

// Literal creates a plain string literal.
func Literal(value string) Term {
	return Term{Kind: KindLiteral, Value: norm.NFC.String(value)}
}

// TypedLiteral creates a literal with an explicit datatype IRI.
// xsd:string is folded into the plain form.
func TypedLiteral(value, datatype string) Term {
	if datatype == XSDString {
		datatype = ""
	}
	return Term{Kind: KindLiteral, Value: norm.NFC.String(value), Datatype: datatype}
}

// LangLiteral creates a language-tagged literal. Tags are case-insensitive.
func LangLiteral(value, lang string) Term {
	return Term{Kind: KindLiteral, Value: norm.NFC.String(value), Lang: strings.ToLower(lang)}
}

// Integer creates an xsd:integer literal.
func Integer(n int64) Term {
	return TypedLiteral(strconv.FormatInt(n, 10), XSDInteger)
}

// Var creates a named variable. A leading '?' or '$' is stripped.
func Var(name string) Term {
	return Term{Kind: KindVariable, Value: strings.TrimLeft(name, "?$")}
}

// Blank creates a blank node.
func Blank(id string) Term {
	return Term{Kind: KindBlank, Value: strings.TrimPrefix(id, "_:")}
}

// Erased creates a relaxation variable.
func Erased(name string) Term {
	return Term{Kind: KindErased, Value: strings.TrimLeft(name, "?$")}
}

// IsZero reports whether the term is unset.
func (t Term) IsZero() bool {
	return t.Kind == 0
}

// IsConstant reports whether the term is an IRI or a literal.
func (t Term) IsConstant() bool {
	return t.Kind == KindIRI || t.Kind == KindLiteral
}

// IsVariable reports whether the term binds values (named or erased).
func (t Term) IsVariable() bool {
	return t.Kind == KindVariable || t.Kind == KindErased
}

// IsNumeric reports whether the term is a literal with a numeric datatype.
func (t Term) IsNumeric() bool {
	if t.Kind != KindLiteral {
		return false
	}
	switch t.Datatype {
	case XSDInteger, XSDDecimal, XSDDouble:
		return true
	}
	return false
}

// Equal reports value equality.
func (t Term) Equal(o Term) bool {
	return t == o
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// String renders the term in SPARQL syntax.
// Variables and erased variables both render as ?name.
func (t Term) String() string {
	switch t.Kind {
	case KindIRI:
		return "<" + t.Value + ">"
	case KindLiteral:
		lit := `"` + literalEscaper.Replace(t.Value) + `"`
		if t.Lang != "" {
			return lit + "@" + t.Lang
		}
		if t.Datatype != "" {
			return lit + "^^<" + t.Datatype + ">"
		}
		return lit
	case KindBlank:
		return "_:" + t.Value
	case KindVariable, KindErased:
		return "?" + t.Value
	default:
		return "<invalid>"
	}
}

// key returns a string unique per term value, used for condition keys.
func (t Term) key() string {
	return strconv.Itoa(int(t.Kind)) + "|" + t.Value + "|" + t.Datatype + "|" + t.Lang
}

// termJSON mirrors the SPARQL 1.1 JSON results term encoding.
type termJSON struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

// MarshalJSON encodes the term in SPARQL JSON results form.
func (t Term) MarshalJSON() ([]byte, error) {
	return json.Marshal(termJSON{
		Type:     t.Kind.String(),
		Value:    t.Value,
		Datatype: t.Datatype,
		Lang:     t.Lang,
	})
}

// UnmarshalJSON decodes a SPARQL JSON results term.
func (t *Term) UnmarshalJSON(data []byte) error {
	var raw termJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	kind, err := parseKind(raw.Type)
	if err != nil {
		return err
	}
	switch kind {
	case KindLiteral:
		if raw.Lang != "" {
			*t = LangLiteral(raw.Value, raw.Lang)
		} else {
			*t = TypedLiteral(raw.Value, raw.Datatype)
		}
	default:
		*t = Term{Kind: kind, Value: raw.Value}
	}
	return nil
}
