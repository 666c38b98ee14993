package sparql

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/roach88/qrelax/internal/datasource"
	"github.com/roach88/qrelax/internal/ir"
)

// resultsDocument is the application/sparql-results+json envelope.
type resultsDocument struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]rdfTerm `json:"bindings"`
	} `json:"results"`
}

type rdfTerm struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Datatype string `json:"datatype,omitempty"`
	Lang     string `json:"xml:lang,omitempty"`
}

func (t rdfTerm) term() (ir.Term, error) {
	switch t.Type {
	case "uri":
		return ir.IRI(t.Value), nil
	case "literal", "typed-literal":
		switch {
		case t.Lang != "":
			return ir.LangLiteral(t.Value, t.Lang), nil
		case t.Datatype != "":
			return ir.TypedLiteral(t.Value, t.Datatype), nil
		}
		return ir.Literal(t.Value), nil
	case "bnode":
		return ir.Blank(t.Value), nil
	}
	return ir.Term{}, fmt.Errorf("unknown RDF term type %q", t.Type)
}

// decodeResults reads a SELECT result document into distinct bindings.
func decodeResults(r io.Reader) (datasource.ResultSet, error) {
	var doc resultsDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}

	rs := make(datasource.ResultSet, 0, len(doc.Results.Bindings))
	seen := make(map[string]struct{}, len(doc.Results.Bindings))
	for i, row := range doc.Results.Bindings {
		b := make(datasource.Binding, len(row))
		for name, raw := range row {
			t, err := raw.term()
			if err != nil {
				return nil, fmt.Errorf("row %d ?%s: %w", i, name, err)
			}
			b[name] = t
		}
		key := b.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		rs = append(rs, b)
	}
	return rs, nil
}

// scalar extracts the single integer value ?name of an aggregate result.
func scalar(rs datasource.ResultSet, name string) (int64, error) {
	if len(rs) != 1 {
		return 0, fmt.Errorf("aggregate returned %d rows", len(rs))
	}
	t, ok := rs[0][name]
	if !ok {
		return 0, fmt.Errorf("aggregate result has no ?%s", name)
	}
	n, err := strconv.ParseInt(t.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("aggregate ?%s: %w", name, err)
	}
	return n, nil
}
