package compiler

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/qrelax/internal/ir"
)

// Graph is a compiled graph fixture.
type Graph struct {
	Prefixes Prefixes
	Triples  []ir.Triple
}

type graphFile struct {
	Prefixes map[string]string `yaml:"prefixes"`
	Triples  []string          `yaml:"triples"`
}

// ParseGraph compiles a YAML graph fixture:
//
//	prefixes:
//	  ex: http://example.org/
//	triples:
//	  - ex:s1 a ex:Lecturer
//	  - ex:s1 ex:age 45
//
// Unknown fields are rejected. Triples must be ground: variables are an
// error.
func ParseGraph(data []byte) (*Graph, error) {
	var f graphFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	g := &Graph{Prefixes: DefaultPrefixes().With(f.Prefixes)}
	for i, line := range f.Triples {
		terms, err := ParsePattern(line, g.Prefixes)
		if err != nil {
			return nil, fmt.Errorf("triples[%d]: %w", i, err)
		}
		for r, t := range terms {
			if t.IsVariable() {
				return nil, fmt.Errorf("triples[%d]: %s %s is a variable", i, ir.Roles[r], t)
			}
		}
		g.Triples = append(g.Triples, ir.Triple{Subject: terms[0], Predicate: terms[1], Object: terms[2]})
	}
	if len(g.Triples) == 0 {
		return nil, fmt.Errorf("graph has no triples")
	}
	return g, nil
}

// LoadGraph reads and compiles a YAML graph fixture file.
func LoadGraph(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}
	return ParseGraph(data)
}
