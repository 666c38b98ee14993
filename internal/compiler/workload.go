package compiler

import (
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/qrelax/internal/ir"
)

// workloadSchema constrains workload files before compilation.
const workloadSchema = `
#Query: {
	select?:  [...string]
	where:    [string, ...string]
	filters?: [...string]
}

#Workload: {
	prefixes?: [string]: string
	queries: [string]: #Query
}
`

// Workload is a compiled workload file: prefixes and named queries.
type Workload struct {
	Prefixes Prefixes
	Names    []string // declaration order
	Queries  map[string]QueryEntry
}

// QueryEntry keeps the source form next to the compiled query.
type QueryEntry struct {
	Spec  QuerySpec
	Query *ir.Query
}

// Query returns the named query.
func (w *Workload) Query(name string) (QueryEntry, error) {
	e, ok := w.Queries[name]
	if !ok {
		return QueryEntry{}, fmt.Errorf("query %q not found (available: %s)",
			name, strings.Join(w.Names, ", "))
	}
	return e, nil
}

// CompileWorkload validates v against the workload schema and compiles
// every query.
//
// The CUE value is the file root:
//
//	prefixes: ex: "http://example.org/"
//	queries: lecturer: {
//		select: ["p"]
//		where: ["?p a ex:Lecturer", "?p ex:age 46"]
//	}
func CompileWorkload(v cue.Value) (*Workload, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	schema := v.Context().CompileString(workloadSchema, cue.Filename("workload.schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile workload schema: %w", err)
	}
	unified := schema.LookupPath(cue.ParsePath("#Workload")).Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	w := &Workload{
		Prefixes: DefaultPrefixes(),
		Queries:  make(map[string]QueryEntry),
	}

	if pv := unified.LookupPath(cue.ParsePath("prefixes")); pv.Exists() {
		var declared map[string]string
		if err := pv.Decode(&declared); err != nil {
			return nil, formatCUEError(err)
		}
		w.Prefixes = w.Prefixes.With(declared)
	}

	iter, err := unified.LookupPath(cue.ParsePath("queries")).Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		name := iter.Label()
		qv := iter.Value()

		var spec QuerySpec
		if err := qv.Decode(&spec); err != nil {
			return nil, formatCUEError(err)
		}
		q, err := BuildQuery(spec, w.Prefixes)
		if err != nil {
			return nil, &CompileError{
				Field:   "queries." + name,
				Message: err.Error(),
				Pos:     qv.Pos(),
				Err:     err,
			}
		}
		w.Names = append(w.Names, name)
		w.Queries[name] = QueryEntry{Spec: spec, Query: q}
	}

	if len(w.Names) == 0 {
		return nil, &CompileError{Field: "queries", Message: "at least one query is required", Pos: v.Pos()}
	}
	return w, nil
}

// LoadWorkload reads a workload from a .cue file or from a directory of
// .cue files forming one instance.
func LoadWorkload(path string) (*Workload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workload: %w", err)
	}

	ctx := cuecontext.New()
	var v cue.Value
	if info.IsDir() {
		instances := load.Instances([]string{"."}, &load.Config{Dir: path})
		if len(instances) == 0 {
			return nil, fmt.Errorf("no CUE instances loaded from %s", path)
		}
		if err := instances[0].Err; err != nil {
			return nil, fmt.Errorf("loading CUE files: %w", err)
		}
		v = ctx.BuildInstance(instances[0])
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read workload: %w", err)
		}
		v = ctx.CompileBytes(data, cue.Filename(path))
	}
	return CompileWorkload(v)
}
