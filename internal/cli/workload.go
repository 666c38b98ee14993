package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/qrelax/internal/compiler"
)

// loadWorkload compiles a workload file. Compile problems are failures of
// the input (exit 1), not of the command.
func loadWorkload(f *OutputFormatter, path string) (*compiler.Workload, error) {
	w, err := compiler.LoadWorkload(path)
	if err == nil {
		return w, nil
	}

	var cerr *compiler.CompileError
	details := any(nil)
	if errors.As(err, &cerr) {
		details = map[string]any{"field": cerr.Field, "message": cerr.Message}
	}
	if f.Format == "json" {
		if encErr := f.Error(ErrCodeWorkload, err.Error(), details); encErr != nil {
			return nil, encErr
		}
	}
	return nil, WrapExitError(ExitFailure, "invalid workload", err)
}

// pickQuery selects the named query. Without a name, a workload holding a
// single query selects it.
func pickQuery(w *compiler.Workload, name string) (string, compiler.QueryEntry, error) {
	if name == "" {
		if len(w.Names) != 1 {
			return "", compiler.QueryEntry{}, NewExitError(ExitCommandError,
				fmt.Sprintf("--query is required (available: %s)", strings.Join(w.Names, ", ")))
		}
		name = w.Names[0]
	}
	entry, err := w.Query(name)
	if err != nil {
		return "", compiler.QueryEntry{}, WrapExitError(ExitCommandError, "unknown query", err)
	}
	return name, entry, nil
}
