package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/qrelax/internal/compiler"
	"github.com/roach88/qrelax/internal/config"
	"github.com/roach88/qrelax/internal/store"
)

// LoadResult is the JSON payload of the load command.
type LoadResult struct {
	Path     string      `json:"path"`
	Inserted int         `json:"inserted"`
	Stats    store.Stats `json:"stats"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <graph.yaml>",
		Short: "Load a graph fixture into the SQLite database",
		Long: `Load the triples of a YAML graph fixture into the SQLite graph database.

Triples already present are skipped, so loading is idempotent.

Examples:
  qrelax load testdata/lecturer/graph.yaml
  qrelax load graph.yaml --db ./graph.db --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, rootOpts, args[0])
		},
	}
}

func runLoad(cmd *cobra.Command, opts *RootOptions, path string) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
	cfg := opts.Config.Source
	if cfg.Kind != config.SourceSQLite {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("load writes to the sqlite source, not %s", cfg.Kind))
	}

	graph, err := compiler.LoadGraph(path)
	if err != nil {
		if f.Format == "json" {
			_ = f.Error(ErrCodeLoad, err.Error(), path)
		}
		return WrapExitError(ExitFailure, "invalid graph", err)
	}
	f.VerboseLog("Parsed %d triples from %s", len(graph.Triples), path)

	st, err := openStore(cfg.Path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open source", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	inserted, err := st.InsertTriples(ctx, graph.Triples)
	if err != nil {
		return fmt.Errorf("failed to load graph: %w", err)
	}
	stats, err := st.Stats(ctx)
	if err != nil {
		return err
	}
	opts.Logger.InfoContext(ctx, "graph loaded", "path", cfg.Path, "inserted", inserted, "triples", stats.Triples)

	if f.Format == "json" {
		return f.Success(LoadResult{Path: cfg.Path, Inserted: inserted, Stats: stats})
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Loaded %d new triples into %s\n", inserted, cfg.Path)
	fmt.Fprintf(w, "Database holds %d triples over %d terms\n", stats.Triples, stats.Terms)
	return nil
}
