package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/qrelax/internal/compiler"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Graph string
}

// WorkloadSummary describes one compiled query.
type WorkloadSummary struct {
	Name       string   `json:"name"`
	Conditions []string `json:"conditions"`
	Select     []string `json:"select"`
	SPARQL     string   `json:"sparql"`
}

// ValidateResult is the JSON payload of the validate command.
type ValidateResult struct {
	Workload string            `json:"workload"`
	Queries  []WorkloadSummary `json:"queries"`
	Triples  int               `json:"triples,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <workload>",
		Short: "Compile a workload and report problems",
		Long: `Compile a CUE workload without touching a data source.

Reports the first problem with its file position. With --graph, the graph
fixture is parsed as well.

Exit codes:
  0 - Workload is valid
  1 - Workload or graph is invalid
  2 - Command error

Examples:
  qrelax validate testdata/lecturer/workload.cue
  qrelax validate workload.cue --graph graph.yaml --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Graph, "graph", "", "graph fixture to parse alongside the workload")
	return cmd
}

func runValidate(cmd *cobra.Command, opts *ValidateOptions, path string) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	w, err := loadWorkload(f, path)
	if err != nil {
		return err
	}

	result := ValidateResult{Workload: path, Queries: make([]WorkloadSummary, 0, len(w.Names))}
	for _, name := range w.Names {
		q := w.Queries[name].Query
		result.Queries = append(result.Queries, WorkloadSummary{
			Name:       name,
			Conditions: q.Labels(),
			Select:     q.Projection(),
			SPARQL:     q.SPARQL(),
		})
	}

	if opts.Graph != "" {
		g, err := compiler.LoadGraph(opts.Graph)
		if err != nil {
			if f.Format == "json" {
				_ = f.Error(ErrCodeLoad, err.Error(), opts.Graph)
			}
			return WrapExitError(ExitFailure, "invalid graph", err)
		}
		result.Triples = len(g.Triples)
	}

	if f.Format == "json" {
		return f.Success(result)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ %s: %d queries\n", path, len(result.Queries))
	for _, q := range result.Queries {
		fmt.Fprintf(out, "  %s %s\n", q.Name, labelSet(q.Conditions))
		f.VerboseLog("%s", q.SPARQL)
	}
	if opts.Graph != "" {
		fmt.Fprintf(out, "✓ %s: %d triples\n", opts.Graph, result.Triples)
	}
	return nil
}
