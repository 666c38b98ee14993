package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/qrelax/internal/engine"
)

// AnalyzeResult is the JSON payload of the analyze command.
type AnalyzeResult struct {
	Query    string           `json:"query"`
	Analysis *engine.Analysis `json:"analysis"`
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "analyze <workload>",
		Short: "Explain why a query fails",
		Long: `Compute the minimal failing subqueries (MFS) and maximal succeeding
subqueries (XSS) of a workload query without relaxing it.

Examples:
  qrelax analyze testdata/lecturer/workload.cue --query lecturer
  qrelax analyze workload.cue -q lecturer --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "workload query to analyze (optional for single-query workloads)")
	return cmd
}

func runAnalyze(cmd *cobra.Command, opts *QueryOptions, path string) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	name, q, e, closeSource, err := opts.prepare(cmd, f, path)
	if err != nil {
		return err
	}
	defer closeSource()

	analysis, err := e.Analyze(cmd.Context(), q)
	if err != nil {
		return engineFailure(f, err)
	}

	if f.Format == "json" {
		return f.Success(AnalyzeResult{Query: name, Analysis: analysis})
	}
	writeAnalysis(cmd.OutOrStdout(), name, analysis, IsTerminal(cmd.OutOrStdout()))
	return nil
}
