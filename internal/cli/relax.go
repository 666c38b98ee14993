package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/qrelax/internal/engine"
	"github.com/roach88/qrelax/internal/ir"
)

// QueryOptions holds the flags shared by commands that run one workload
// query.
type QueryOptions struct {
	*RootOptions
	Query string
}

// RelaxResult is the JSON payload of the relax command.
type RelaxResult struct {
	Query  string         `json:"query"`
	Report *engine.Report `json:"report"`
}

// NewRelaxCommand creates the relax command.
func NewRelaxCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "relax <workload>",
		Short: "Find the k closest answers to a failing query",
		Long: `Repair a workload query: explain its failure, then relax it best-first
until k distinct results are found or the candidates run out.

Running out of candidates is reported with outcome "exhausted" and exit
code 0. SPARQL text of accepted queries is printed when stdout is a
terminal, and always included in JSON output.

Examples:
  qrelax relax testdata/lecturer/workload.cue --query lecturer
  qrelax relax workload.cue -q lecturer -k 3 --strategy mbs
  qrelax relax workload.cue -q lecturer --source sparql --endpoint http://localhost:3030/ds/sparql`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelax(cmd, opts, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.Query, "query", "q", "", "workload query to repair (optional for single-query workloads)")
	flags.IntP("k", "k", 0, "number of results wanted")
	flags.String("strategy", "", "search strategy (naive|smart|mbs)")
	flags.Int("k0", 0, "failure threshold: a query with at most k0 results fails")
	flags.Int("max-rounds", 0, "relaxation round quota")
	flags.Int("workers", 0, "parallel expansion workers (0 means GOMAXPROCS)")

	rootOpts.bind("relax.k", flags.Lookup("k"))
	rootOpts.bind("relax.strategy", flags.Lookup("strategy"))
	rootOpts.bind("relax.k0", flags.Lookup("k0"))
	rootOpts.bind("relax.max_rounds", flags.Lookup("max-rounds"))
	rootOpts.bind("relax.expand_workers", flags.Lookup("workers"))

	return cmd
}

// prepare compiles the workload, picks the query and builds an engine
// over the configured source. The returned close function releases the
// source.
func (o *QueryOptions) prepare(cmd *cobra.Command, f *OutputFormatter, path string) (string, *ir.Query, *engine.Engine, func() error, error) {
	w, err := loadWorkload(f, path)
	if err != nil {
		return "", nil, nil, nil, err
	}
	name, entry, err := pickQuery(w, o.Query)
	if err != nil {
		return "", nil, nil, nil, err
	}

	engineOpts, err := o.Config.EngineOptions()
	if err != nil {
		return "", nil, nil, nil, WrapExitError(ExitCommandError, "invalid relax configuration", err)
	}
	src, closeSource, err := openSource(cmd.Context(), o.Config.Source, o.Logger)
	if err != nil {
		return "", nil, nil, nil, WrapExitError(ExitCommandError, "failed to open source", err)
	}

	e := engine.New(src, append(engineOpts, engine.WithLogger(o.Logger))...)
	f.VerboseLog("Using %s source with %s strategy", o.Config.Source.Kind, e.Strategy())
	return name, entry.Query, e, closeSource, nil
}

// engineFailure maps an engine error to an exit error. Malformed queries
// are input failures; everything else is a source or runtime problem.
func engineFailure(f *OutputFormatter, err error) error {
	code := ErrCodeRepair
	exit := ExitCommandError
	if engine.IsMalformedQuery(err) {
		code, exit = ErrCodeQuery, ExitFailure
	}
	if f.Format == "json" {
		_ = f.Error(code, err.Error(), nil)
	}
	return WrapExitError(exit, "repair failed", err)
}

func runRelax(cmd *cobra.Command, opts *QueryOptions, path string) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	name, q, e, closeSource, err := opts.prepare(cmd, f, path)
	if err != nil {
		return err
	}
	defer closeSource()

	report, err := e.Repair(cmd.Context(), q, opts.Config.Relax.K)
	if err != nil {
		return engineFailure(f, err)
	}

	if f.Format == "json" {
		return f.Success(RelaxResult{Query: name, Report: report})
	}
	writeReport(cmd.OutOrStdout(), name, report, IsTerminal(cmd.OutOrStdout()))
	if report.Outcome == engine.OutcomeExhausted {
		fmt.Fprintf(cmd.ErrOrStderr(), "only %d of %d results found\n", len(report.Results), report.K)
	}
	return nil
}
