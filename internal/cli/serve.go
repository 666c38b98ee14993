package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/qrelax/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the repair API over HTTP",
		Long: `Serve the repair API over HTTP until interrupted.

Routes:
  POST /v1/repair   repair a query, returns the report
  POST /v1/analyze  explain a failing query
  GET  /healthz     liveness
  GET  /metrics     Prometheus metrics

Examples:
  qrelax serve
  qrelax serve --addr :8470 --source sparql --endpoint http://localhost:3030/ds/sparql`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, rootOpts)
		},
	}

	cmd.Flags().String("addr", "", "listen address")
	rootOpts.bind("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func runServe(cmd *cobra.Command, opts *RootOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engineOpts, err := opts.Config.EngineOptions()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid relax configuration", err)
	}
	src, closeSource, err := openSource(ctx, opts.Config.Source, opts.Logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open source", err)
	}
	defer closeSource()

	srv := server.New(src,
		server.WithEngineOptions(engineOpts...),
		server.WithDefaultK(opts.Config.Relax.K),
		server.WithLogger(opts.Logger),
	)
	return srv.Run(ctx, opts.Config.Server.Addr)
}
