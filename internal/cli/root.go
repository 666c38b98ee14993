package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/qrelax/internal/config"
	"github.com/roach88/qrelax/internal/ir"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string
	LogFormat  string

	// Config is the effective configuration, resolved before any
	// subcommand runs.
	Config *config.Config

	// Logger is the process logger, installed as the slog default.
	Logger *slog.Logger

	viper *viper.Viper
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the qrelax CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{viper: config.New()}

	cmd := &cobra.Command{
		Use:   "qrelax",
		Short: "qrelax - cooperative answers for failing RDF queries",
		Long: `qrelax explains why a conjunctive query over an RDF graph returns too
few answers, and finds the relaxations of it most similar to the original
that return enough.`,
		Version:       ir.EngineVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.ConfigFile, "config", "", "configuration file (default ./qrelax.toml, then the XDG config dir)")
	flags.String("log-format", "", "log format (text|json)")
	flags.String("source", "", "data source kind (sqlite|sparql)")
	flags.String("db", "", "SQLite graph database path")
	flags.String("endpoint", "", "SPARQL query endpoint URL")

	opts.bind("log.format", flags.Lookup("log-format"))
	opts.bind("source.kind", flags.Lookup("source"))
	opts.bind("source.path", flags.Lookup("db"))
	opts.bind("source.endpoint", flags.Lookup("endpoint"))

	// Add subcommands
	cmd.AddCommand(NewLoadCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewAnalyzeCommand(opts))
	cmd.AddCommand(NewRelaxCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}

// bind ties a flag to a configuration key. A flag that is set on the
// command line overrides the environment, the file and the default.
func (o *RootOptions) bind(key string, flag *pflag.Flag) {
	if err := o.viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag for %s: %v", key, err))
	}
}

// resolve validates global flags, reads the configuration and installs
// the process logger.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError,
			fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	if _, err := config.ReadFile(o.viper, o.ConfigFile); err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	cfg, err := config.Decode(o.viper)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	o.Config = cfg

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.Log, o.Verbose)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to configure logging", err)
	}
	o.Logger = logger
	slog.SetDefault(logger)
	return nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
