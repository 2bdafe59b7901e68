package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/roach88/recordstore/internal/config"
	"github.com/roach88/recordstore/internal/metrics"
	"github.com/roach88/recordstore/internal/registry"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	DataDir string // overrides RECORDSTORE_DATA_DIR when set
	Driver  string // overrides RECORDSTORE_SQL_DRIVER when set
	Metrics bool   // dump Prometheus metrics to stderr after the command
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the recordstore CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recordstore",
		Short: "recordstore - record presence cache over SQLite",
		Long: `Inspect and change local SQLite record databases.

Databases are named; a name resolves to <data-dir>/<name>.db unless it is
an absolute path, a file: URI or an in-memory name.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return WrapExitError(ExitCommandError, "invalid flags",
					fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			cfg, err := opts.config()
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			setupLogging(cmd.ErrOrStderr(), cfg.LogLevel, opts.Verbose)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "directory holding named databases (default $RECORDSTORE_DATA_DIR or .)")
	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "SQL driver: sqlite3 or sqlite (default $RECORDSTORE_SQL_DRIVER or sqlite3)")
	cmd.PersistentFlags().BoolVar(&opts.Metrics, "metrics", false, "print Prometheus metrics to stderr on exit")

	// Add subcommands
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewSetupCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewFindCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewCountCommand(opts))
	cmd.AddCommand(NewLocalCommand(opts))
	cmd.AddCommand(NewBatchCommand(opts))

	return cmd
}

// Execute runs the CLI with args and returns the process exit code.
// Errors are reported on stdout in the selected format.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	format := opts.Format
	if !slices.Contains(ValidFormats, format) {
		format = "text"
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Reported {
		return exitErr.Code
	}

	f := NewOutputFormatter(format, stdout, opts.Verbose)
	_ = f.Error(errorCode(err), err.Error(), errorDetails(err))
	return GetExitCode(err)
}

// config loads the environment and applies flag overrides.
func (o *RootOptions) config() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if o.DataDir != "" {
		cfg.DataDir = o.DataDir
	}
	if o.Driver != "" {
		cfg.SQLDriver = o.Driver
	}
	return cfg, nil
}

// formatter returns the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return NewOutputFormatter(o.Format, cmd.OutOrStdout(), o.Verbose)
}

// withRegistry runs fn against a registry that lives for one command.
// Every database it opened is closed afterwards, and metrics are dumped
// when --metrics is set, even if fn failed.
func (o *RootOptions) withRegistry(cmd *cobra.Command, fn func(ctx context.Context, reg *registry.Registry) error) error {
	cfg, err := o.config()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		promReg *prometheus.Registry
		regOpts []registry.Option
	)
	if o.Metrics {
		promReg = prometheus.NewRegistry()
		regOpts = append(regOpts, registry.WithObserver(metrics.NewCollector(promReg)))
	}

	reg := registry.New(cfg, regOpts...)
	defer func() {
		if closeErr := reg.CloseAll(); closeErr != nil {
			slog.Error("error closing databases", "error", closeErr)
		}
	}()

	err = fn(ctx, reg)

	if promReg != nil {
		if dumpErr := dumpMetrics(cmd.ErrOrStderr(), promReg); dumpErr != nil {
			slog.Error("error writing metrics", "error", dumpErr)
		}
	}
	return err
}

// setupLogging installs the process-wide slog handler.
func setupLogging(w io.Writer, level slog.Level, verbose bool) {
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

// dumpMetrics writes every gathered metric family in the text exposition
// format.
func dumpMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
