package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/recordstore/internal/manifest"
	"github.com/roach88/recordstore/internal/registry"
)

// SetupOptions holds flags for the setup command.
type SetupOptions struct {
	*RootOptions
	Database string
	Schema   string
	Force    bool
}

// SetupResult reports an installed schema.
type SetupResult struct {
	Database string `json:"database"`
	Previous int    `json:"previous_version"`
	Version  int    `json:"version"`
}

func (r SetupResult) String() string {
	return fmt.Sprintf("%s: installed schema version %d (was %d)", r.Database, r.Version, r.Previous)
}

// NewSetupCommand creates the setup command.
func NewSetupCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SetupOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Rebuild a database from a schema document",
		Long: `Drop every table and view of a database and install a schema.

The schema document (YAML, JSON or CUE) carries the version and the SQL
that creates it. Setup discards all data, so a database that already has
a schema is only rebuilt with --force.

Examples:
  recordstore setup --db notes --schema schema.yaml
  recordstore setup --db notes --schema schema.cue --force`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "database name or path (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "schema document (required)")
	_ = cmd.MarkFlagRequired("schema")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "rebuild even if the database has a schema")

	return cmd
}

func runSetup(opts *SetupOptions, cmd *cobra.Command) error {
	doc, err := manifest.LoadSchema(opts.Schema)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load schema", err)
	}

	return opts.withRegistry(cmd, func(ctx context.Context, reg *registry.Registry) error {
		d, err := reg.Open(ctx, opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}

		previous, err := d.Version(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read schema version", err)
		}
		if previous != 0 && !opts.Force {
			return NewExitError(ExitFailure, ErrCodeFailure,
				fmt.Sprintf("database %s has schema version %d; use --force to discard it", d.Name(), previous))
		}

		if _, err := reg.SetUpWithSchema(ctx, opts.Database, doc.Setup()); err != nil {
			return WrapExitError(ExitFailure, "setup failed", err)
		}

		return opts.formatter(cmd).Success(SetupResult{
			Database: d.Name(),
			Previous: previous,
			Version:  doc.Version,
		})
	})
}
