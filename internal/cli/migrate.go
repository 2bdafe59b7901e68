package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/recordstore/internal/manifest"
	"github.com/roach88/recordstore/internal/registry"
)

// MigrateOptions holds flags for the migrate command.
type MigrateOptions struct {
	*RootOptions
	Database  string
	Migration string
}

// MigrateResult reports an applied migration.
type MigrateResult struct {
	Database string `json:"database"`
	From     int    `json:"from"`
	To       int    `json:"to"`
}

func (r MigrateResult) String() string {
	return fmt.Sprintf("%s: migrated from version %d to %d", r.Database, r.From, r.To)
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MigrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply a migration document",
		Long: `Apply a migration to a database.

The stored version must equal the migration's "from" version exactly;
otherwise nothing is written and the command exits with status 1.

Example:
  recordstore migrate --db notes --migration 0003.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "database name or path (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Migration, "migration", "", "migration document (required)")
	_ = cmd.MarkFlagRequired("migration")

	return cmd
}

func runMigrate(opts *MigrateOptions, cmd *cobra.Command) error {
	doc, err := manifest.LoadMigration(opts.Migration)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load migration", err)
	}

	return opts.withRegistry(cmd, func(ctx context.Context, reg *registry.Registry) error {
		if _, err := reg.Open(ctx, opts.Database); err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		d, err := reg.SetUpWithMigrations(ctx, opts.Database, doc.Migration())
		if err != nil {
			return WrapExitError(ExitFailure, "migration failed", err)
		}
		return opts.formatter(cmd).Success(MigrateResult{
			Database: d.Name(),
			From:     doc.From,
			To:       doc.To,
		})
	})
}
