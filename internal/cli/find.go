package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/recordstore/internal/driver"
	"github.com/roach88/recordstore/internal/registry"
)

// FindOptions holds flags for the find command.
type FindOptions struct {
	*RootOptions
	Database string
}

// NewFindCommand creates the find command.
func NewFindCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FindOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "find <table> <id>",
		Short: "Look up one record by id",
		Long: `Look up one record by id and print its columns.

Exits with status 1 when the record does not exist.

Example:
  recordstore find --db notes notes n1`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(opts, cmd, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "database name or path (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runFind(opts *FindOptions, cmd *cobra.Command, table, id string) error {
	return opts.withRegistry(cmd, func(ctx context.Context, reg *registry.Registry) error {
		d, err := reg.Open(ctx, opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}

		res, err := d.Find(ctx, table, id)
		if err != nil {
			return WrapExitError(ExitCommandError, "find failed", err)
		}
		if _, ok := res.(driver.NotFound); ok {
			return NewExitError(ExitFailure, ErrCodeNotFound, fmt.Sprintf("record %s/%s not found", table, id))
		}
		return opts.formatter(cmd).Success(newRecordView(table, res))
	})
}
