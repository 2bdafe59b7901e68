package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/recordstore/internal/registry"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Database string
	Table    string // presence-aware query against this table
	IDs      bool   // return only the id column
	Raw      bool   // return rows as-is
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <sql> [params...]",
		Short: "Run a read query",
		Long: `Run a read query with positional parameters.

Modes:
  --table T   report each row's record as materialized or known
  --ids       print the id column only
  --raw       print every column (default)

Parameters "null" bind NULL and numeric parameters bind numbers; all
others bind text.

Examples:
  recordstore query --db notes "SELECT * FROM notes WHERE pinned = ?" 1
  recordstore query --db notes --table notes "SELECT * FROM notes"
  recordstore query --db notes --ids "SELECT id FROM notes ORDER BY id"`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd, args[0], parseParams(args[1:]))
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "database name or path (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Table, "table", "", "table whose records the query returns")
	cmd.Flags().BoolVar(&opts.IDs, "ids", false, "print ids only")
	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "print raw rows")
	cmd.MarkFlagsMutuallyExclusive("table", "ids", "raw")

	return cmd
}

func runQuery(opts *QueryOptions, cmd *cobra.Command, query string, params []any) error {
	return opts.withRegistry(cmd, func(ctx context.Context, reg *registry.Registry) error {
		d, err := reg.Open(ctx, opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}

		var result fmt.Stringer
		switch {
		case opts.Table != "":
			results, err := d.CachedQuery(ctx, opts.Table, query, params...)
			if err != nil {
				return WrapExitError(ExitCommandError, "query failed", err)
			}
			list := make(RecordList, 0, len(results))
			for _, r := range results {
				list = append(list, newRecordView(opts.Table, r))
			}
			result = list
		case opts.IDs:
			ids, err := d.QueryIDs(ctx, query, params...)
			if err != nil {
				return WrapExitError(ExitCommandError, "query failed", err)
			}
			result = IDList(ids)
		default:
			rows, err := d.RawQuery(ctx, query, params...)
			if err != nil {
				return WrapExitError(ExitCommandError, "query failed", err)
			}
			result = newRowSet(rows)
		}

		return opts.formatter(cmd).Success(result)
	})
}

// CountOptions holds flags for the count command.
type CountOptions struct {
	*RootOptions
	Database string
}

// CountResult is the value of a count query.
type CountResult struct {
	Count int `json:"count"`
}

func (r CountResult) String() string {
	return fmt.Sprint(r.Count)
}

// NewCountCommand creates the count command.
func NewCountCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CountOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "count <sql> [params...]",
		Short: "Run a count query",
		Long: `Run a query whose first column is a count and print it.

Example:
  recordstore count --db notes "SELECT COUNT(*) FROM notes WHERE pinned = ?" 1`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCount(opts, cmd, args[0], parseParams(args[1:]))
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "database name or path (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runCount(opts *CountOptions, cmd *cobra.Command, query string, params []any) error {
	return opts.withRegistry(cmd, func(ctx context.Context, reg *registry.Registry) error {
		d, err := reg.Open(ctx, opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		n, err := d.Count(ctx, query, params...)
		if err != nil {
			return WrapExitError(ExitCommandError, "count failed", err)
		}
		return opts.formatter(cmd).Success(CountResult{Count: n})
	})
}
