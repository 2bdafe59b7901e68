package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/recordstore/internal/registry"
	"github.com/roach88/recordstore/internal/schema"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	Database string
	Expect   int
}

// StatusResult describes a database's schema state.
type StatusResult struct {
	Database      string   `json:"database"`
	Version       int      `json:"version"`
	Expected      int      `json:"expected,omitempty"`
	Compatibility string   `json:"compatibility,omitempty"`
	Compatible    bool     `json:"compatible"`
	Tables        []string `json:"tables"`
}

func (r StatusResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "database: %s\n", r.Database)
	fmt.Fprintf(&b, "version:  %d\n", r.Version)
	if r.Expected > 0 {
		fmt.Fprintf(&b, "expected: %d (%s)\n", r.Expected, r.Compatibility)
	}
	fmt.Fprintf(&b, "tables:   %s", strings.Join(r.Tables, ", "))
	return b.String()
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the schema version of a database",
		Long: `Show the stored schema version and tables of a database.

With --expect the stored version is classified against the version the
application expects: compatible, needs setup or needs migration. A
database that is not compatible exits with status 1.

Examples:
  recordstore status --db notes
  recordstore status --db notes --expect 3 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "database name or path (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().IntVar(&opts.Expect, "expect", 0, "schema version the application expects")

	return cmd
}

func runStatus(opts *StatusOptions, cmd *cobra.Command) error {
	if opts.Expect < 0 {
		return NewExitError(ExitCommandError, ErrCodeCommand, "--expect must not be negative")
	}

	return opts.withRegistry(cmd, func(ctx context.Context, reg *registry.Registry) error {
		d, err := reg.Open(ctx, opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}

		version, err := d.Version(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read schema version", err)
		}
		tables, err := d.Tables(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list tables", err)
		}

		result := StatusResult{
			Database:   d.Name(),
			Version:    version,
			Compatible: true,
			Tables:     tables,
		}

		if opts.Expect > 0 {
			c, err := d.ResolveSchema(ctx, opts.Expect)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to resolve schema", err)
			}
			result.Expected = opts.Expect
			result.Compatibility = schema.Describe(c)
			result.Compatible = schema.IsCompatible(c)
		}

		if err := opts.formatter(cmd).Success(result); err != nil {
			return err
		}
		if !result.Compatible {
			return &ExitError{
				Code:     ExitFailure,
				ErrCode:  ErrCodeIncompatible,
				Message:  fmt.Sprintf("database %s: %s", result.Database, result.Compatibility),
				Reported: true,
			}
		}
		return nil
	})
}
