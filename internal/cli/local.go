package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/recordstore/internal/registry"
)

// LocalOptions holds flags for the local command.
type LocalOptions struct {
	*RootOptions
	Database string
}

// LocalResult is a local storage entry.
type LocalResult struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (r LocalResult) String() string {
	return r.Value
}

// NewLocalCommand creates the local command.
func NewLocalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LocalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "local <key>",
		Short: "Read a local storage value",
		Long: `Print the value stored under a key in the local storage table.

Exits with status 1 when the key is missing.

Example:
  recordstore local --db notes last_synced_at`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocal(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "database name or path (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runLocal(opts *LocalOptions, cmd *cobra.Command, key string) error {
	return opts.withRegistry(cmd, func(ctx context.Context, reg *registry.Registry) error {
		d, err := reg.Open(ctx, opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		value, ok, err := d.GetLocal(ctx, key)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read local storage", err)
		}
		if !ok {
			return NewExitError(ExitFailure, ErrCodeNotFound, fmt.Sprintf("local key %q not found", key))
		}
		return opts.formatter(cmd).Success(LocalResult{Key: key, Value: value})
	})
}
