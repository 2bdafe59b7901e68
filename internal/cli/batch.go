package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/recordstore/internal/manifest"
	"github.com/roach88/recordstore/internal/registry"
)

// BatchOptions holds flags for the batch command.
type BatchOptions struct {
	*RootOptions
	Database string
}

// BatchResult reports a committed batch.
type BatchResult struct {
	Database   string `json:"database"`
	Operations int    `json:"operations"`
	Statements int    `json:"statements"`
}

func (r BatchResult) String() string {
	return fmt.Sprintf("%s: committed %d operations (%d statements)", r.Database, r.Operations, r.Statements)
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Apply a batch document in one transaction",
		Long: `Apply the insert, update and delete operations of a batch document.

All operations commit together or not at all. On failure the command
exits with status 1 and names the operation and argument tuple that
failed.

Example:
  recordstore batch --db notes changes.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "database name or path (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runBatch(opts *BatchOptions, cmd *cobra.Command, path string) error {
	doc, err := manifest.LoadBatch(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load batch", err)
	}
	ops, err := doc.DriverOperations()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load batch", err)
	}

	statements := 0
	for _, op := range ops {
		statements += len(op.ArgSets)
	}

	return opts.withRegistry(cmd, func(ctx context.Context, reg *registry.Registry) error {
		d, err := reg.Open(ctx, opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		if err := d.Batch(ctx, ops); err != nil {
			return WrapExitError(ExitFailure, "batch rolled back", err)
		}
		return opts.formatter(cmd).Success(BatchResult{
			Database:   d.Name(),
			Operations: len(ops),
			Statements: statements,
		})
	})
}
