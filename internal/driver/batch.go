package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/recordstore/internal/store"
)

// OpKind selects how a batch operation affects the presence cache.
type OpKind int

const (
	// OpUpdate executes without touching the cache.
	OpUpdate OpKind = iota
	// OpInsert marks the first parameter of each tuple present on commit.
	OpInsert
	// OpDelete marks the first parameter of each tuple absent on commit.
	OpDelete
)

// String returns the lowercase kind name.
func (k OpKind) String() string {
	switch k {
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return fmt.Sprintf("OpKind(%d)", int(k))
	}
}

// ParseOpKind maps "insert", "update" or "delete" to an OpKind.
func ParseOpKind(s string) (OpKind, error) {
	switch strings.ToLower(s) {
	case "insert":
		return OpInsert, nil
	case "update":
		return OpUpdate, nil
	case "delete":
		return OpDelete, nil
	default:
		return 0, fmt.Errorf("unknown operation kind %q", s)
	}
}

// Operation is one SQL template executed once per argument tuple.
//
// For OpInsert and OpDelete the first parameter of every tuple is the
// affected record's id and Table names the cache set it belongs to.
type Operation struct {
	Kind    OpKind
	Table   string
	SQL     string
	ArgSets [][]any
}

// Insert returns an operation whose tuples create records in table.
func Insert(table, sql string, argSets ...[]any) Operation {
	return Operation{Kind: OpInsert, Table: table, SQL: sql, ArgSets: argSets}
}

// Update returns an operation with no cache effect.
func Update(sql string, argSets ...[]any) Operation {
	return Operation{Kind: OpUpdate, SQL: sql, ArgSets: argSets}
}

// Delete returns an operation whose tuples remove records from table.
func Delete(table, sql string, argSets ...[]any) Operation {
	return Operation{Kind: OpDelete, Table: table, SQL: sql, ArgSets: argSets}
}

func (op Operation) affectsCache() bool {
	return op.Kind == OpInsert || op.Kind == OpDelete
}

func (op Operation) validate() error {
	switch op.Kind {
	case OpInsert, OpUpdate, OpDelete:
	default:
		return fmt.Errorf("unknown operation kind %d", int(op.Kind))
	}
	if strings.TrimSpace(op.SQL) == "" {
		return errors.New("sql is required")
	}
	if op.affectsCache() && op.Table == "" {
		return fmt.Errorf("%s requires a table", op.Kind)
	}
	return nil
}

// validateArgs accepts null, boolean, number and string values only.
// Cache-affecting operations also need a string record id first.
func (op Operation) validateArgs(args []any) error {
	if op.affectsCache() {
		if len(args) == 0 {
			return fmt.Errorf("%s requires the record id as first parameter", op.Kind)
		}
		if _, ok := args[0].(string); !ok {
			return fmt.Errorf("record id must be a string, got %T", args[0])
		}
	}
	for i, arg := range args {
		switch arg.(type) {
		case nil, bool, string,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
		default:
			return fmt.Errorf("parameter %d has unsupported type %T", i, arg)
		}
	}
	return nil
}

// Batch applies ops in order inside one transaction.
//
// Every tuple is validated and executed; the first failure rolls the whole
// batch back and returns an *Error naming the operation and tuple. Only
// after a successful commit are the cache effects applied: inserted ids
// become present and deleted ids absent. Both happen before Batch returns.
func (d *Driver) Batch(ctx context.Context, ops []Operation) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkOpen(); err != nil {
		return err
	}

	start := time.Now()
	statements := 0
	err := d.store.InTx(ctx, func(tx *store.Tx) error {
		for i, op := range ops {
			if err := op.validate(); err != nil {
				return &Error{
					Code:      ErrCodeMalformedArgument,
					Message:   "invalid operation",
					Operation: i,
					ArgSet:    -1,
					Table:     op.Table,
					Err:       err,
				}
			}
			for j, args := range op.ArgSets {
				if err := op.validateArgs(args); err != nil {
					return &Error{
						Code:      ErrCodeMalformedArgument,
						Message:   "invalid " + op.Kind.String() + " arguments",
						Operation: i,
						ArgSet:    j,
						Table:     op.Table,
						Err:       err,
					}
				}
				if _, err := tx.Exec(ctx, op.SQL, args...); err != nil {
					return &Error{
						Code:      ErrCodeExecutionFailure,
						Message:   op.Kind.String() + " failed",
						Operation: i,
						ArgSet:    j,
						Table:     op.Table,
						Err:       err,
					}
				}
				statements++
			}
		}
		return nil
	})
	err = asDriverError("batch transaction failed", err)
	d.observer.ObserveBatch(len(ops), statements, time.Since(start), err)

	if err != nil {
		slog.Warn("batch rolled back", "db", d.name, "operations", len(ops), "error", err)
		return err
	}

	// Committed: replay the cache effects.
	for _, op := range ops {
		for _, args := range op.ArgSets {
			switch op.Kind {
			case OpInsert:
				d.cache.MarkPresent(op.Table, args[0].(string))
			case OpDelete:
				d.cache.MarkAbsent(op.Table, args[0].(string))
			}
		}
	}

	slog.Debug("batch committed",
		"db", d.name,
		"operations", len(ops),
		"statements", statements,
		"elapsed", time.Since(start),
	)
	return nil
}
