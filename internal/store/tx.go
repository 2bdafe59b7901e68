package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// conn is the subset of *sql.DB and *sql.Tx used by the shared helpers.
type conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Tx is an open transaction handed to the function passed to Store.InTx.
type Tx struct {
	tx *sql.Tx
}

// Exec runs a single statement with positional arguments.
func (t *Tx) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return t.tx.ExecContext(ctx, query, args...)
}

// ExecScript runs a script of one or more semicolon separated statements
// without arguments, such as a schema or migration.
func (t *Tx) ExecScript(ctx context.Context, script string) error {
	if _, err := t.tx.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("exec script: %w", err)
	}
	return nil
}

// Query runs a query and materializes every row.
func (t *Tx) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	return queryRows(ctx, t.tx, query, args...)
}

// Version returns the schema version as seen by this transaction.
func (t *Tx) Version(ctx context.Context) (int, error) {
	return userVersion(ctx, t.tx)
}

// SetVersion writes the schema version slot. The write commits or rolls
// back with the transaction.
func (t *Tx) SetVersion(ctx context.Context, version int) error {
	return setUserVersion(ctx, t.tx, version)
}

// ListTables returns the names of user tables, excluding SQLite internals.
func (t *Tx) ListTables(ctx context.Context) ([]string, error) {
	return listTables(ctx, t.tx)
}

// DropAll drops every user view and table (their indexes and triggers go
// with them) and resets the schema version to 0.
func (t *Tx) DropAll(ctx context.Context) error {
	objects, err := catalog(ctx, t.tx)
	if err != nil {
		return err
	}

	// Views first: a view may reference any table.
	for _, kind := range []string{"view", "table"} {
		for _, obj := range objects {
			if obj.kind != kind {
				continue
			}
			stmt := fmt.Sprintf("DROP %s IF EXISTS %s", kind, QuoteIdent(obj.name))
			if _, err := t.tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("drop %s %s: %w", kind, obj.name, err)
			}
			slog.Debug("dropped schema object", "kind", kind, "name", obj.name)
		}
	}

	return setUserVersion(ctx, t.tx, 0)
}

type catalogObject struct {
	name string
	kind string
}

// catalog lists user tables and views in name order.
func catalog(ctx context.Context, c conn) ([]catalogObject, error) {
	rows, err := c.QueryContext(ctx, `
		SELECT name, type FROM sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite\_%' ESCAPE '\'
		ORDER BY name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	var objects []catalogObject
	for rows.Next() {
		var obj catalogObject
		if err := rows.Scan(&obj.name, &obj.kind); err != nil {
			return nil, fmt.Errorf("scan catalog: %w", err)
		}
		objects = append(objects, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog: %w", err)
	}
	return objects, nil
}

func listTables(ctx context.Context, c conn) ([]string, error) {
	objects, err := catalog(ctx, c)
	if err != nil {
		return nil, err
	}
	names := []string{}
	for _, obj := range objects {
		if obj.kind == "table" {
			names = append(names, obj.name)
		}
	}
	return names, nil
}

func userVersion(ctx context.Context, c conn) (int, error) {
	var version int
	if err := c.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("get user_version: %w", err)
	}
	return version, nil
}

func setUserVersion(ctx context.Context, c conn, version int) error {
	if version < 0 {
		return fmt.Errorf("set user_version: version must not be negative, got %d", version)
	}
	// PRAGMA does not accept bound parameters.
	if _, err := c.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}
