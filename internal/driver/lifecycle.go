package driver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/recordstore/internal/schema"
	"github.com/roach88/recordstore/internal/store"
)

// localStorageSchema is applied after every setup so the local storage
// table exists even when the setup SQL does not declare it.
var localStorageSchema = fmt.Sprintf(
	`CREATE TABLE IF NOT EXISTS %s ("key" TEXT PRIMARY KEY NOT NULL, "value" TEXT NOT NULL)`,
	store.QuoteIdent(localStorageTable),
)

// ResolveSchema classifies the stored schema version against expected.
// It has no side effects; a newer schema on disk is reported as NeedsSetup
// and left alone.
func (d *Driver) ResolveSchema(ctx context.Context, expected int) (schema.Compatibility, error) {
	if expected <= 0 {
		return nil, fmt.Errorf("expected schema version must be positive, got %d", expected)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkOpen(); err != nil {
		return nil, err
	}

	stored, err := d.store.Version(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve schema: %w", err)
	}

	c := schema.Resolve(stored, expected)
	if setup, ok := c.(schema.NeedsSetup); ok && setup.Newer() {
		slog.Warn("database schema is newer than supported",
			"db", d.name,
			"stored", stored,
			"expected", expected,
		)
	}
	return c, nil
}

// Version returns the stored schema version.
func (d *Driver) Version(ctx context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkOpen(); err != nil {
		return 0, err
	}
	return d.store.Version(ctx)
}

// ResetDatabase destroys every table and view and installs setup.
//
// Dropping, running the setup SQL and writing the version happen in one
// transaction. The presence cache is cleared only once it has committed.
func (d *Driver) ResetDatabase(ctx context.Context, setup schema.Setup) error {
	if err := setup.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkOpen(); err != nil {
		return err
	}

	slog.Info("resetting database", "db", d.name, "version", setup.Version)

	err := d.store.InTx(ctx, func(tx *store.Tx) error {
		if err := tx.DropAll(ctx); err != nil {
			return newExecutionFailure("drop existing schema", err)
		}
		if err := tx.ExecScript(ctx, setup.SQL); err != nil {
			return newExecutionFailure("apply schema", err)
		}
		if _, err := tx.Exec(ctx, localStorageSchema); err != nil {
			return newExecutionFailure("create local storage", err)
		}
		if err := tx.SetVersion(ctx, setup.Version); err != nil {
			return newExecutionFailure("set schema version", err)
		}
		return nil
	})
	err = asDriverError("reset transaction failed", err)
	d.observer.ObserveSchemaChange(ChangeReset, setup.Version, err)
	if err != nil {
		slog.Error("database reset failed", "db", d.name, "error", err)
		return err
	}

	d.cache.Clear()
	return nil
}

// ApplyMigration runs m when the stored version equals m.From exactly.
//
// A mismatch fails with ErrCodeVersionMismatch before anything is written.
// The migration SQL and the new version commit together. Cached ids stay
// valid: migrations change the schema, not record identity.
func (d *Driver) ApplyMigration(ctx context.Context, m schema.Migration) error {
	if err := m.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkOpen(); err != nil {
		return err
	}

	stored, err := d.store.Version(ctx)
	if err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	if stored != m.From {
		err := newVersionMismatch(stored, m.From)
		d.observer.ObserveSchemaChange(ChangeMigration, m.To, err)
		return err
	}

	slog.Info("migrating database", "db", d.name, "from", m.From, "to", m.To)

	err = d.store.InTx(ctx, func(tx *store.Tx) error {
		if strings.TrimSpace(m.SQL) != "" {
			if err := tx.ExecScript(ctx, m.SQL); err != nil {
				return newExecutionFailure("apply migration", err)
			}
		}
		if err := tx.SetVersion(ctx, m.To); err != nil {
			return newExecutionFailure("set schema version", err)
		}
		return nil
	})
	err = asDriverError("migration transaction failed", err)
	d.observer.ObserveSchemaChange(ChangeMigration, m.To, err)
	if err != nil {
		slog.Error("database migration failed", "db", d.name, "error", err)
	}
	return err
}

// UnsafeExecute runs a script of statements in one transaction with no
// cache effect. Scripts that delete or rewrite records leave stale
// presence entries behind; callers own that consequence.
func (d *Driver) UnsafeExecute(ctx context.Context, script string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkOpen(); err != nil {
		return err
	}

	err := d.store.InTx(ctx, func(tx *store.Tx) error {
		return tx.ExecScript(ctx, script)
	})
	return asDriverError("execute script", err)
}

// Tables lists the user tables in the database, local storage included.
func (d *Driver) Tables(ctx context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	return d.store.ListTables(ctx)
}
