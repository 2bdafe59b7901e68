package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Driver names accepted in Options.Driver.
const (
	DriverCGO  = "sqlite3" // github.com/mattn/go-sqlite3
	DriverPure = "sqlite"  // modernc.org/sqlite
)

// ErrClosed is returned by every operation on a closed Store.
var ErrClosed = errors.New("store is closed")

var validSynchronous = []string{"OFF", "NORMAL", "FULL", "EXTRA"}

// Options configure how a database is opened.
type Options struct {
	// Driver is the database/sql driver name (DriverCGO or DriverPure).
	Driver string

	// BusyTimeout is how long SQLite waits on a lock before SQLITE_BUSY.
	BusyTimeout time.Duration

	// Synchronous is the PRAGMA synchronous level (OFF|NORMAL|FULL|EXTRA).
	Synchronous string

	// ExclusiveLocking holds the file lock for the lifetime of the
	// connection. Other processes cannot read the database meanwhile.
	ExclusiveLocking bool

	// TempStoreMemory keeps temporary tables and indices in memory.
	TempStoreMemory bool
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Driver:      DriverCGO,
		BusyTimeout: 5 * time.Second,
		Synchronous: "NORMAL",
	}
}

func (o Options) validate() error {
	switch o.Driver {
	case DriverCGO, DriverPure:
	default:
		return fmt.Errorf("unsupported sql driver %q", o.Driver)
	}
	if o.BusyTimeout < 0 {
		return fmt.Errorf("busy timeout must not be negative, got %s", o.BusyTimeout)
	}
	if !slices.Contains(validSynchronous, strings.ToUpper(o.Synchronous)) {
		return fmt.Errorf("invalid synchronous mode %q: must be one of %v", o.Synchronous, validSynchronous)
	}
	return nil
}

// pragmas lists the configuration statements applied at open, in order.
func (o Options) pragmas() []string {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", o.BusyTimeout.Milliseconds()),
		"PRAGMA synchronous = " + strings.ToUpper(o.Synchronous),
	}
	if o.ExclusiveLocking {
		pragmas = append(pragmas, "PRAGMA locking_mode = EXCLUSIVE")
	}
	if o.TempStoreMemory {
		pragmas = append(pragmas, "PRAGMA temp_store = MEMORY")
	}
	return pragmas
}

// Store is an open SQLite database.
type Store struct {
	db  *sql.DB
	dsn string
}

// Open creates or opens the database named by dsn, a file path or an
// SQLite URI such as "file:name?mode=memory".
func Open(ctx context.Context, dsn string, opts Options) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("database path is required")
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open(opts.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection serializes writers and keeps in-memory
	// databases alive for as long as the Store is open.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	for _, pragma := range opts.pragmas() {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	slog.Debug("database opened", "dsn", dsn, "driver", opts.Driver)
	return &Store{db: db, dsn: dsn}, nil
}

// DSN returns the data source name the store was opened with.
func (s *Store) DSN() string {
	return s.dsn
}

// Close closes the database. Closing twice is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Exec runs a single statement with positional arguments.
func (s *Store) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	return s.db.ExecContext(ctx, query, args...)
}

// Query runs a query and materializes every row.
func (s *Store) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	return queryRows(ctx, s.db, query, args...)
}

// Version returns the stored schema version; 0 means no schema installed.
func (s *Store) Version(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, ErrClosed
	}
	return userVersion(ctx, s.db)
}

// SetVersion writes the schema version slot outside of a transaction.
func (s *Store) SetVersion(ctx context.Context, version int) error {
	if s.db == nil {
		return ErrClosed
	}
	return setUserVersion(ctx, s.db, version)
}

// ListTables returns the names of user tables, excluding SQLite internals.
func (s *Store) ListTables(ctx context.Context) ([]string, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	return listTables(ctx, s.db)
}

// InTx runs fn inside one transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
//
// fn must only use the Tx it is given: the Store holds a single
// connection, so calling Store methods from fn blocks forever.
func (s *Store) InTx(ctx context.Context, fn func(tx *Tx) error) error {
	if s.db == nil {
		return ErrClosed
	}

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback() // No-op if committed

	if err := fn(&Tx{tx: sqlTx}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

// QuoteIdent quotes a table or column name for interpolation into SQL.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
