package driver

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/recordstore/internal/schema"
	"github.com/roach88/recordstore/internal/store"
)

const testSchemaSQL = `
CREATE TABLE notes (id TEXT PRIMARY KEY NOT NULL, body TEXT, n INTEGER);
CREATE TABLE tasks (id TEXT PRIMARY KEY NOT NULL, title TEXT);
`

const insertNote = "INSERT INTO notes (id, body, n) VALUES (?, ?, ?)"

// newTestDriver opens a file-backed driver with the test schema at version 1.
func newTestDriver(t *testing.T, opts ...Option) *Driver {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := store.Open(context.Background(), path, store.DefaultOptions())
	require.NoError(t, err)

	d := New("test", st, opts...)
	t.Cleanup(func() { d.Close() })

	err = d.ResetDatabase(context.Background(), schema.Setup{Version: 1, SQL: testSchemaSQL})
	require.NoError(t, err)
	return d
}

// insertNotes commits an insert batch for the given ids.
func insertNotes(t *testing.T, d *Driver, ids ...string) {
	t.Helper()
	argSets := make([][]any, 0, len(ids))
	for i, id := range ids {
		argSets = append(argSets, []any{id, "body " + id, i})
	}
	require.NoError(t, d.Batch(context.Background(), []Operation{Insert("notes", insertNote, argSets...)}))
}

// countNotes counts rows without touching the cache.
func countNotes(t *testing.T, d *Driver) int {
	t.Helper()
	n, err := d.Count(context.Background(), "SELECT COUNT(*) FROM notes")
	require.NoError(t, err)
	return n
}

type lookupCall struct {
	operation string
	outcome   string
}

type schemaCall struct {
	change  string
	version int
	err     error
}

// recordingObserver captures observer callbacks for assertions.
type recordingObserver struct {
	mu      sync.Mutex
	lookups []lookupCall
	batches []error
	changes []schemaCall
}

func (o *recordingObserver) ObserveLookup(operation, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lookups = append(o.lookups, lookupCall{operation, outcome})
}

func (o *recordingObserver) ObserveBatch(_, _ int, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.batches = append(o.batches, err)
}

func (o *recordingObserver) ObserveSchemaChange(change string, version int, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.changes = append(o.changes, schemaCall{change, version, err})
}
