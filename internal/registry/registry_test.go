package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/recordstore/internal/config"
	"github.com/roach88/recordstore/internal/driver"
	"github.com/roach88/recordstore/internal/schema"
	"github.com/roach88/recordstore/internal/store"
)

const notesSchema = `CREATE TABLE notes (id TEXT PRIMARY KEY NOT NULL, body TEXT);`

func newTestRegistry(t *testing.T, opts ...Option) *Registry {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	r := New(cfg, opts...)
	t.Cleanup(func() { r.CloseAll() })
	return r
}

func TestOpen_SharesDriverPerName(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	a, err := r.Open(ctx, "notes")
	require.NoError(t, err)
	b, err := r.Open(ctx, "notes")
	require.NoError(t, err)
	c, err := r.Open(ctx, "other")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, []string{"notes", "other"}, r.Names())

	_, err = os.Stat(filepath.Join(r.cfg.DataDir, "notes.db"))
	assert.NoError(t, err, "database file created under the data dir")
}

func TestOpen_EmptyName(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Open(context.Background(), "")
	assert.Error(t, err)
}

func TestOpen_InvalidOptions(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.SQLDriver = "postgres"
	r := New(cfg)

	_, err := r.Open(context.Background(), "notes")
	assert.Error(t, err)
	assert.Empty(t, r.Names())
}

func TestOpen_Concurrent(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	const workers = 8
	got := make([]*driver.Driver, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d, err := r.Open(ctx, "shared")
			assert.NoError(t, err)
			got[i] = d
		}(i)
	}
	wg.Wait()

	for _, d := range got[1:] {
		assert.Same(t, got[0], d)
	}
}

func TestConnect_ClassifiesWithoutModifying(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	d, c, err := r.Connect(ctx, "notes", 3)
	require.NoError(t, err)
	assert.Equal(t, schema.NeedsSetup{}, c)

	v, err := d.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	_, _, err = r.Connect(ctx, "notes", 0)
	assert.Error(t, err)
}

func TestSetUpWithSchema(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	d, err := r.SetUpWithSchema(ctx, "notes", schema.Setup{Version: 2, SQL: notesSchema})
	require.NoError(t, err)

	same, c, err := r.Connect(ctx, "notes", 2)
	require.NoError(t, err)
	assert.Same(t, d, same)
	assert.Equal(t, schema.Compatible{}, c)

	_, c, err = r.Connect(ctx, "notes", 3)
	require.NoError(t, err)
	assert.Equal(t, schema.NeedsMigration{From: 2}, c)

	_, c, err = r.Connect(ctx, "notes", 1)
	require.NoError(t, err)
	assert.Equal(t, schema.NeedsSetup{Stored: 2}, c)
}

func TestSetUpWithSchema_Failure(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.SetUpWithSchema(context.Background(), "notes", schema.Setup{Version: 1, SQL: "CREATE TABLE ("})
	require.Error(t, err)
	assert.True(t, driver.IsExecutionFailure(err))
}

func TestSetUpWithMigrations(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	_, err := r.SetUpWithSchema(ctx, "notes", schema.Setup{Version: 1, SQL: notesSchema})
	require.NoError(t, err)

	d, err := r.SetUpWithMigrations(ctx, "notes", schema.Migration{
		From: 1,
		To:   2,
		SQL:  "ALTER TABLE notes ADD COLUMN pinned INTEGER",
	})
	require.NoError(t, err)

	v, err := d.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	_, err = r.SetUpWithMigrations(ctx, "notes", schema.Migration{From: 1, To: 3})
	require.Error(t, err)
	assert.True(t, driver.IsVersionMismatch(err))
}

func TestMemoryDatabaseLivesWhileRegistered(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	_, err := r.SetUpWithSchema(ctx, "scratch?mode=memory", schema.Setup{Version: 1, SQL: notesSchema})
	require.NoError(t, err)

	_, c, err := r.Connect(ctx, "scratch?mode=memory", 1)
	require.NoError(t, err)
	assert.Equal(t, schema.Compatible{}, c)

	require.NoError(t, r.Close("scratch?mode=memory"))

	_, c, err = r.Connect(ctx, "scratch?mode=memory", 1)
	require.NoError(t, err)
	assert.Equal(t, schema.NeedsSetup{}, c, "closing the last handle discards the memory database")
}

func TestClose(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	d, err := r.Open(ctx, "notes")
	require.NoError(t, err)

	require.NoError(t, r.Close("notes"))
	require.NoError(t, r.Close("notes"), "unknown names are ignored")
	assert.Empty(t, r.Names())

	_, err = d.Version(ctx)
	assert.True(t, errors.Is(err, store.ErrClosed))

	reopened, err := r.Open(ctx, "notes")
	require.NoError(t, err)
	assert.NotSame(t, d, reopened)
}

func TestCloseAll(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	a, err := r.Open(ctx, "a")
	require.NoError(t, err)
	b, err := r.Open(ctx, "b")
	require.NoError(t, err)

	require.NoError(t, r.CloseAll())
	assert.Empty(t, r.Names())

	_, err = a.Version(ctx)
	assert.True(t, errors.Is(err, store.ErrClosed))
	_, err = b.Version(ctx)
	assert.True(t, errors.Is(err, store.ErrClosed))
}

type countingObserver struct {
	mu      sync.Mutex
	changes int
}

func (o *countingObserver) ObserveLookup(string, string)                {}
func (o *countingObserver) ObserveBatch(int, int, time.Duration, error) {}
func (o *countingObserver) ObserveSchemaChange(string, int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.changes++
}

func TestWithObserver(t *testing.T) {
	obs := &countingObserver{}
	r := newTestRegistry(t, WithObserver(obs))

	_, err := r.SetUpWithSchema(context.Background(), "notes", schema.Setup{Version: 1, SQL: notesSchema})
	require.NoError(t, err)
	assert.Equal(t, 1, obs.changes)
}
