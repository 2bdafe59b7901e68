package driver

import (
	"sync"

	"github.com/roach88/recordstore/internal/cache"
	"github.com/roach88/recordstore/internal/store"
)

// localStorageTable is the reserved key/value table for local settings.
const localStorageTable = "local_storage"

// Driver is the record store for one named database.
//
// Thread-safety: all methods are safe for concurrent use. Calls are
// serialized by a single mutex scoped to this database.
type Driver struct {
	mu       sync.Mutex
	name     string
	store    *store.Store
	cache    *cache.Presence
	observer Observer
}

// Option configures a Driver.
type Option func(*Driver)

// WithObserver installs an Observer. A nil observer is ignored.
func WithObserver(o Observer) Option {
	return func(d *Driver) {
		if o != nil {
			d.observer = o
		}
	}
}

// New binds a driver to an open store. The presence cache starts empty.
// The driver takes ownership of st and closes it in Close.
func New(name string, st *store.Store, opts ...Option) *Driver {
	d := &Driver{
		name:     name,
		store:    st,
		cache:    cache.New(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the database name the driver was registered under.
func (d *Driver) Name() string {
	return d.name
}

// Close closes the store and drops the presence cache. Operations on a
// closed driver fail with store.ErrClosed.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.store == nil {
		return nil
	}
	err := d.store.Close()
	d.store = nil
	d.cache.Clear()
	return err
}

// checkOpen must be called with d.mu held.
func (d *Driver) checkOpen() error {
	if d.store == nil {
		return store.ErrClosed
	}
	return nil
}
