// Package registry hands out one driver per database name.
//
// Two callers that open the same name share the driver, and with it the
// presence cache and the mutex that orders their operations. In-memory
// databases live exactly as long as their driver stays registered.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/recordstore/internal/config"
	"github.com/roach88/recordstore/internal/driver"
	"github.com/roach88/recordstore/internal/schema"
	"github.com/roach88/recordstore/internal/store"
)

// Registry owns the open drivers of a process.
type Registry struct {
	mu       sync.Mutex
	cfg      config.Config
	observer driver.Observer
	drivers  map[string]*driver.Driver
}

// Option configures a Registry.
type Option func(*Registry)

// WithObserver attaches o to every driver the registry opens.
func WithObserver(o driver.Observer) Option {
	return func(r *Registry) {
		r.observer = o
	}
}

// New creates an empty registry.
func New(cfg config.Config, opts ...Option) *Registry {
	r := &Registry{
		cfg:     cfg,
		drivers: make(map[string]*driver.Driver),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Open returns the driver registered under name, opening the database on
// first use.
func (r *Registry) Open(ctx context.Context, name string) (*driver.Driver, error) {
	key := norm.NFC.String(name)
	if key == "" {
		return nil, errors.New("database name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.drivers[key]; ok {
		return d, nil
	}

	dsn := ResolvePath(r.cfg.DataDir, key)
	st, err := store.Open(ctx, dsn, r.cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", key, err)
	}

	var opts []driver.Option
	if r.observer != nil {
		opts = append(opts, driver.WithObserver(r.observer))
	}
	d := driver.New(key, st, opts...)
	r.drivers[key] = d

	slog.Info("database registered", "db", key, "dsn", dsn, "memory", isMemory(dsn))
	return d, nil
}

// Connect opens name and classifies its schema against expected. The
// database is never modified; acting on NeedsSetup or NeedsMigration is
// up to the caller.
func (r *Registry) Connect(ctx context.Context, name string, expected int) (*driver.Driver, schema.Compatibility, error) {
	d, err := r.Open(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	c, err := d.ResolveSchema(ctx, expected)
	if err != nil {
		return nil, nil, err
	}
	return d, c, nil
}

// SetUpWithSchema opens name, rebuilds it from setup and checks that the
// result is compatible with setup.Version.
func (r *Registry) SetUpWithSchema(ctx context.Context, name string, setup schema.Setup) (*driver.Driver, error) {
	d, err := r.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := d.ResetDatabase(ctx, setup); err != nil {
		return nil, err
	}
	if err := verify(ctx, d, setup.Version); err != nil {
		return nil, err
	}
	return d, nil
}

// SetUpWithMigrations opens name, applies m and checks that the result is
// compatible with m.To.
func (r *Registry) SetUpWithMigrations(ctx context.Context, name string, m schema.Migration) (*driver.Driver, error) {
	d, err := r.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := d.ApplyMigration(ctx, m); err != nil {
		return nil, err
	}
	if err := verify(ctx, d, m.To); err != nil {
		return nil, err
	}
	return d, nil
}

func verify(ctx context.Context, d *driver.Driver, expected int) error {
	c, err := d.ResolveSchema(ctx, expected)
	if err != nil {
		return err
	}
	if !schema.IsCompatible(c) {
		return fmt.Errorf("database %s: %s after setup", d.Name(), schema.Describe(c))
	}
	return nil
}

// Close closes and forgets the driver registered under name. Unknown
// names are ignored.
func (r *Registry) Close(name string) error {
	key := norm.NFC.String(name)

	r.mu.Lock()
	d, ok := r.drivers[key]
	delete(r.drivers, key)
	r.mu.Unlock()

	if !ok {
		return nil
	}
	return d.Close()
}

// CloseAll closes every registered driver.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	drivers := r.drivers
	r.drivers = make(map[string]*driver.Driver)
	r.mu.Unlock()

	var errs []error
	for name, d := range drivers {
		if err := d.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.drivers))
	for name := range r.drivers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
