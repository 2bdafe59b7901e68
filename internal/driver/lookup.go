package driver

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/roach88/recordstore/internal/store"
)

// Find looks up one record by id.
//
// Ids already marked present answer AlreadyKnown without touching storage.
// Otherwise the row is fetched; a hit marks the id present and returns the
// full row, a miss returns NotFound.
func (d *Driver) Find(ctx context.Context, table, id string) (Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkOpen(); err != nil {
		return nil, err
	}

	if d.cache.IsPresent(table, id) {
		d.observer.ObserveLookup("find", LookupKnown)
		return AlreadyKnown{ID: id}, nil
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE id = ? LIMIT 1", store.QuoteIdent(table))
	rows, err := d.store.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("find %s/%s: %w", table, id, err)
	}

	if len(rows) == 0 {
		d.observer.ObserveLookup("find", LookupNotFound)
		return NotFound{ID: id}, nil
	}

	d.cache.MarkPresent(table, id)
	d.observer.ObserveLookup("find", LookupMaterialized)
	return Materialized{ID: id, Row: rows[0]}, nil
}

// CachedQuery runs query and returns one Result per row, in result order.
//
// Rows whose id is already present come back as AlreadyKnown; the rest are
// returned in full and marked present. A repeated id within one result set
// is therefore AlreadyKnown on its second occurrence. A result without an
// id column yields an empty slice. Rows with a NULL id are returned in full
// and never cached.
func (d *Driver) CachedQuery(ctx context.Context, table, query string, args ...any) ([]Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := d.store.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("cached query %s: %w", table, err)
	}

	results := []Result{}
	idCol := idColumn(rows)
	if idCol < 0 {
		return results, nil
	}

	for _, row := range rows {
		id, ok := cellText(row.Values[idCol])
		if !ok {
			results = append(results, Materialized{Row: row})
			continue
		}
		if d.cache.IsPresent(table, id) {
			d.observer.ObserveLookup("cached_query", LookupKnown)
			results = append(results, AlreadyKnown{ID: id})
			continue
		}
		d.cache.MarkPresent(table, id)
		d.observer.ObserveLookup("cached_query", LookupMaterialized)
		results = append(results, Materialized{ID: id, Row: row})
	}
	return results, nil
}

// QueryIDs runs query and returns the id column of every row, in order.
// A result without an id column yields an empty slice; NULL ids are
// skipped. The presence cache is not consulted.
func (d *Driver) QueryIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := d.store.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}

	ids := []string{}
	idCol := idColumn(rows)
	if idCol < 0 {
		return ids, nil
	}
	for _, row := range rows {
		if id, ok := cellText(row.Values[idCol]); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// RawQuery runs query and returns every row in full, with no cache
// interaction.
func (d *Driver) RawQuery(ctx context.Context, query string, args ...any) ([]store.Row, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := d.store.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("raw query: %w", err)
	}
	return rows, nil
}

// Count runs query and returns the first column of the first row as an
// integer, or 0 when there are no rows.
func (d *Driver) Count(ctx context.Context, query string, args ...any) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkOpen(); err != nil {
		return 0, err
	}

	rows, err := d.store.Query(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	if len(rows) == 0 || len(rows[0].Values) == 0 {
		return 0, nil
	}

	switch v := rows[0].Values[0].(type) {
	case nil:
		return 0, nil
	case int64:
		return int(v), nil
	case float64:
		return int(math.Trunc(v)), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("count: non-numeric result %q", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("count: non-numeric result of type %T", v)
	}
}

// GetLocal reads a value from local storage. ok is false when the key is
// not set.
func (d *Driver) GetLocal(ctx context.Context, key string) (value string, ok bool, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkOpen(); err != nil {
		return "", false, err
	}

	query := fmt.Sprintf("SELECT value FROM %s WHERE key = ?", store.QuoteIdent(localStorageTable))
	rows, err := d.store.Query(ctx, query, key)
	if err != nil {
		return "", false, fmt.Errorf("get local %q: %w", key, err)
	}
	if len(rows) == 0 {
		return "", false, nil
	}

	value, _ = cellText(rows[0].Values[0])
	return value, true, nil
}

// idColumn returns the index of the id column, or -1 when the result is
// empty or has no id column.
func idColumn(rows []store.Row) int {
	if len(rows) == 0 {
		return -1
	}
	return slices.Index(rows[0].Columns, "id")
}
