// Package cache tracks which records the calling layer already holds in
// memory, so that queries can answer with an id instead of a full row.
package cache

// Presence maps a table name to the set of record ids known to be
// materialized on the caller's side.
//
// Presence is a conservative subset of stored data: a missing id only means
// the caller may not have the row yet. It is not safe for concurrent use;
// the owning driver serializes access together with the storage calls that
// keep it consistent.
type Presence struct {
	tables map[string]map[string]struct{}
}

// New returns an empty Presence.
func New() *Presence {
	return &Presence{tables: make(map[string]map[string]struct{})}
}

// IsPresent reports whether id is known to be materialized for table.
func (p *Presence) IsPresent(table, id string) bool {
	ids, ok := p.tables[table]
	if !ok {
		return false
	}
	_, ok = ids[id]
	return ok
}

// MarkPresent records id as materialized. Marking twice is a no-op.
func (p *Presence) MarkPresent(table, id string) {
	ids, ok := p.tables[table]
	if !ok {
		ids = make(map[string]struct{})
		p.tables[table] = ids
	}
	ids[id] = struct{}{}
}

// MarkAbsent forgets id. Removing an unknown id is a no-op.
func (p *Presence) MarkAbsent(table, id string) {
	ids, ok := p.tables[table]
	if !ok {
		return
	}
	delete(ids, id)
	if len(ids) == 0 {
		delete(p.tables, table)
	}
}

// Clear drops every table's ids. Used only on a full database reset.
func (p *Presence) Clear() {
	p.tables = make(map[string]map[string]struct{})
}

// Len returns the number of ids tracked for table.
func (p *Presence) Len(table string) int {
	return len(p.tables[table])
}
