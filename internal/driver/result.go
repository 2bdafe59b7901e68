package driver

import (
	"strconv"

	"github.com/roach88/recordstore/internal/store"
)

// Result is a sealed interface over lookup outcomes.
// Only Materialized, AlreadyKnown and NotFound implement it.
type Result interface {
	result()
	RecordID() string
}

// Materialized carries a full row the caller did not hold yet.
type Materialized struct {
	ID  string
	Row store.Row
}

func (Materialized) result() {}

// RecordID returns the id of the row.
func (m Materialized) RecordID() string { return m.ID }

// AlreadyKnown confirms a record the caller already holds, without its row.
type AlreadyKnown struct {
	ID string
}

func (AlreadyKnown) result() {}

// RecordID returns the id of the record.
func (a AlreadyKnown) RecordID() string { return a.ID }

// NotFound reports that no row with the requested id exists.
type NotFound struct {
	ID string
}

func (NotFound) result() {}

// RecordID returns the requested id.
func (n NotFound) RecordID() string { return n.ID }

// cellText renders a cell holding an id or a text value. NULL has no
// text form and reports false.
func cellText(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case []byte:
		return string(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	default:
		return "", false
	}
}
