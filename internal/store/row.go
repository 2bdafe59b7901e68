package store

import (
	"context"
	"fmt"
	"slices"
	"time"
)

// timestampFormat renders time values some drivers synthesize for columns
// declared as DATE, DATETIME or TIMESTAMP.
const timestampFormat = "2006-01-02 15:04:05.999999999-07:00"

// Row is one result row. Columns is shared by every row of a result set.
type Row struct {
	Columns []string
	Values  []any
}

// Has reports whether the row has a column named col.
func (r Row) Has(col string) bool {
	return slices.Contains(r.Columns, col)
}

// Get returns the value of column col and whether the column exists.
func (r Row) Get(col string) (any, bool) {
	i := slices.Index(r.Columns, col)
	if i < 0 {
		return nil, false
	}
	return r.Values[i], true
}

// Map returns the row keyed by column name. When a column name repeats,
// the last value wins.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.Columns))
	for i, col := range r.Columns {
		m[col] = r.Values[i]
	}
	return m
}

func queryRows(ctx context.Context, c conn, query string, args ...any) ([]Row, error) {
	rows, err := c.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	result := []Row{}
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range values {
			values[i] = normalizeValue(v)
		}
		result = append(result, Row{Columns: columns, Values: values})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return result, nil
}

// normalizeValue maps driver values onto SQLite storage classes.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case nil, int64, float64, string, []byte:
		return x
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case time.Time:
		return x.Format(timestampFormat)
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case float32:
		return float64(x)
	default:
		return fmt.Sprint(x)
	}
}
