package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/recordstore/internal/driver"
	"github.com/roach88/recordstore/internal/store"
)

// parseParams converts positional SQL parameters from the command line.
// "null" becomes NULL and numeric text becomes a number; everything else
// is bound as text.
func parseParams(args []string) []any {
	params := make([]any, 0, len(args))
	for _, arg := range args {
		if arg == "null" {
			params = append(params, nil)
			continue
		}
		if n, err := strconv.ParseInt(arg, 10, 64); err == nil {
			params = append(params, n)
			continue
		}
		if f, err := strconv.ParseFloat(arg, 64); err == nil {
			params = append(params, f)
			continue
		}
		params = append(params, arg)
	}
	return params
}

// formatValue renders a cell for text output.
func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// RecordView is one lookup result.
type RecordView struct {
	Table string         `json:"table"`
	ID    string         `json:"id"`
	State string         `json:"state"` // "materialized", "known" or "not_found"
	Row   map[string]any `json:"row,omitempty"`

	row *store.Row
}

func newRecordView(table string, r driver.Result) RecordView {
	switch r := r.(type) {
	case driver.Materialized:
		return RecordView{Table: table, ID: r.ID, State: driver.LookupMaterialized, Row: r.Row.Map(), row: &r.Row}
	case driver.AlreadyKnown:
		return RecordView{Table: table, ID: r.ID, State: driver.LookupKnown}
	default:
		return RecordView{Table: table, ID: r.RecordID(), State: driver.LookupNotFound}
	}
}

func (v RecordView) String() string {
	var b strings.Builder
	b.WriteString(v.State + "\t" + v.Table + "/" + v.ID)
	if v.row != nil {
		for i, col := range v.row.Columns {
			b.WriteString("\n  " + col + ": " + formatValue(v.row.Values[i]))
		}
	}
	return b.String()
}

// RecordList is the result of a presence-aware query.
type RecordList []RecordView

func (l RecordList) String() string {
	if len(l) == 0 {
		return "(no rows)"
	}
	lines := make([]string, len(l))
	for i, v := range l {
		lines[i] = v.String()
	}
	return strings.Join(lines, "\n")
}

// IDList is the result of an id query.
type IDList []string

func (l IDList) String() string {
	if len(l) == 0 {
		return "(no rows)"
	}
	return strings.Join(l, "\n")
}

// RowSet is the result of a raw query.
type RowSet struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

func newRowSet(rows []store.Row) RowSet {
	set := RowSet{Columns: []string{}, Rows: make([][]any, 0, len(rows))}
	if len(rows) > 0 {
		set.Columns = rows[0].Columns
	}
	for _, row := range rows {
		set.Rows = append(set.Rows, row.Values)
	}
	return set
}

func (s RowSet) String() string {
	if len(s.Rows) == 0 {
		return "(no rows)"
	}
	lines := make([]string, 0, len(s.Rows)+1)
	lines = append(lines, strings.Join(s.Columns, "\t"))
	for _, row := range s.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = formatValue(v)
		}
		lines = append(lines, strings.Join(cells, "\t"))
	}
	return strings.Join(lines, "\n")
}
