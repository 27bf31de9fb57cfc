// Package table implements the small in-memory tabular model the pipeline
// joins and pivots. A cell that is absent from a row is null; null is always
// distinguishable from a recorded zero.
package table

import (
	"fmt"
	"strings"
)

// Row maps column names to cell values. A missing key means the cell is null.
type Row map[string]any

// Table is an ordered collection of rows sharing a key-column tuple. Columns
// are registered in first-seen order, key columns first.
type Table struct {
	keyColumns []string
	columns    []string
	colSet     map[string]bool
	rows       []Row
}

// New creates an empty table with the given key columns.
func New(keyColumns ...string) *Table {
	t := &Table{
		keyColumns: append([]string(nil), keyColumns...),
		colSet:     make(map[string]bool),
	}

	for _, c := range keyColumns {
		t.registerColumn(c)
	}

	return t
}

func (t *Table) registerColumn(name string) {
	if !t.colSet[name] {
		t.colSet[name] = true
		t.columns = append(t.columns, name)
	}
}

// Append adds a row, registering any new columns in first-seen order.
func (t *Table) Append(r Row) {
	for _, c := range sortedNewColumns(t, r) {
		t.registerColumn(c)
	}

	t.rows = append(t.rows, r)
}

// sortedNewColumns returns r's columns not yet registered, in a stable order.
// Map iteration order is random, so new columns from a single row are added
// alphabetically to keep the schema deterministic.
func sortedNewColumns(t *Table, r Row) []string {
	var fresh []string

	for c := range r {
		if !t.colSet[c] {
			fresh = append(fresh, c)
		}
	}

	for i := 1; i < len(fresh); i++ {
		for j := i; j > 0 && fresh[j] < fresh[j-1]; j-- {
			fresh[j], fresh[j-1] = fresh[j-1], fresh[j]
		}
	}

	return fresh
}

// Columns returns the column names in schema order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// KeyColumns returns the key column names.
func (t *Table) KeyColumns() []string {
	return append([]string(nil), t.keyColumns...)
}

// HasColumn reports whether the named column exists in the schema.
func (t *Table) HasColumn(name string) bool {
	return t.colSet[name]
}

// Rows returns the backing row slice.
func (t *Table) Rows() []Row {
	return t.rows
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// keyOf builds a composite lookup key from the named columns of a row.
func keyOf(r Row, on []string) string {
	parts := make([]string, len(on))
	for i, c := range on {
		if v, ok := r[c]; ok {
			parts[i] = fmt.Sprint(v)
		}
	}

	return strings.Join(parts, "\x1f")
}

// LeftJoin joins right onto left over the given columns. Every left row is
// kept; right cells are copied in where a key matches, and stay null where it
// does not. When several right rows share a key the first one wins.
func LeftJoin(left, right *Table, on []string) *Table {
	index := make(map[string]Row, right.Len())
	for _, r := range right.Rows() {
		k := keyOf(r, on)
		if _, seen := index[k]; !seen {
			index[k] = r
		}
	}

	out := New(left.keyColumns...)

	// Preserve the combined schema even when no row carries a given column.
	for _, c := range left.columns {
		out.registerColumn(c)
	}

	onSet := make(map[string]bool, len(on))
	for _, c := range on {
		onSet[c] = true
	}

	var rightValueCols []string

	for _, c := range right.columns {
		if !onSet[c] {
			rightValueCols = append(rightValueCols, c)
			out.registerColumn(c)
		}
	}

	for _, lr := range left.Rows() {
		merged := make(Row, len(lr))
		for k, v := range lr {
			merged[k] = v
		}

		if rr, ok := index[keyOf(lr, on)]; ok {
			for _, c := range rightValueCols {
				if v, present := rr[c]; present {
					merged[c] = v
				}
			}
		}

		out.rows = append(out.rows, merged)
	}

	return out
}

// Select returns a new table containing only the named columns, in the given
// order. Columns absent from the schema are ignored.
func (t *Table) Select(cols []string) *Table {
	out := New(t.keyColumns...)

	kept := make([]string, 0, len(cols))

	for _, c := range cols {
		if t.colSet[c] {
			kept = append(kept, c)
			out.registerColumn(c)
		}
	}

	for _, r := range t.rows {
		projected := make(Row, len(kept))

		for _, c := range kept {
			if v, ok := r[c]; ok {
				projected[c] = v
			}
		}

		out.rows = append(out.rows, projected)
	}

	return out
}

// Rename is one entry of an ordered column translation table.
type Rename struct {
	From string
	To   string
}

// RenameColumns renames columns in place following the translation table.
// Columns not named keep their generated names.
func (t *Table) RenameColumns(translations []Rename) {
	mapping := make(map[string]string, len(translations))
	for _, tr := range translations {
		if _, seen := mapping[tr.From]; !seen && t.colSet[tr.From] {
			mapping[tr.From] = tr.To
		}
	}

	if len(mapping) == 0 {
		return
	}

	for i, c := range t.columns {
		if to, ok := mapping[c]; ok {
			t.columns[i] = to
			delete(t.colSet, c)
			t.colSet[to] = true
		}
	}

	for i, c := range t.keyColumns {
		if to, ok := mapping[c]; ok {
			t.keyColumns[i] = to
		}
	}

	for _, r := range t.rows {
		for from, to := range mapping {
			if v, ok := r[from]; ok {
				r[to] = v
				delete(r, from)
			}
		}
	}
}
