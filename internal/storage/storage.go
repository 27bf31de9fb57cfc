// Package storage persists the output tables to CSV files and relational
// databases. Every backend receives the same table and writes it with the
// same column order and null semantics: a missing cell becomes an empty CSV
// field or a SQL NULL.
package storage

import (
	"context"
	"fmt"
	"strconv"

	"ogyscraper/internal/table"
)

// Writer persists one named table per call.
type Writer interface {
	WriteTable(ctx context.Context, name string, t *table.Table) error
	Close() error
}

// Column affinity inferred from the cell values actually present.
const (
	kindInteger = "INTEGER"
	kindReal    = "REAL"
	kindText    = "TEXT"
)

// columnKinds infers one SQL affinity per column. Integer columns widen to
// REAL when any cell holds a float; anything non-numeric forces TEXT. Columns
// with no cells at all default to TEXT.
func columnKinds(t *table.Table) map[string]string {
	kinds := make(map[string]string, len(t.Columns()))

	for _, r := range t.Rows() {
		for col, v := range r {
			switch v.(type) {
			case int, int64:
				if kinds[col] == "" {
					kinds[col] = kindInteger
				}
			case float64:
				if kinds[col] == "" || kinds[col] == kindInteger {
					kinds[col] = kindReal
				}
			default:
				kinds[col] = kindText
			}
		}
	}

	for _, col := range t.Columns() {
		if kinds[col] == "" {
			kinds[col] = kindText
		}
	}

	return kinds
}

// quoteIdent double-quotes a SQL identifier. Generated column names can carry
// accented characters, so every identifier is quoted unconditionally.
func quoteIdent(name string) string {
	quoted := make([]byte, 0, len(name)+2)
	quoted = append(quoted, '"')

	for i := 0; i < len(name); i++ {
		if name[i] == '"' {
			quoted = append(quoted, '"')
		}

		quoted = append(quoted, name[i])
	}

	return string(append(quoted, '"'))
}

// CellString renders one cell as text, for CSV fields and previews. Nil
// means the cell is absent and renders as the empty string.
func CellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
