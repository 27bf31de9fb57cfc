// Package preview renders tables as display-width-aligned markdown for
// terminal inspection.
package preview

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"ogyscraper/internal/storage"
	"ogyscraper/internal/table"
)

// Options bounds the rendered slice of a table. The results table can carry
// hundreds of vote columns, so previews default to a manageable window.
type Options struct {
	MaxRows    int
	MaxColumns int
}

// DefaultOptions is the window used by the inspect command.
var DefaultOptions = Options{MaxRows: 20, MaxColumns: 12}

// Render formats a table window as an aligned markdown table. Columns keep
// the table's order; truncation is marked with a trailing ellipsis column or
// row.
func Render(t *table.Table, opts Options) string {
	columns := t.Columns()

	colsTruncated := opts.MaxColumns > 0 && len(columns) > opts.MaxColumns
	if colsTruncated {
		columns = columns[:opts.MaxColumns]
	}

	rows := t.Rows()

	rowsTruncated := opts.MaxRows > 0 && len(rows) > opts.MaxRows
	if rowsTruncated {
		rows = rows[:opts.MaxRows]
	}

	header := append([]string(nil), columns...)
	if colsTruncated {
		header = append(header, "…")
	}

	cells := make([][]string, 0, len(rows)+1)
	cells = append(cells, header)

	for _, row := range rows {
		line := make([]string, 0, len(header))

		for _, col := range columns {
			line = append(line, storage.CellString(row[col]))
		}

		if colsTruncated {
			line = append(line, "…")
		}

		cells = append(cells, line)
	}

	if rowsTruncated {
		ellipsis := make([]string, len(header))
		for i := range ellipsis {
			ellipsis[i] = "…"
		}

		cells = append(cells, ellipsis)
	}

	return align(cells)
}

// align pads every cell to its column's maximum display width and joins the
// rows into a markdown table with a separator under the header.
func align(cells [][]string) string {
	colCount := len(cells[0])

	widths := make([]int, colCount)
	for _, row := range cells {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	for i := range widths {
		if widths[i] < 3 {
			widths[i] = 3
		}
	}

	var sb strings.Builder

	writeRow := func(row []string) {
		sb.WriteString("|")

		for i, cell := range row {
			sb.WriteString(" ")
			sb.WriteString(cell)

			if padding := widths[i] - runewidth.StringWidth(cell); padding > 0 {
				sb.WriteString(strings.Repeat(" ", padding))
			}

			sb.WriteString(" |")
		}

		sb.WriteString("\n")
	}

	writeRow(cells[0])

	sb.WriteString("|")

	for i := 0; i < colCount; i++ {
		sb.WriteString(" ")
		sb.WriteString(strings.Repeat("-", widths[i]))
		sb.WriteString(" |")
	}

	sb.WriteString("\n")

	for _, row := range cells[1:] {
		writeRow(row)
	}

	return sb.String()
}
