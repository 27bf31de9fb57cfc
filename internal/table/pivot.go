package table

// Pivot accumulates long-format (key, column, value) records into a wide
// table. Values contributed to the same (key, column) cell are summed, never
// overwritten; a cell that received no contribution stays null.
type Pivot struct {
	keyColumns []string
	sums       map[string]map[string]int
	keyRows    map[string]Row
	keyOrder   []string
	colOrder   []string
	colSeen    map[string]bool
}

// NewPivot creates a pivot accumulator keyed by the given columns.
func NewPivot(keyColumns ...string) *Pivot {
	return &Pivot{
		keyColumns: append([]string(nil), keyColumns...),
		sums:       make(map[string]map[string]int),
		keyRows:    make(map[string]Row),
		colSeen:    make(map[string]bool),
	}
}

// Add accumulates value into the cell addressed by the key fields of r and
// the column name. Only the key columns of r are read.
func (p *Pivot) Add(r Row, column string, value int) {
	k := keyOf(r, p.keyColumns)

	if _, seen := p.keyRows[k]; !seen {
		keyRow := make(Row, len(p.keyColumns))
		for _, c := range p.keyColumns {
			if v, ok := r[c]; ok {
				keyRow[c] = v
			}
		}

		p.keyRows[k] = keyRow
		p.keyOrder = append(p.keyOrder, k)
		p.sums[k] = make(map[string]int)
	}

	if !p.colSeen[column] {
		p.colSeen[column] = true
		p.colOrder = append(p.colOrder, column)
	}

	p.sums[k][column] += value
}

// Len returns the number of distinct keys accumulated so far.
func (p *Pivot) Len() int {
	return len(p.keyRows)
}

// Table materializes the accumulated cells as a wide table. Rows appear in
// first-seen key order and columns in first-seen column order.
func (p *Pivot) Table() *Table {
	out := New(p.keyColumns...)

	for _, c := range p.colOrder {
		out.registerColumn(c)
	}

	for _, k := range p.keyOrder {
		row := make(Row, len(p.keyColumns)+len(p.sums[k]))
		for c, v := range p.keyRows[k] {
			row[c] = v
		}

		for c, sum := range p.sums[k] {
			row[c] = sum
		}

		out.rows = append(out.rows, row)
	}

	return out
}
