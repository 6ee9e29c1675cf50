// Package table holds the in-memory record set the enrichment pipeline works
// on: ordered columns, positional rows and nullable cells. A column that does
// not exist is distinct from a column whose cells are all null.
package table

import "fmt"

type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

func New(columns ...string) *Table {
	t := &Table{index: make(map[string]int, len(columns))}
	for _, col := range columns {
		t.AddColumn(col, Null())
	}
	return t
}

// FromRecords builds a table from a header row followed by data rows. Short
// rows are padded with null, long rows are rejected.
func FromRecords(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return New(), nil
	}

	header := records[0]
	t := New()
	for i, col := range header {
		if col == "" {
			return nil, fmt.Errorf("header column %d is empty", i)
		}
		if t.Has(col) {
			return nil, fmt.Errorf("duplicate header column %q", col)
		}
		t.AddColumn(col, Null())
	}

	t.rows = make([][]Value, 0, len(records)-1)
	for lineIdx, record := range records[1:] {
		if len(record) > len(header) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", lineIdx+1, len(record), len(header))
		}
		row := make([]Value, len(header))
		for i := range header {
			if i < len(record) {
				row[i] = Parse(record[i])
			}
		}
		t.rows = append(t.rows, row)
	}

	return t, nil
}

// Records renders the header row followed by every data row; null cells are
// empty strings.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.rows)+1)
	out = append(out, t.Columns())
	for _, row := range t.rows {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = v.Text()
		}
		out = append(out, record)
	}
	return out
}

func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// AppendRow adds a row from column values; unknown columns are added.
func (t *Table) AppendRow(values map[string]Value) {
	for col := range values {
		if !t.Has(col) {
			t.AddColumn(col, Null())
		}
	}
	row := make([]Value, len(t.columns))
	for col, v := range values {
		row[t.index[col]] = v
	}
	t.rows = append(t.rows, row)
}

// Get returns the cell at row i, or null when the column does not exist.
func (t *Table) Get(i int, column string) Value {
	idx, ok := t.index[column]
	if !ok || i < 0 || i >= len(t.rows) {
		return Null()
	}
	return t.rows[i][idx]
}

// Set writes one cell, creating the column (null elsewhere) if needed.
func (t *Table) Set(i int, column string, v Value) {
	if i < 0 || i >= len(t.rows) {
		return
	}
	if !t.Has(column) {
		t.AddColumn(column, Null())
	}
	t.rows[i][t.index[column]] = v
}

// AddColumn appends a column filled with v. Existing columns are untouched.
func (t *Table) AddColumn(column string, v Value) {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	if _, ok := t.index[column]; ok {
		return
	}
	t.index[column] = len(t.columns)
	t.columns = append(t.columns, column)
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], v)
	}
}

func (t *Table) Drop(columns ...string) {
	drop := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		if t.Has(col) {
			drop[col] = struct{}{}
		}
	}
	if len(drop) == 0 {
		return
	}

	keep := make([]int, 0, len(t.columns)-len(drop))
	kept := make([]string, 0, len(t.columns)-len(drop))
	for idx, col := range t.columns {
		if _, ok := drop[col]; ok {
			continue
		}
		keep = append(keep, idx)
		kept = append(kept, col)
	}

	for i, row := range t.rows {
		next := make([]Value, len(keep))
		for j, idx := range keep {
			next[j] = row[idx]
		}
		t.rows[i] = next
	}
	t.columns = kept
	t.reindex()
}

// Rename changes column names in place. Renaming onto an existing column is
// rejected so no value is silently lost.
func (t *Table) Rename(from, to string) error {
	idx, ok := t.index[from]
	if !ok || from == to {
		return nil
	}
	if t.Has(to) {
		return fmt.Errorf("rename %q: column %q already exists", from, to)
	}
	t.columns[idx] = to
	t.reindex()
	return nil
}

// AllNull reports whether the column is missing or holds only nulls.
func (t *Table) AllNull(column string) bool {
	idx, ok := t.index[column]
	if !ok {
		return true
	}
	for _, row := range t.rows {
		if !row[idx].IsNull() {
			return false
		}
	}
	return true
}

func (t *Table) Clone() *Table {
	out := &Table{
		columns: t.Columns(),
		index:   make(map[string]int, len(t.columns)),
		rows:    make([][]Value, len(t.rows)),
	}
	for col, idx := range t.index {
		out.index[col] = idx
	}
	for i, row := range t.rows {
		out.rows[i] = append([]Value(nil), row...)
	}
	return out
}

// Equal compares column order and every cell.
func (t *Table) Equal(other *Table) bool {
	if other == nil || len(t.columns) != len(other.columns) || len(t.rows) != len(other.rows) {
		return false
	}
	for i, col := range t.columns {
		if other.columns[i] != col {
			return false
		}
	}
	for i, row := range t.rows {
		for j, v := range row {
			if !v.Equal(other.rows[i][j]) {
				return false
			}
		}
	}
	return true
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.columns))
	for idx, col := range t.columns {
		t.index[col] = idx
	}
}
