package table

import (
	"fmt"
	"strconv"
	"strings"
)

// Table is an ordered set of named columns over row-major cells.
// Stages of the pipeline never mutate a table they were handed;
// they Clone and work on the copy.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

// New creates an empty table with the given columns. Duplicate names keep
// their first position.
func New(columns ...string) *Table {
	t := &Table{index: make(map[string]int, len(columns))}
	for _, c := range columns {
		if _, ok := t.index[c]; ok {
			continue
		}
		t.index[c] = len(t.columns)
		t.columns = append(t.columns, c)
	}
	return t
}

// AppendRow adds a row. Short rows are padded with nulls; extra cells are an error.
func (t *Table) AppendRow(cells ...Value) error {
	if len(cells) > len(t.columns) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(cells), len(t.columns))
	}
	row := make([]Value, len(t.columns))
	copy(row, cells)
	t.rows = append(t.rows, row)
	return nil
}

// AppendRecord adds a row from a column→value map; unknown columns are ignored.
func (t *Table) AppendRecord(rec map[string]Value) {
	row := make([]Value, len(t.columns))
	for name, v := range rec {
		if i, ok := t.index[name]; ok {
			row[i] = v
		}
	}
	t.rows = append(t.rows, row)
}

func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

func (t *Table) Len() int { return len(t.rows) }

func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// Cell returns the value at (row, col); absent columns read as null.
func (t *Table) Cell(row int, col string) Value {
	i, ok := t.index[col]
	if !ok {
		return Null()
	}
	return t.rows[row][i]
}

// Row returns a copy of one row.
func (t *Table) Row(row int) []Value {
	out := make([]Value, len(t.columns))
	copy(out, t.rows[row])
	return out
}

// Set writes a cell in an existing column.
func (t *Table) Set(row int, col string, v Value) {
	if i, ok := t.index[col]; ok {
		t.rows[row][i] = v
	}
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	c := New(t.columns...)
	c.rows = make([][]Value, len(t.rows))
	for i, r := range t.rows {
		c.rows[i] = make([]Value, len(r))
		copy(c.rows[i], r)
	}
	return c
}

// AddColumn sets a whole column, creating it at the end or overwriting it in
// place if it already exists.
func (t *Table) AddColumn(name string, values []Value) error {
	if len(values) != len(t.rows) {
		return fmt.Errorf("column %q has %d values, table has %d rows", name, len(values), len(t.rows))
	}
	i, ok := t.index[name]
	if !ok {
		i = len(t.columns)
		t.index[name] = i
		t.columns = append(t.columns, name)
		for r := range t.rows {
			t.rows[r] = append(t.rows[r], Null())
		}
	}
	for r, v := range values {
		t.rows[r][i] = v
	}
	return nil
}

// Values returns a copy of a column's cells, nil if the column is absent.
func (t *Table) Values(col string) []Value {
	i, ok := t.index[col]
	if !ok {
		return nil
	}
	out := make([]Value, len(t.rows))
	for r, row := range t.rows {
		out[r] = row[i]
	}
	return out
}

// Floats returns the numeric cells of a column with non-numbers read as 0.
func (t *Table) Floats(col string) []float64 {
	i, ok := t.index[col]
	if !ok {
		return nil
	}
	out := make([]float64, len(t.rows))
	for r, row := range t.rows {
		out[r], _ = row[i].Float()
	}
	return out
}

// Strings returns the canonical text of every cell in a column.
func (t *Table) Strings(col string) []string {
	i, ok := t.index[col]
	if !ok {
		return nil
	}
	out := make([]string, len(t.rows))
	for r, row := range t.rows {
		out[r] = row[i].Text()
	}
	return out
}

// Filter returns a new table with the rows for which keep returns true.
func (t *Table) Filter(keep func(row int) bool) *Table {
	c := New(t.columns...)
	for r, row := range t.rows {
		if keep(r) {
			cp := make([]Value, len(row))
			copy(cp, row)
			c.rows = append(c.rows, cp)
		}
	}
	return c
}

// ColumnKind classifies a column from its non-null cells. A column with no
// non-null cells is numeric, the same as a float column of missing values.
func (t *Table) ColumnKind(col string) Kind {
	i, ok := t.index[col]
	if !ok {
		return KindNull
	}
	kind := KindNumber
	seen := false
	for _, row := range t.rows {
		v := row[i]
		if v.IsNull() {
			continue
		}
		if !seen {
			kind = v.Kind()
			seen = true
			continue
		}
		if v.Kind() != kind {
			return KindString
		}
	}
	return kind
}

// IsNumeric reports whether the column is present and numeric.
func (t *Table) IsNumeric(col string) bool {
	return t.Has(col) && t.ColumnKind(col) == KindNumber
}

// NumericColumns lists numeric columns in column order.
func (t *Table) NumericColumns() []string {
	var out []string
	for _, c := range t.columns {
		if t.ColumnKind(c) == KindNumber {
			out = append(out, c)
		}
	}
	return out
}

// RowKey is a stable identity of a whole row; equal rows share a key.
func (t *Table) RowKey(row int) string {
	var b strings.Builder
	for _, v := range t.rows[row] {
		k := v.key()
		b.WriteString(strconv.Itoa(len(k)))
		b.WriteByte(':')
		b.WriteString(k)
	}
	return b.String()
}

// Group is one distinct value of a grouping column and the rows holding it.
type Group struct {
	Key  Value
	Rows []int
}

// Label is the group key as display text.
func (g Group) Label() string { return g.Key.Text() }

// GroupBy partitions rows by the value of col. Groups come back in order of
// first appearance. Returns nil if the column is absent.
func (t *Table) GroupBy(col string) []Group {
	i, ok := t.index[col]
	if !ok {
		return nil
	}
	pos := make(map[string]int)
	var groups []Group
	for r, row := range t.rows {
		k := row[i].key()
		g, seen := pos[k]
		if !seen {
			g = len(groups)
			pos[k] = g
			groups = append(groups, Group{Key: row[i]})
		}
		groups[g].Rows = append(groups[g].Rows, r)
	}
	return groups
}

// Distinct counts the distinct non-null values of a column.
func (t *Table) Distinct(col string) int {
	n := 0
	for _, g := range t.GroupBy(col) {
		if !g.Key.IsNull() {
			n++
		}
	}
	return n
}
