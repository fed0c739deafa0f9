package table

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownColumn is returned when a requested column does not exist.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrDuplicateColumn is returned when adding a column whose name is taken.
	ErrDuplicateColumn = errors.New("duplicate column")
	// ErrLengthMismatch is returned when a row or column does not match the table shape.
	ErrLengthMismatch = errors.New("length mismatch")
)

// Table is an in-memory, column-oriented table of scalar cells.
// Columns keep their insertion order and all have the same length.
type Table struct {
	columns []string
	index   map[string]int
	data    [][]any
	rows    int
}

// New creates an empty table with the given column names.
func New(columns ...string) (*Table, error) {
	t := &Table{index: make(map[string]int, len(columns))}
	for _, name := range columns {
		if err := t.AddColumn(name, nil); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// FromRows builds a table from row-major data.
func FromRows(columns []string, rows [][]any) (*Table, error) {
	t, err := New(columns...)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := t.AppendRow(row...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// AppendRow appends one row. The number of values must match the number of columns.
func (t *Table) AppendRow(values ...any) error {
	if len(values) != len(t.columns) {
		return fmt.Errorf("%w: row has %d values, table has %d columns", ErrLengthMismatch, len(values), len(t.columns))
	}
	for i, v := range values {
		t.data[i] = append(t.data[i], v)
	}
	t.rows++
	return nil
}

// AddColumn appends a new column. A nil values slice on an empty table creates an
// empty column; otherwise len(values) must equal Len().
func (t *Table) AddColumn(name string, values []any) error {
	if _, exists := t.index[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
	}
	if values == nil {
		values = make([]any, t.rows)
	}
	if len(values) != t.rows {
		return fmt.Errorf("%w: column %q has %d values, table has %d rows", ErrLengthMismatch, name, len(values), t.rows)
	}
	if t.index == nil {
		t.index = make(map[string]int)
	}
	t.index[name] = len(t.columns)
	t.columns = append(t.columns, name)
	t.data = append(t.data, values)
	return nil
}

// SetColumn replaces the values of an existing column, or appends the column if
// it does not exist yet.
func (t *Table) SetColumn(name string, values []any) error {
	i, exists := t.index[name]
	if !exists {
		return t.AddColumn(name, values)
	}
	if len(values) != t.rows {
		return fmt.Errorf("%w: column %q has %d values, table has %d rows", ErrLengthMismatch, name, len(values), t.rows)
	}
	t.data[i] = values
	return nil
}

// Column returns the values of the named column. The returned slice is shared
// with the table and must not be modified.
func (t *Table) Column(name string) ([]any, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return t.data[i], nil
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return t.rows
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []any {
	row := make([]any, len(t.columns))
	for c := range t.columns {
		row[c] = t.data[c][i]
	}
	return row
}

// Rows returns a row-major copy of the table data.
func (t *Table) Rows() [][]any {
	out := make([][]any, t.rows)
	for i := range out {
		out[i] = t.Row(i)
	}
	return out
}

// Clone returns a copy of the table. Cells are scalars, so copying the column
// slices is enough to make the copy independent.
func (t *Table) Clone() *Table {
	c := &Table{
		columns: t.Columns(),
		index:   make(map[string]int, len(t.index)),
		data:    make([][]any, len(t.data)),
		rows:    t.rows,
	}
	for name, i := range t.index {
		c.index[name] = i
	}
	for i, col := range t.data {
		c.data[i] = append([]any(nil), col...)
	}
	return c
}

// Select returns a new table holding only the named columns, in the given order.
func (t *Table) Select(columns ...string) (*Table, error) {
	out := &Table{index: make(map[string]int, len(columns)), rows: t.rows}
	for _, name := range columns {
		values, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		if err := out.AddColumn(name, append([]any(nil), values...)); err != nil {
			return nil, err
		}
	}
	return out, nil
}
