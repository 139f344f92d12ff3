// Package table provides the in-memory, column-oriented Table that flows
// through the conversion pipeline.
//
// A Table is rectangular: every column has the same number of rows, and
// column names are unique. Tables are treated as values; operations that
// change a column return a new Table and leave the receiver untouched.
//
//	id := table.MustColumn("id", table.TypeInt64, int64(1), int64(2))
//	region := table.MustColumn("region", table.TypeString, "North", "South")
//	t, err := table.New(id, region)
package table

import (
	"github.com/ajitpratap0/parquetize/pkg/errors"
)

// Table is an ordered collection of named columns sharing one row count.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// New creates a table from columns, enforcing the rectangular invariant and
// unique column names.
func New(columns ...*Column) (*Table, error) {
	t := &Table{index: make(map[string]int, len(columns))}
	for _, c := range columns {
		if err := t.AddColumn(c); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// AddColumn appends a column.
func (t *Table) AddColumn(c *Column) error {
	if c == nil {
		return errors.New(errors.ErrorTypeValidation, "nil column")
	}
	if _, dup := t.index[c.Name()]; dup {
		return errors.Newf(errors.ErrorTypeValidation, "duplicate column name %q", c.Name())
	}
	if len(t.columns) > 0 && c.Len() != t.rows {
		return errors.Newf(errors.ErrorTypeValidation,
			"column %q has %d rows, table has %d", c.Name(), c.Len(), t.rows).
			WithDetail("column", c.Name())
	}
	if len(t.columns) == 0 {
		t.rows = c.Len()
	}
	t.index[c.Name()] = len(t.columns)
	t.columns = append(t.columns, c)
	return nil
}

// NumRows returns the shared row count.
func (t *Table) NumRows() int { return t.rows }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.columns) }

// Column returns the i-th column.
func (t *Table) Column(i int) *Column { return t.columns[i] }

// ColumnByName looks a column up by name.
func (t *Table) ColumnByName(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// Columns returns the columns in order.
func (t *Table) Columns() []*Column {
	out := make([]*Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name()
	}
	return names
}

// WithColumn returns a copy of the table with the i-th column replaced. The
// replacement must keep the column name and row count.
func (t *Table) WithColumn(i int, c *Column) (*Table, error) {
	if i < 0 || i >= len(t.columns) {
		return nil, errors.Newf(errors.ErrorTypeValidation, "column index %d out of range", i)
	}
	if c.Name() != t.columns[i].Name() {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"replacement column %q does not match %q", c.Name(), t.columns[i].Name())
	}
	if c.Len() != t.rows {
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"replacement column %q has %d rows, table has %d", c.Name(), c.Len(), t.rows)
	}

	columns := t.Columns()
	columns[i] = c
	index := make(map[string]int, len(t.index))
	for k, v := range t.index {
		index[k] = v
	}
	return &Table{columns: columns, index: index, rows: t.rows}, nil
}

// CountType returns how many columns have the given type.
func (t *Table) CountType(typ ColumnType) int {
	n := 0
	for _, c := range t.columns {
		if c.Type() == typ {
			n++
		}
	}
	return n
}

// Equal reports whether both tables have the same columns in the same order.
func (t *Table) Equal(other *Table) bool {
	if other == nil || t.rows != other.rows || len(t.columns) != len(other.columns) {
		return false
	}
	for i, c := range t.columns {
		if !c.Equal(other.columns[i]) {
			return false
		}
	}
	return true
}
