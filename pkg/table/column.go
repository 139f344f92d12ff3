package table

import (
	"fmt"
	"sort"
	"time"

	"github.com/ajitpratap0/parquetize/pkg/errors"
)

// ColumnType is the logical storage type of a column.
type ColumnType string

const (
	TypeInt64       ColumnType = "int64"
	TypeFloat64     ColumnType = "float64"
	TypeString      ColumnType = "string"
	TypeBool        ColumnType = "bool"
	TypeTimestamp   ColumnType = "timestamp"
	TypeCategorical ColumnType = "categorical"
)

// Dictionary is the storage of a categorical column: sorted distinct labels
// and one code per row, -1 marking a missing value.
type Dictionary struct {
	Labels []string
	Codes  []int32
}

// Column is a named, homogeneously typed sequence of values. A nil value is
// a missing cell. Columns are immutable once built.
type Column struct {
	name   string
	typ    ColumnType
	values []interface{}
	dict   *Dictionary
}

// NewColumn creates a column of the given type. Every non-nil value must
// carry the Go type that matches typ: int64, float64, string, bool or
// time.Time. Categorical columns take string values and are dictionary
// encoded on construction.
func NewColumn(name string, typ ColumnType, values []interface{}) (*Column, error) {
	if typ == TypeCategorical {
		return NewCategorical(name, values)
	}
	for i, v := range values {
		if v == nil {
			continue
		}
		if !valueMatches(typ, v) {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"column %q: value %v at row %d is %T, not %s", name, v, i, v, typ)
		}
	}
	vals := make([]interface{}, len(values))
	copy(vals, values)
	return &Column{name: name, typ: typ, values: vals}, nil
}

// MustColumn is like NewColumn but panics on error. Intended for tests and
// literals.
func MustColumn(name string, typ ColumnType, values ...interface{}) *Column {
	c, err := NewColumn(name, typ, values)
	if err != nil {
		panic(err)
	}
	return c
}

// NewCategorical dictionary-encodes text values. Labels are sorted; missing
// values get code -1 and are not part of the dictionary.
func NewCategorical(name string, values []interface{}) (*Column, error) {
	seen := make(map[string]struct{})
	for i, v := range values {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"column %q: categorical value at row %d is %T, not string", name, i, v)
		}
		seen[s] = struct{}{}
	}

	labels := make([]string, 0, len(seen))
	for s := range seen {
		labels = append(labels, s)
	}
	sort.Strings(labels)

	lookup := make(map[string]int32, len(labels))
	for i, s := range labels {
		lookup[s] = int32(i)
	}

	codes := make([]int32, len(values))
	for i, v := range values {
		if v == nil {
			codes[i] = -1
			continue
		}
		codes[i] = lookup[v.(string)]
	}

	return &Column{
		name: name,
		typ:  TypeCategorical,
		dict: &Dictionary{Labels: labels, Codes: codes},
	}, nil
}

// NewCategoricalFromCodes builds a categorical column from an existing
// dictionary. Codes must be -1 or index into labels.
func NewCategoricalFromCodes(name string, labels []string, codes []int32) (*Column, error) {
	for i, c := range codes {
		if c < -1 || int(c) >= len(labels) {
			return nil, errors.Newf(errors.ErrorTypeValidation,
				"column %q: code %d at row %d out of range for %d labels", name, c, i, len(labels))
		}
	}
	values := make([]interface{}, len(codes))
	for i, c := range codes {
		if c >= 0 {
			values[i] = labels[c]
		}
	}
	return NewCategorical(name, values)
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Type returns the column type.
func (c *Column) Type() ColumnType { return c.typ }

// Len returns the number of rows.
func (c *Column) Len() int {
	if c.dict != nil {
		return len(c.dict.Codes)
	}
	return len(c.values)
}

// Value returns the value at row i, decoded for categorical columns.
func (c *Column) Value(i int) interface{} {
	if c.dict != nil {
		code := c.dict.Codes[i]
		if code < 0 {
			return nil
		}
		return c.dict.Labels[code]
	}
	return c.values[i]
}

// IsNull reports whether row i is missing.
func (c *Column) IsNull(i int) bool {
	return c.Value(i) == nil
}

// NullCount returns the number of missing values.
func (c *Column) NullCount() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsNull(i) {
			n++
		}
	}
	return n
}

// Values returns a copy of all values, decoded for categorical columns.
func (c *Column) Values() []interface{} {
	out := make([]interface{}, c.Len())
	for i := range out {
		out[i] = c.Value(i)
	}
	return out
}

// Dictionary returns the dictionary of a categorical column, nil otherwise.
func (c *Column) Dictionary() *Dictionary {
	return c.dict
}

// IsText reports whether the column holds free text.
func (c *Column) IsText() bool {
	return c.typ == TypeString
}

// ToCategorical converts a text column to its dictionary encoded form.
func (c *Column) ToCategorical() (*Column, error) {
	switch c.typ {
	case TypeCategorical:
		return c, nil
	case TypeString:
		return NewCategorical(c.name, c.values)
	default:
		return nil, errors.Newf(errors.ErrorTypeValidation,
			"column %q: cannot convert %s column to categorical", c.name, c.typ)
	}
}

// Decode returns the free text form of a categorical column. Other columns
// are returned unchanged.
func (c *Column) Decode() *Column {
	if c.typ != TypeCategorical {
		return c
	}
	return &Column{name: c.name, typ: TypeString, values: c.Values()}
}

// Equal reports whether both columns have the same name, type and values.
func (c *Column) Equal(other *Column) bool {
	if other == nil || c.name != other.name || c.typ != other.typ || c.Len() != other.Len() {
		return false
	}
	for i := 0; i < c.Len(); i++ {
		if !valuesEqual(c.Value(i), other.Value(i)) {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer.
func (c *Column) String() string {
	return fmt.Sprintf("%s(%s, %d rows)", c.name, c.typ, c.Len())
}

func valueMatches(typ ColumnType, v interface{}) bool {
	switch typ {
	case TypeInt64:
		_, ok := v.(int64)
		return ok
	case TypeFloat64:
		_, ok := v.(float64)
		return ok
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeBool:
		_, ok := v.(bool)
		return ok
	case TypeTimestamp:
		_, ok := v.(time.Time)
		return ok
	default:
		return false
	}
}

func valuesEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return a == b
}
