package table

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/parquetize/pkg/errors"
)

func TestNew_RectangularInvariant(t *testing.T) {
	id := MustColumn("id", TypeInt64, int64(1), int64(2), int64(3))
	short := MustColumn("region", TypeString, "North", "South")

	_, err := New(id, short)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	region := MustColumn("region", TypeString, "North", "North", "South")
	tbl, err := New(id, region)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.NumRows())
	assert.Equal(t, 2, tbl.NumCols())
	assert.Equal(t, []string{"id", "region"}, tbl.ColumnNames())
}

func TestNew_DuplicateNames(t *testing.T) {
	a := MustColumn("a", TypeInt64, int64(1))
	b := MustColumn("a", TypeFloat64, 1.5)

	_, err := New(a, b)
	require.Error(t, err)
}

func TestNewColumn_TypeChecking(t *testing.T) {
	tests := []struct {
		name    string
		typ     ColumnType
		values  []interface{}
		wantErr bool
	}{
		{"int64 ok", TypeInt64, []interface{}{int64(1), nil}, false},
		{"int not int64", TypeInt64, []interface{}{1}, true},
		{"float ok", TypeFloat64, []interface{}{2.5, nil}, false},
		{"string ok", TypeString, []interface{}{"x", nil}, false},
		{"string rejects float", TypeString, []interface{}{1.0}, true},
		{"bool ok", TypeBool, []interface{}{true, false}, false},
		{"timestamp ok", TypeTimestamp, []interface{}{time.Now()}, false},
		{"timestamp rejects string", TypeTimestamp, []interface{}{"2024-01-01"}, true},
		{"categorical ok", TypeCategorical, []interface{}{"a", "b", nil}, false},
		{"categorical rejects int", TypeCategorical, []interface{}{int64(1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewColumn("c", tt.typ, tt.values)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCategorical_PreservesValuesAndOrder(t *testing.T) {
	values := []interface{}{"South", "North", nil, "South", "East"}
	col, err := NewCategorical("region", values)
	require.NoError(t, err)

	assert.Equal(t, TypeCategorical, col.Type())
	assert.Equal(t, 5, col.Len())
	assert.Equal(t, values, col.Values())
	assert.Equal(t, 1, col.NullCount())

	dict := col.Dictionary()
	require.NotNil(t, dict)
	assert.Equal(t, []string{"East", "North", "South"}, dict.Labels)
	assert.Equal(t, []int32{2, 1, -1, 2, 0}, dict.Codes)

	decoded := col.Decode()
	assert.Equal(t, TypeString, decoded.Type())
	assert.Equal(t, values, decoded.Values())
}

func TestNewCategoricalFromCodes(t *testing.T) {
	col, err := NewCategoricalFromCodes("c", []string{"b", "a"}, []int32{0, 1, -1})
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"b", "a", nil}, col.Values())
	assert.Equal(t, []string{"a", "b"}, col.Dictionary().Labels)

	_, err = NewCategoricalFromCodes("c", []string{"a"}, []int32{3})
	assert.Error(t, err)
}

func TestColumn_ToCategorical(t *testing.T) {
	text := MustColumn("t", TypeString, "a", "a", "b")
	cat, err := text.ToCategorical()
	require.NoError(t, err)
	assert.Equal(t, TypeCategorical, cat.Type())

	again, err := cat.ToCategorical()
	require.NoError(t, err)
	assert.Same(t, cat, again)

	_, err = MustColumn("n", TypeInt64, int64(1)).ToCategorical()
	assert.Error(t, err)
}

func TestTable_WithColumn(t *testing.T) {
	tbl, err := New(
		MustColumn("id", TypeInt64, int64(1), int64(2)),
		MustColumn("kind", TypeString, "x", "x"),
	)
	require.NoError(t, err)

	cat, err := tbl.Column(1).ToCategorical()
	require.NoError(t, err)

	replaced, err := tbl.WithColumn(1, cat)
	require.NoError(t, err)
	assert.Equal(t, TypeCategorical, replaced.Column(1).Type())
	assert.Equal(t, TypeString, tbl.Column(1).Type(), "receiver must be untouched")
	assert.Equal(t, 1, replaced.CountType(TypeCategorical))

	_, err = tbl.WithColumn(1, MustColumn("other", TypeString, "x", "x"))
	assert.Error(t, err)
	_, err = tbl.WithColumn(5, cat)
	assert.Error(t, err)
}

func TestTable_Equal(t *testing.T) {
	ts := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	build := func() *Table {
		tbl, err := New(
			MustColumn("when", TypeTimestamp, ts, nil),
			MustColumn("ok", TypeBool, true, false),
		)
		require.NoError(t, err)
		return tbl
	}

	assert.True(t, build().Equal(build()))

	other, err := New(
		MustColumn("when", TypeTimestamp, ts.In(time.FixedZone("X", 3600)), nil),
		MustColumn("ok", TypeBool, true, true),
	)
	require.NoError(t, err)
	assert.False(t, build().Equal(other))

	col, ok := build().ColumnByName("ok")
	require.True(t, ok)
	assert.Equal(t, "ok(bool, 2 rows)", col.String())
}
