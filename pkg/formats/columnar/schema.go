package columnar

import (
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/parquetize/pkg/errors"
	"github.com/ajitpratap0/parquetize/pkg/table"
)

// timestampType is used for every timestamp column. Values carry no zone,
// the way spreadsheet dates have none.
var timestampType = &arrow.TimestampType{Unit: arrow.Microsecond}

// categoricalType is the Arrow type of categorical columns
var categoricalType = &arrow.DictionaryType{
	IndexType: arrow.PrimitiveTypes.Int32,
	ValueType: arrow.BinaryTypes.String,
}

// arrowType maps a column type to its Arrow data type
func arrowType(typ table.ColumnType) (arrow.DataType, error) {
	switch typ {
	case table.TypeInt64:
		return arrow.PrimitiveTypes.Int64, nil
	case table.TypeFloat64:
		return arrow.PrimitiveTypes.Float64, nil
	case table.TypeBool:
		return arrow.FixedWidthTypes.Boolean, nil
	case table.TypeString:
		return arrow.BinaryTypes.String, nil
	case table.TypeTimestamp:
		return timestampType, nil
	case table.TypeCategorical:
		return categoricalType, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeValidation, "unsupported column type: %s", typ)
	}
}

// toSchema builds the Arrow schema of a table
func toSchema(tbl *table.Table, metadata map[string]string) (*arrow.Schema, error) {
	fields := make([]arrow.Field, 0, tbl.NumCols())
	for _, col := range tbl.Columns() {
		dt, err := arrowType(col.Type())
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeValidation, "failed to convert schema").
				WithDetail("column", col.Name())
		}
		fields = append(fields, arrow.Field{Name: col.Name(), Type: dt, Nullable: true})
	}

	keys := make([]string, 0, len(metadata))
	values := make([]string, 0, len(metadata))
	for k, v := range metadata {
		keys = append(keys, k)
		values = append(values, v)
	}
	md := arrow.NewMetadata(keys, values)
	return arrow.NewSchema(fields, &md), nil
}

// toRecord converts a table into a single Arrow record batch
func toRecord(tbl *table.Table, mem memory.Allocator, metadata map[string]string) (arrow.Record, error) {
	schema, err := toSchema(tbl, metadata)
	if err != nil {
		return nil, err
	}

	arrays := make([]arrow.Array, 0, tbl.NumCols())
	defer func() {
		for _, a := range arrays {
			a.Release()
		}
	}()

	for _, col := range tbl.Columns() {
		arr, err := buildArray(col, mem)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to build column").
				WithDetail("column", col.Name())
		}
		arrays = append(arrays, arr)
	}

	return array.NewRecord(schema, arrays, int64(tbl.NumRows())), nil
}

func buildArray(col *table.Column, mem memory.Allocator) (arrow.Array, error) {
	n := col.Len()

	switch col.Type() {
	case table.TypeInt64:
		b := array.NewInt64Builder(mem)
		defer b.Release()
		b.Reserve(n)
		for i := 0; i < n; i++ {
			if v, ok := col.Value(i).(int64); ok {
				b.Append(v)
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray(), nil

	case table.TypeFloat64:
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		b.Reserve(n)
		for i := 0; i < n; i++ {
			if v, ok := col.Value(i).(float64); ok {
				b.Append(v)
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray(), nil

	case table.TypeBool:
		b := array.NewBooleanBuilder(mem)
		defer b.Release()
		b.Reserve(n)
		for i := 0; i < n; i++ {
			if v, ok := col.Value(i).(bool); ok {
				b.Append(v)
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray(), nil

	case table.TypeString:
		b := array.NewStringBuilder(mem)
		defer b.Release()
		b.Reserve(n)
		for i := 0; i < n; i++ {
			if v, ok := col.Value(i).(string); ok {
				b.Append(v)
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray(), nil

	case table.TypeTimestamp:
		b := array.NewTimestampBuilder(mem, timestampType)
		defer b.Release()
		b.Reserve(n)
		for i := 0; i < n; i++ {
			if v, ok := col.Value(i).(time.Time); ok {
				b.Append(arrow.Timestamp(v.UnixMicro()))
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray(), nil

	case table.TypeCategorical:
		return buildDictionary(col.Dictionary(), mem), nil
	}

	return nil, errors.Newf(errors.ErrorTypeValidation, "unsupported column type: %s", col.Type())
}

func buildDictionary(dict *table.Dictionary, mem memory.Allocator) arrow.Array {
	ib := array.NewInt32Builder(mem)
	defer ib.Release()
	ib.Reserve(len(dict.Codes))
	for _, code := range dict.Codes {
		if code < 0 {
			ib.AppendNull()
		} else {
			ib.Append(code)
		}
	}
	indices := ib.NewArray()
	defer indices.Release()

	sb := array.NewStringBuilder(mem)
	defer sb.Release()
	sb.AppendValues(dict.Labels, nil)
	labels := sb.NewArray()
	defer labels.Release()

	return array.NewDictionaryArray(categoricalType, indices, labels)
}

// fromChunks rebuilds a table column from Arrow chunks of one field.
// categorical forces a plain text column back to categorical, for readers
// that do not restore dictionary encoding on their own.
func fromChunks(field arrow.Field, chunks []arrow.Array, categorical bool) (*table.Column, error) {
	n := 0
	for _, c := range chunks {
		n += c.Len()
	}
	values := make([]interface{}, 0, n)

	var typ table.ColumnType
	switch field.Type.ID() {
	case arrow.INT64:
		typ = table.TypeInt64
	case arrow.INT32, arrow.INT16, arrow.INT8:
		typ = table.TypeInt64
	case arrow.FLOAT64, arrow.FLOAT32:
		typ = table.TypeFloat64
	case arrow.BOOL:
		typ = table.TypeBool
	case arrow.STRING, arrow.LARGE_STRING:
		typ = table.TypeString
	case arrow.TIMESTAMP, arrow.DATE32, arrow.DATE64:
		typ = table.TypeTimestamp
	case arrow.DICTIONARY:
		typ = table.TypeCategorical
	default:
		return nil, errors.Newf(errors.ErrorTypeParse, "unsupported arrow type %s", field.Type).
			WithDetail("column", field.Name)
	}

	for _, chunk := range chunks {
		for i := 0; i < chunk.Len(); i++ {
			if chunk.IsNull(i) {
				values = append(values, nil)
				continue
			}
			v, err := arrowValue(chunk, i)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeParse, "failed to decode value").
					WithDetail("column", field.Name)
			}
			values = append(values, v)
		}
	}

	if typ == table.TypeCategorical || (categorical && typ == table.TypeString) {
		return table.NewCategorical(field.Name, values)
	}
	return table.NewColumn(field.Name, typ, values)
}

func arrowValue(arr arrow.Array, i int) (interface{}, error) {
	switch a := arr.(type) {
	case *array.Int64:
		return a.Value(i), nil
	case *array.Int32:
		return int64(a.Value(i)), nil
	case *array.Int16:
		return int64(a.Value(i)), nil
	case *array.Int8:
		return int64(a.Value(i)), nil
	case *array.Float64:
		return a.Value(i), nil
	case *array.Float32:
		return float64(a.Value(i)), nil
	case *array.Boolean:
		return a.Value(i), nil
	case *array.String:
		return a.Value(i), nil
	case *array.LargeString:
		return a.Value(i), nil
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return a.Value(i).ToTime(unit), nil
	case *array.Date32:
		return a.Value(i).ToTime(), nil
	case *array.Date64:
		return a.Value(i).ToTime(), nil
	case *array.Dictionary:
		return arrowValue(a.Dictionary(), a.GetValueIndex(i))
	default:
		return nil, errors.Newf(errors.ErrorTypeParse, "unsupported arrow array %T", arr)
	}
}
