package columnar

import (
	"github.com/ajitpratap0/parquetize/pkg/json"
	"github.com/ajitpratap0/parquetize/pkg/table"
)

// pandasKey is the schema metadata key pandas reads its column layout from.
// Writing it lets pd.read_parquet restore categorical dtypes.
const pandasKey = "pandas"

const pandasVersion = "2.2.0"

type pandasColumn struct {
	Name       string                 `json:"name"`
	FieldName  string                 `json:"field_name"`
	PandasType string                 `json:"pandas_type"`
	NumpyType  string                 `json:"numpy_type"`
	Metadata   map[string]interface{} `json:"metadata"`
}

type pandasCreator struct {
	Library string `json:"library"`
	Version string `json:"version,omitempty"`
}

type pandasSchema struct {
	IndexColumns  []string       `json:"index_columns"`
	ColumnIndexes []interface{}  `json:"column_indexes"`
	Columns       []pandasColumn `json:"columns"`
	Creator       pandasCreator  `json:"creator"`
	PandasVersion string         `json:"pandas_version"`
}

// pandasMetadata returns the schema metadata describing tbl to pandas. It
// returns no metadata if the description cannot be encoded.
func pandasMetadata(tbl *table.Table, creator, version string) map[string]string {
	if creator == "" {
		creator = "parquetize"
	}
	ps := pandasSchema{
		IndexColumns:  []string{},
		ColumnIndexes: []interface{}{},
		Columns:       make([]pandasColumn, 0, tbl.NumCols()),
		Creator:       pandasCreator{Library: creator, Version: version},
		PandasVersion: pandasVersion,
	}
	for _, col := range tbl.Columns() {
		ps.Columns = append(ps.Columns, describeColumn(col))
	}

	data, err := json.Marshal(ps)
	if err != nil {
		return nil
	}
	return map[string]string{pandasKey: string(data)}
}

func describeColumn(col *table.Column) pandasColumn {
	pc := pandasColumn{Name: col.Name(), FieldName: col.Name()}
	switch col.Type() {
	case table.TypeInt64:
		pc.PandasType, pc.NumpyType = "int64", "int64"
		if col.NullCount() > 0 {
			pc.NumpyType = "Int64"
		}
	case table.TypeFloat64:
		pc.PandasType, pc.NumpyType = "float64", "float64"
	case table.TypeBool:
		pc.PandasType, pc.NumpyType = "bool", "bool"
		if col.NullCount() > 0 {
			pc.NumpyType = "boolean"
		}
	case table.TypeTimestamp:
		pc.PandasType, pc.NumpyType = "datetime", "datetime64[ns]"
	case table.TypeCategorical:
		n := len(col.Dictionary().Labels)
		pc.PandasType = "categorical"
		pc.NumpyType = categoryCodeType(n)
		pc.Metadata = map[string]interface{}{
			"num_categories": n,
			"ordered":        false,
		}
	default:
		pc.PandasType, pc.NumpyType = "unicode", "object"
	}
	return pc
}

// categoryCodeType is the narrowest signed integer pandas uses for the codes
// of n categories.
func categoryCodeType(n int) string {
	switch {
	case n < 1<<7:
		return "int8"
	case n < 1<<15:
		return "int16"
	default:
		return "int32"
	}
}

// categoricalColumns parses pandas metadata and returns the names of the
// columns recorded as categorical.
func categoricalColumns(raw string) map[string]bool {
	out := make(map[string]bool)
	if raw == "" {
		return out
	}
	var ps pandasSchema
	if err := json.Unmarshal([]byte(raw), &ps); err != nil {
		return out
	}
	for _, c := range ps.Columns {
		if c.PandasType == "categorical" {
			name := c.FieldName
			if name == "" {
				name = c.Name
			}
			out[name] = true
		}
	}
	return out
}
