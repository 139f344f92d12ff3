package columnar

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/parquetize/pkg/errors"
	"github.com/ajitpratap0/parquetize/pkg/json"
	"github.com/ajitpratap0/parquetize/pkg/table"
)

func sampleTable(t *testing.T) *table.Table {
	t.Helper()
	day := time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC)
	region, err := table.NewCategorical("region", []interface{}{"South", "North", nil, "South", "North"})
	require.NoError(t, err)

	tbl, err := table.New(
		table.MustColumn("id", table.TypeInt64, int64(1), int64(2), int64(3), nil, int64(5)),
		table.MustColumn("price", table.TypeFloat64, 10.5, nil, 7.25, 1.0, 0.0),
		table.MustColumn("name", table.TypeString, "ana", "bia", "caio", nil, "duda"),
		table.MustColumn("paid", table.TypeBool, true, false, nil, true, true),
		table.MustColumn("DataAtendimento", table.TypeTimestamp,
			day, day.Add(36*time.Hour), nil, day.AddDate(0, 1, 0), day.Add(1500*time.Millisecond)),
		region,
	)
	require.NoError(t, err)
	return tbl
}

func TestWriteFile_RoundTrip(t *testing.T) {
	ctx := context.Background()

	for _, format := range []Format{Parquet, Arrow} {
		t.Run(string(format), func(t *testing.T) {
			tbl := sampleTable(t)
			path := filepath.Join(t.TempDir(), "out"+FileExtension(format))

			config := DefaultWriterConfig()
			config.Format = format
			stats, err := WriteFile(path, tbl, config)
			require.NoError(t, err)
			assert.Equal(t, format, stats.Format)
			assert.Equal(t, 5, stats.Rows)
			assert.Equal(t, 6, stats.Columns)
			assert.Positive(t, stats.Bytes)

			detected, err := DetectFormat(path)
			require.NoError(t, err)
			assert.Equal(t, format, detected)

			got, err := ReadFile(ctx, path)
			require.NoError(t, err)
			assert.Equal(t, tbl.ColumnNames(), got.ColumnNames())
			assert.True(t, tbl.Equal(got), "round trip changed the table")

			region, ok := got.ColumnByName("region")
			require.True(t, ok)
			assert.Equal(t, table.TypeCategorical, region.Type())
			assert.Equal(t, []string{"North", "South"}, region.Dictionary().Labels)

			name, ok := got.ColumnByName("name")
			require.True(t, ok)
			assert.Equal(t, table.TypeString, name.Type())
		})
	}
}

func TestWriteFile_Compression(t *testing.T) {
	ctx := context.Background()
	tbl := sampleTable(t)

	tests := []struct {
		format Format
		codec  Compression
		used   Compression
	}{
		{Parquet, Snappy, Snappy},
		{Parquet, Zstd, Zstd},
		{Parquet, Gzip, Gzip},
		{Parquet, Brotli, Brotli},
		{Parquet, Uncompressed, Uncompressed},
		{Arrow, Zstd, Zstd},
		{Arrow, LZ4, LZ4},
		{Arrow, Snappy, Uncompressed},
	}

	for _, tt := range tests {
		t.Run(string(tt.format)+"_"+string(tt.codec), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out")
			stats, err := WriteFile(path, tbl, &WriterConfig{Format: tt.format, Compression: tt.codec})
			require.NoError(t, err)
			assert.Equal(t, tt.used, stats.Compression)

			got, err := ReadFile(ctx, path)
			require.NoError(t, err)
			assert.True(t, tbl.Equal(got))
		})
	}
}

func TestWriteFile_UnsupportedOptions(t *testing.T) {
	tbl := sampleTable(t)
	dir := t.TempDir()

	_, err := WriteFile(filepath.Join(dir, "a"), tbl, &WriterConfig{Format: "orc"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = WriteFile(filepath.Join(dir, "b"), tbl, &WriterConfig{Format: Parquet, Compression: "lzma"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestWriteFile_Overwrites(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "dados.parquet")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("x"), 1<<16), 0o644))

	tbl, err := table.New(table.MustColumn("id", table.TypeInt64, int64(1), int64(2)))
	require.NoError(t, err)

	_, err = WriteFile(path, tbl, nil)
	require.NoError(t, err)
	_, err = WriteFile(path, tbl, nil)
	require.NoError(t, err)

	got, err := ReadFile(ctx, path)
	require.NoError(t, err)
	assert.True(t, tbl.Equal(got))
}

func TestWriteFile_MissingDirectory(t *testing.T) {
	tbl := sampleTable(t)
	_, err := WriteFile(filepath.Join(t.TempDir(), "nope", "out.parquet"), tbl, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}

func TestDetectFormat_Unknown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	_, err := DetectFormat(path)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeParse))

	_, err = ReadFile(context.Background(), path)
	require.Error(t, err)
}

func TestPandasMetadata(t *testing.T) {
	tbl := sampleTable(t)
	md := pandasMetadata(tbl, "", "1.2.3")
	require.Contains(t, md, pandasKey)

	var ps pandasSchema
	require.NoError(t, json.Unmarshal([]byte(md[pandasKey]), &ps))
	assert.Equal(t, "parquetize", ps.Creator.Library)
	assert.Equal(t, "1.2.3", ps.Creator.Version)
	assert.Empty(t, ps.IndexColumns)
	require.Len(t, ps.Columns, 6)

	types := make(map[string]string)
	for _, c := range ps.Columns {
		types[c.Name] = c.PandasType
	}
	assert.Equal(t, map[string]string{
		"id":              "int64",
		"price":           "float64",
		"name":            "unicode",
		"paid":            "bool",
		"DataAtendimento": "datetime",
		"region":          "categorical",
	}, types)

	last := ps.Columns[5]
	assert.Equal(t, "int8", last.NumpyType)
	assert.EqualValues(t, 2, last.Metadata["num_categories"])
	assert.Equal(t, false, last.Metadata["ordered"])

	assert.Equal(t, map[string]bool{"region": true}, categoricalColumns(md[pandasKey]))
	assert.Empty(t, categoricalColumns("not json"))
}

func TestCategoryCodeType(t *testing.T) {
	assert.Equal(t, "int8", categoryCodeType(0))
	assert.Equal(t, "int8", categoryCodeType(127))
	assert.Equal(t, "int16", categoryCodeType(128))
	assert.Equal(t, "int32", categoryCodeType(1<<15))
}
