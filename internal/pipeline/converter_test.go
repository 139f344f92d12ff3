package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ajitpratap0/parquetize/pkg/config"
	"github.com/ajitpratap0/parquetize/pkg/errors"
	"github.com/ajitpratap0/parquetize/pkg/formats/columnar"
	"github.com/ajitpratap0/parquetize/pkg/metrics"
	"github.com/ajitpratap0/parquetize/pkg/table"
	"github.com/ajitpratap0/parquetize/pkg/testutil"
)

// productionSheet has 10 rows: "Regiao" repeats 2 values, "Paciente" is
// unique per row and "Status" has 5 distinct values, exactly half.
func productionSheet() testutil.Sheet {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s := testutil.Sheet{
		Name:   "Base",
		Header: []string{"Id", "Regiao", "Paciente", "Status", "Valor", "DataAtendimento"},
	}
	for i := 0; i < 10; i++ {
		region := "Norte"
		if i%2 == 1 {
			region = "Sul"
		}
		s.Rows = append(s.Rows, []interface{}{
			i + 1,
			region,
			fmt.Sprintf("Paciente %02d", i),
			fmt.Sprintf("S%d", i%5),
			float64(i) * 12.5,
			day.AddDate(0, 0, i),
		})
	}
	return s
}

func testOptions(dir string) Options {
	opts := OptionsFromConfig(config.Default())
	opts.Source = filepath.Join(dir, "Base_Producao.xlsx")
	opts.Output = filepath.Join(dir, "dados_producao.parquet")
	opts.PublishTarget = filepath.Join(dir, "public")
	return opts
}

func TestConverter_Run(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	dir := t.TempDir()
	opts := testOptions(dir)
	testutil.WriteWorkbook(t, opts.Source, productionSheet())

	collector := metrics.NewCollector()
	result, err := NewConverter(opts, testutil.TestLogger(t), collector).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 10, result.Rows)
	assert.Equal(t, 6, result.Columns)
	assert.Equal(t, []string{"Regiao"}, result.Converted)
	assert.Equal(t, columnar.Snappy, result.Output.Compression)
	assert.Positive(t, result.Output.Bytes)

	got, err := columnar.ReadFile(ctx, opts.Output)
	require.NoError(t, err)
	assert.Equal(t, 10, got.NumRows())
	assert.Equal(t, []string{"Id", "Regiao", "Paciente", "Status", "Valor", "DataAtendimento"}, got.ColumnNames())

	want := map[string]table.ColumnType{
		"Id":              table.TypeInt64,
		"Regiao":          table.TypeCategorical,
		"Paciente":        table.TypeString,
		"Status":          table.TypeString,
		"Valor":           table.TypeFloat64,
		"DataAtendimento": table.TypeTimestamp,
	}
	for name, typ := range want {
		col, ok := got.ColumnByName(name)
		require.True(t, ok, name)
		assert.Equal(t, typ, col.Type(), name)
	}

	region, _ := got.ColumnByName("Regiao")
	assert.Equal(t, []string{"Norte", "Sul"}, region.Dictionary().Labels)

	// published copy is byte-identical with the same modification time
	published := filepath.Join(opts.PublishTarget, "dados_producao.parquet")
	assert.Equal(t, published, result.Published.Destination)
	src, err := os.ReadFile(opts.Output)
	require.NoError(t, err)
	dst, err := os.ReadFile(published)
	require.NoError(t, err)
	assert.Equal(t, src, dst)

	srcInfo, err := os.Stat(opts.Output)
	require.NoError(t, err)
	dstInfo, err := os.Stat(published)
	require.NoError(t, err)
	assert.True(t, srcInfo.ModTime().Equal(dstInfo.ModTime()))

	metricsFile := filepath.Join(dir, "parquetize.prom")
	require.NoError(t, collector.WriteTextfile(metricsFile))
	text, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(text), "parquetize_rows_loaded_total 10")
	assert.Contains(t, string(text), "parquetize_categorical_conversions_total 1")
}

func TestConverter_MissingSource(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions(dir)

	core, logs := observer.New(zap.DebugLevel)
	collector := metrics.NewCollector()
	_, err := NewConverter(opts, zap.New(core), collector).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsSourceNotFound(err))
	assert.Contains(t, err.Error(), "Base_Producao.xlsx")

	failed := logs.FilterMessage("conversion failed").All()
	require.Len(t, failed, 1)
	stack, ok := failed[0].ContextMap()["stack"].([]interface{})
	require.True(t, ok, "stack field should be a string list")
	require.NotEmpty(t, stack)
	assert.Contains(t, stack[0], "spreadsheet")

	assert.NoFileExists(t, opts.Output)
	assert.NoDirExists(t, opts.PublishTarget)

	n, err := promtest.GatherAndCount(collector.Registry(), "parquetize_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestConverter_NestedPublishDir(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions(dir)
	opts.PublishTarget = filepath.Join(dir, "out", "reports")
	testutil.WriteWorkbook(t, opts.Source, productionSheet())

	result, err := NewConverter(opts, nil, nil).Run(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "out", "reports", "dados_producao.parquet"))
	assert.False(t, result.Published.Skipped)
}

func TestConverter_RunTwiceOverwrites(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	opts := testOptions(dir)

	testutil.WriteWorkbook(t, opts.Source, productionSheet())
	_, err := NewConverter(opts, nil, nil).Run(ctx)
	require.NoError(t, err)

	// second run from a smaller workbook replaces both files
	testutil.WriteWorkbook(t, opts.Source, testutil.Sheet{
		Header: []string{"Regiao"},
		Rows:   [][]interface{}{{"Norte"}, {"Norte"}, {"Norte"}},
	})
	_, err = NewConverter(opts, nil, nil).Run(ctx)
	require.NoError(t, err)

	for _, path := range []string{opts.Output, filepath.Join(opts.PublishTarget, "dados_producao.parquet")} {
		got, err := columnar.ReadFile(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, 3, got.NumRows())
		assert.Equal(t, []string{"Regiao"}, got.ColumnNames())
	}
}

func TestConverter_HighCardinalityStaysText(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	opts := testOptions(dir)
	testutil.WriteWorkbook(t, opts.Source, testutil.Sheet{
		Header: []string{"Regiao"},
		Rows:   [][]interface{}{{"N"}, {"S"}, {"N"}, {"E"}},
	})

	result, err := NewConverter(opts, nil, nil).Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, result.Converted)

	got, err := columnar.ReadFile(ctx, opts.Output)
	require.NoError(t, err)
	col, _ := got.ColumnByName("Regiao")
	assert.Equal(t, table.TypeString, col.Type())
}

func TestConverter_OptimizeDisabled(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	opts := testOptions(dir)
	opts.Optimize = false
	testutil.WriteWorkbook(t, opts.Source, productionSheet())

	result, err := NewConverter(opts, nil, nil).Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, result.Converted)

	got, err := columnar.ReadFile(ctx, opts.Output)
	require.NoError(t, err)
	assert.Zero(t, got.CountType(table.TypeCategorical))
}

func TestConverter_ArrowFormat(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	opts := testOptions(dir)
	opts.Format = columnar.Arrow
	opts.Compression = columnar.Zstd
	opts.Output = filepath.Join(dir, "dados_producao.arrow")
	testutil.WriteWorkbook(t, opts.Source, productionSheet())

	result, err := NewConverter(opts, nil, nil).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, columnar.Arrow, result.Output.Format)

	format, err := columnar.DetectFormat(filepath.Join(opts.PublishTarget, "dados_producao.arrow"))
	require.NoError(t, err)
	assert.Equal(t, columnar.Arrow, format)
}

func TestConverter_CorruptSource(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions(dir)
	require.NoError(t, os.WriteFile(opts.Source, []byte("garbage"), 0o644))

	_, err := NewConverter(opts, nil, nil).Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeParse))
	assert.NoFileExists(t, opts.Output)
}
