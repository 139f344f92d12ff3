package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/parquetize/pkg/errors"
)

func TestCollector_Records(t *testing.T) {
	c := NewCollector()

	c.RecordRows(120)
	c.RecordCategorical(2)
	c.RecordColumnTypes(map[string]int{"int64": 1, "categorical": 2})
	c.RecordOutput(4096)
	c.ObserveStage(StageLoad, 250*time.Millisecond)
	c.ObserveStage(StageSave, time.Second)

	assert.Equal(t, 120.0, promtest.ToFloat64(c.rowsLoaded))
	assert.Equal(t, 2.0, promtest.ToFloat64(c.categoricalColumns))
	assert.Equal(t, 2.0, promtest.ToFloat64(c.columns.WithLabelValues("categorical")))
	assert.Equal(t, 4096.0, promtest.ToFloat64(c.outputBytes))
	assert.Equal(t, 2, promtest.CollectAndCount(c.stageDuration))

	// a second report replaces the previous column gauge
	c.RecordColumnTypes(map[string]int{"string": 3})
	assert.Equal(t, 1, promtest.CollectAndCount(c.columns))
}

func TestCollector_RecordRun(t *testing.T) {
	c := NewCollector()

	c.RecordRun(nil)
	c.RecordRun(errors.SourceNotFound("Base_Producao.xlsx"))
	c.RecordRun(fmt.Errorf("plain"))

	assert.Equal(t, 1.0, promtest.ToFloat64(c.runs.WithLabelValues("success", "")))
	assert.Equal(t, 1.0, promtest.ToFloat64(c.runs.WithLabelValues("failure", "not_found")))
	assert.Equal(t, 1.0, promtest.ToFloat64(c.runs.WithLabelValues("failure", "internal")))
	assert.Positive(t, promtest.ToFloat64(c.lastSuccess))
}

func TestCollector_WriteTextfile(t *testing.T) {
	c := NewCollector()
	c.RecordRows(7)
	c.RecordRun(nil)

	path := filepath.Join(t.TempDir(), "parquetize.prom")
	require.NoError(t, c.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "parquetize_rows_loaded_total 7")
	assert.Contains(t, text, `parquetize_runs_total{error_type="",status="success"} 1`)
	assert.True(t, strings.HasSuffix(text, "\n"))

	err = c.WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFile))
}

func TestTimer(t *testing.T) {
	timer := NewTimer()
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, timer.Stop(), 5*time.Millisecond)
}
