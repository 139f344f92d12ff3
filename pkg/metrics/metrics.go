// Package metrics records conversion metrics with Prometheus.
//
// A converter run is a short batch job, so there is no scrape endpoint.
// Each run gets its own registry which can be written to a node_exporter
// textfile collector directory when the run finishes.
//
// # Basic Usage
//
//	collector := metrics.NewCollector()
//	timer := metrics.NewTimer()
//	tbl, err := load(path)
//	collector.ObserveStage(metrics.StageLoad, timer.Stop())
//	collector.RecordRows(tbl.NumRows())
//	...
//	collector.RecordRun(err)
//	_ = collector.WriteTextfile("/var/lib/node_exporter/parquetize.prom")
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ajitpratap0/parquetize/pkg/errors"
)

const namespace = "parquetize"

// Pipeline stages
const (
	StageLoad     = "load"
	StageOptimize = "optimize"
	StageSave     = "save"
	StagePublish  = "publish"
)

// Collector holds the metrics of one run
type Collector struct {
	registry *prometheus.Registry

	rowsLoaded         prometheus.Counter
	columns            *prometheus.GaugeVec
	categoricalColumns prometheus.Counter
	stageDuration      *prometheus.HistogramVec
	outputBytes        prometheus.Gauge
	runs               *prometheus.CounterVec
	lastSuccess        prometheus.Gauge
}

// NewCollector creates a collector with a fresh registry
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		rowsLoaded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_loaded_total",
			Help:      "Data rows read from the source spreadsheet",
		}),
		columns: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "columns",
			Help:      "Columns in the written table by type",
		}, []string{"type"}),
		categoricalColumns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "categorical_conversions_total",
			Help:      "Text columns converted to categorical",
		}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage",
			Buckets:   []float64{.005, .01, .05, .1, .5, 1, 5, 10, 30, 60, 300},
		}, []string{"stage"}),
		outputBytes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "output_bytes",
			Help:      "Size of the written columnar file",
		}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Conversion runs by outcome",
		}, []string{"status", "error_type"}),
		lastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		}),
	}
}

// Registry exposes the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordRows counts rows read from the source
func (c *Collector) RecordRows(rows int) {
	c.rowsLoaded.Add(float64(rows))
}

// RecordColumnTypes sets the per-type column gauge
func (c *Collector) RecordColumnTypes(counts map[string]int) {
	c.columns.Reset()
	for typ, n := range counts {
		c.columns.WithLabelValues(typ).Set(float64(n))
	}
}

// RecordCategorical counts converted columns
func (c *Collector) RecordCategorical(n int) {
	c.categoricalColumns.Add(float64(n))
}

// ObserveStage records how long a stage took
func (c *Collector) ObserveStage(stage string, d time.Duration) {
	c.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordOutput records the size of the written file
func (c *Collector) RecordOutput(bytes int64) {
	c.outputBytes.Set(float64(bytes))
}

// RecordRun records the outcome of a run
func (c *Collector) RecordRun(err error) {
	if err == nil {
		c.runs.WithLabelValues("success", "").Inc()
		c.lastSuccess.SetToCurrentTime()
		return
	}
	c.runs.WithLabelValues("failure", string(errors.TypeOf(err))).Inc()
}

// WriteTextfile writes every metric in the text exposition format. The file
// is replaced atomically.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to write metrics textfile").
			WithDetail("path", path)
	}
	return nil
}

// Timer measures elapsed time
type Timer struct {
	start time.Time
}

// NewTimer starts a timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop returns the time elapsed since the timer started
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
