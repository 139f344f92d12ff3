// Package pipeline runs a conversion: it loads a spreadsheet, optimizes its
// text columns, saves the table as a columnar file and publishes the file.
//
// # Basic Usage
//
//	conv := pipeline.NewConverter(pipeline.OptionsFromConfig(cfg), logger, collector)
//	result, err := conv.Run(ctx)
//
// The stages run in order and stop at the first error. A missing source is
// detected before anything is written, so it leaves neither an output file
// nor a publish directory behind.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/parquetize/pkg/config"
	"github.com/ajitpratap0/parquetize/pkg/errors"
	"github.com/ajitpratap0/parquetize/pkg/formats/columnar"
	"github.com/ajitpratap0/parquetize/pkg/metrics"
	"github.com/ajitpratap0/parquetize/pkg/optimize"
	"github.com/ajitpratap0/parquetize/pkg/publish"
	"github.com/ajitpratap0/parquetize/pkg/spreadsheet"
	"github.com/ajitpratap0/parquetize/pkg/table"
)

// Options controls a conversion run
type Options struct {
	Source string
	Sheet  string

	Output       string
	Format       columnar.Format
	Compression  columnar.Compression
	RowGroupSize int64

	Optimize               bool
	Threshold              float64
	CountMissingAsDistinct bool

	// PublishTarget is a directory, s3://bucket/prefix or gs://bucket/prefix
	PublishTarget   string
	Region          string
	CredentialsFile string

	// Version is recorded as the creator version in the output metadata
	Version string
}

// OptionsFromConfig builds run options from a validated configuration
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Source:                 cfg.Source.Path,
		Sheet:                  cfg.Source.Sheet,
		Output:                 cfg.Output.Path,
		Format:                 columnar.Format(cfg.Output.Format),
		Compression:            columnar.Compression(cfg.Output.Compression),
		RowGroupSize:           cfg.Output.RowGroupSize,
		Optimize:               cfg.Optimize.Enabled,
		Threshold:              cfg.Optimize.Threshold,
		CountMissingAsDistinct: cfg.Optimize.CountMissingAsDistinct,
		PublishTarget:          cfg.Publish.Dir,
		Region:                 cfg.Publish.Region,
		CredentialsFile:        cfg.Publish.CredentialsFile,
	}
}

// Result summarizes a completed run
type Result struct {
	Rows      int
	Columns   int
	Converted []string
	Output    *columnar.WriteStats
	Published *publish.Result
	Duration  time.Duration
}

// Converter runs the load, optimize, save and publish stages
type Converter struct {
	opts    Options
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewConverter creates a converter. A nil logger disables logging and a nil
// collector records into a throwaway registry.
func NewConverter(opts Options, logger *zap.Logger, collector *metrics.Collector) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}
	if opts.Format == "" {
		opts.Format = columnar.Parquet
	}
	if opts.Threshold == 0 {
		opts.Threshold = optimize.DefaultThreshold
	}
	return &Converter{opts: opts, logger: logger, metrics: collector}
}

// Run executes every stage and records the outcome in the collector.
func (c *Converter) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	result, err := c.run(ctx)
	c.metrics.RecordRun(err)
	if err != nil {
		c.logger.Debug("conversion failed",
			zap.Error(err),
			zap.Strings("stack", errors.StackTrace(err)))
		return nil, err
	}
	result.Duration = time.Since(start)
	return result, nil
}

func (c *Converter) run(ctx context.Context) (*Result, error) {
	tbl, err := c.Load(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{Rows: tbl.NumRows(), Columns: tbl.NumCols()}

	if c.opts.Optimize {
		var converted []string
		tbl, converted, err = c.Optimize(ctx, tbl)
		if err != nil {
			return nil, err
		}
		result.Converted = converted
	}

	result.Output, err = c.Save(ctx, tbl)
	if err != nil {
		return nil, err
	}

	result.Published, err = c.Publish(ctx)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Load reads the source spreadsheet.
func (c *Converter) Load(ctx context.Context) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "conversion cancelled")
	}

	c.logger.Info("reading spreadsheet", zap.String("path", c.opts.Source))
	timer := metrics.NewTimer()

	reader := spreadsheet.NewReader(spreadsheet.Options{Sheet: c.opts.Sheet}, c.logger)
	tbl, err := reader.Load(c.opts.Source)
	if err != nil {
		return nil, err
	}

	c.metrics.ObserveStage(metrics.StageLoad, timer.Stop())
	c.metrics.RecordRows(tbl.NumRows())
	c.logger.Info("loaded spreadsheet",
		zap.Int("rows", tbl.NumRows()),
		zap.Int("columns", tbl.NumCols()))
	return tbl, nil
}

// Optimize converts low-cardinality text columns to categorical and
// returns the names of the converted columns.
func (c *Converter) Optimize(ctx context.Context, tbl *table.Table) (*table.Table, []string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrorTypeInternal, "conversion cancelled")
	}

	timer := metrics.NewTimer()
	out, report, err := optimize.Apply(tbl, optimize.Options{
		Threshold:              c.opts.Threshold,
		CountMissingAsDistinct: c.opts.CountMissingAsDistinct,
	})
	if err != nil {
		return nil, nil, err
	}
	c.metrics.ObserveStage(metrics.StageOptimize, timer.Stop())

	for _, d := range report.Decisions {
		if d.ToCategorical {
			c.logger.Info("optimized column",
				zap.String("column", d.Column),
				zap.Float64("ratio", d.Ratio),
				zap.Int("distinct", d.Distinct))
		} else {
			c.logger.Debug("kept text column",
				zap.String("column", d.Column),
				zap.Float64("ratio", d.Ratio),
				zap.Int("distinct", d.Distinct))
		}
	}

	converted := report.Converted()
	c.metrics.RecordCategorical(len(converted))
	return out, converted, nil
}

// Save writes the table to the output path, replacing any previous file.
func (c *Converter) Save(ctx context.Context, tbl *table.Table) (*columnar.WriteStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "conversion cancelled")
	}

	c.logger.Info("writing columnar file",
		zap.String("path", c.opts.Output),
		zap.String("format", string(c.opts.Format)))
	timer := metrics.NewTimer()

	stats, err := columnar.WriteFile(c.opts.Output, tbl, &columnar.WriterConfig{
		Format:         c.opts.Format,
		Compression:    c.opts.Compression,
		RowGroupSize:   c.opts.RowGroupSize,
		Creator:        "parquetize",
		CreatorVersion: c.opts.Version,
	})
	if err != nil {
		return nil, err
	}

	c.metrics.ObserveStage(metrics.StageSave, timer.Stop())
	c.metrics.RecordOutput(stats.Bytes)
	c.metrics.RecordColumnTypes(columnTypes(tbl))
	if stats.Compression != c.opts.Compression && c.opts.Compression != "" {
		c.logger.Warn("compression not supported by format, wrote uncompressed",
			zap.String("format", string(stats.Format)),
			zap.String("requested", string(c.opts.Compression)))
	}
	return stats, nil
}

// Publish copies the output file to the publish target.
func (c *Converter) Publish(ctx context.Context) (*publish.Result, error) {
	timer := metrics.NewTimer()

	p, err := publish.New(ctx, c.opts.PublishTarget, publish.Options{
		Region:          c.opts.Region,
		CredentialsFile: c.opts.CredentialsFile,
		ContentType:     columnar.ContentType(c.opts.Format),
		Logger:          c.logger,
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = p.Close() }()

	res, err := p.Publish(ctx, c.opts.Output)
	if err != nil {
		return nil, err
	}

	c.metrics.ObserveStage(metrics.StagePublish, timer.Stop())
	c.logger.Info("published",
		zap.String("destination", res.Destination),
		zap.Int64("bytes", res.Bytes),
		zap.Bool("skipped", res.Skipped))
	return res, nil
}

func columnTypes(tbl *table.Table) map[string]int {
	counts := make(map[string]int)
	for _, col := range tbl.Columns() {
		counts[string(col.Type())]++
	}
	return counts
}
