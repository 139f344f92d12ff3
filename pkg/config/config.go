package config

import (
	"strings"

	"github.com/ajitpratap0/parquetize/pkg/errors"
)

// Config is the configuration of a single conversion run.
type Config struct {
	// Source selects the spreadsheet to read
	Source SourceConfig `yaml:"source" json:"source"`

	// Output describes the generated columnar file
	Output OutputConfig `yaml:"output" json:"output"`

	// Optimize controls categorical encoding of text columns
	Optimize OptimizeConfig `yaml:"optimize" json:"optimize"`

	// Publish describes where the generated file is copied
	Publish PublishConfig `yaml:"publish" json:"publish"`

	// Logging configures status output
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Metrics configures the run summary
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// SourceConfig selects the spreadsheet.
type SourceConfig struct {
	// Path of the workbook
	Path string `yaml:"path" json:"path"`
	// Sheet to read; empty means the first sheet
	Sheet string `yaml:"sheet" json:"sheet"`
}

// OutputConfig describes the columnar file.
type OutputConfig struct {
	// Path of the generated file, relative to the working directory
	Path string `yaml:"path" json:"path"`
	// Format is parquet or arrow
	Format string `yaml:"format" json:"format"`
	// Compression codec: snappy, zstd, gzip, brotli, lz4 or none
	Compression string `yaml:"compression" json:"compression"`
	// RowGroupSize caps the rows per Parquet row group
	RowGroupSize int64 `yaml:"row_group_size" json:"row_group_size"`
}

// OptimizeConfig controls the distinct ratio classifier.
type OptimizeConfig struct {
	Enabled                bool    `yaml:"enabled" json:"enabled"`
	Threshold              float64 `yaml:"threshold" json:"threshold"`
	CountMissingAsDistinct bool    `yaml:"count_missing_as_distinct" json:"count_missing_as_distinct"`
}

// PublishConfig describes the publish target.
type PublishConfig struct {
	// Dir is a local directory, s3://bucket/prefix or gs://bucket/prefix
	Dir string `yaml:"dir" json:"dir"`
	// Region for S3 targets; empty uses the AWS default chain
	Region string `yaml:"region" json:"region"`
	// CredentialsFile for GCS targets; empty uses application default credentials
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level" json:"level"`
	Encoding    string `yaml:"encoding" json:"encoding"`
	Development bool   `yaml:"development" json:"development"`
}

// MetricsConfig configures the Prometheus run summary.
type MetricsConfig struct {
	// TextfilePath, when set, receives the metrics in text exposition format
	TextfilePath string `yaml:"textfile_path" json:"textfile_path"`
}

// Default returns the configuration used when nothing is specified.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Path: "Base_Producao.xlsx",
		},
		Output: OutputConfig{
			Path:         "dados_producao.parquet",
			Format:       "parquet",
			Compression:  "snappy",
			RowGroupSize: 128 * 1024,
		},
		Optimize: OptimizeConfig{
			Enabled:                true,
			Threshold:              0.5,
			CountMissingAsDistinct: true,
		},
		Publish: PublishConfig{
			Dir: "public",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "console",
		},
	}
}

var (
	validFormats      = []string{"parquet", "arrow"}
	validCompressions = []string{"snappy", "zstd", "gzip", "brotli", "lz4", "none"}
)

// Validate validates the configuration for correctness.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Source.Path) == "" {
		return errors.New(errors.ErrorTypeConfig, "source path is required")
	}
	if strings.TrimSpace(c.Output.Path) == "" {
		return errors.New(errors.ErrorTypeConfig, "output path is required")
	}
	if strings.TrimSpace(c.Publish.Dir) == "" {
		return errors.New(errors.ErrorTypeConfig, "publish dir is required")
	}
	if !contains(validFormats, c.Output.Format) {
		return errors.Newf(errors.ErrorTypeConfig, "unsupported output format %q", c.Output.Format).
			WithDetail("valid", validFormats)
	}
	if !contains(validCompressions, c.Output.Compression) {
		return errors.Newf(errors.ErrorTypeConfig, "unsupported compression %q", c.Output.Compression).
			WithDetail("valid", validCompressions)
	}
	if c.Output.RowGroupSize <= 0 {
		return errors.New(errors.ErrorTypeConfig, "row_group_size must be positive")
	}
	if c.Optimize.Threshold <= 0 || c.Optimize.Threshold > 1 {
		return errors.Newf(errors.ErrorTypeConfig, "threshold must be in (0, 1], got %v", c.Optimize.Threshold)
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
