// Package parquetize converts a spreadsheet export into a columnar file that
// dashboards can load directly.
//
// A run reads the first worksheet of an XLSX workbook, infers one type per
// column, turns low-cardinality text columns into categoricals, writes the
// table as Parquet (or Arrow IPC) and publishes a byte-identical copy of the
// result into a directory the dashboard serves from.
//
// # Quick Start
//
//	parquetize \
//	    --excel Base_Producao.xlsx \
//	    --output dados_producao.parquet \
//	    --public-dir public
//
// Every flag has a default, so a bare `parquetize` run in the directory that
// holds Base_Producao.xlsx does the same thing. A missing workbook fails the
// run with a non-zero exit status and leaves no output behind.
//
// Use the pipeline from Go code:
//
//	import (
//	    "github.com/ajitpratap0/parquetize/internal/pipeline"
//	    "github.com/ajitpratap0/parquetize/pkg/config"
//	)
//
//	opts := pipeline.OptionsFromConfig(config.Default())
//	result, err := pipeline.NewConverter(opts, logger, nil).Run(ctx)
//
// # Column Types
//
// Columns are stored as int64, float64, bool, string, timestamp or
// categorical. A text column becomes categorical when its distinct-value
// ratio (distinct values, with missing counted as one, over rows) is
// strictly below the threshold, 0.5 by default. Category labels are sorted
// and the Parquet file carries pandas metadata so pandas and pyarrow read
// the categoricals back as such.
//
// # Publishing
//
// The publish target is a local directory, created as needed, or an
// s3://bucket/prefix or gs://bucket/prefix URL. Local copies keep the
// source's permission bits and modification time.
//
// # Configuration
//
// Settings resolve in order: command-line flags, PARQUETIZE_* environment
// variables, a YAML file passed with --config, then built-in defaults. YAML
// values support ${VAR_NAME} substitution and a .env file in the working
// directory is loaded at startup.
//
// # Observability
//
// Logging is structured (zap). Pass --metrics-file to write the run's
// Prometheus metrics in textfile-collector format.
//
// Inspect a written file:
//
//	parquetize inspect dados_producao.parquet
//	parquetize inspect --json dados_producao.parquet
package parquetize
