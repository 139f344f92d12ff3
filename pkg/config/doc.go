// Package config provides the configuration of a conversion run.
//
// It defines a single Config structure with one section per pipeline stage,
// filled from defaults, an optional YAML file, PARQUETIZE_* environment
// variables and command-line flags, in increasing order of precedence.
//
// The configuration is organized into logical sections:
//   - Source: spreadsheet path and sheet
//   - Output: columnar file path, format and codec
//   - Optimize: categorical classifier settings
//   - Publish: directory or bucket receiving the copy
//   - Logging: zap logger settings
//   - Metrics: Prometheus textfile output
//
// # Configuration File
//
// Every key is optional; missing keys keep their defaults.
//
//	source:
//	  path: Base_Producao.xlsx
//	  sheet: ""
//	output:
//	  path: dados_producao.parquet
//	  format: parquet        # parquet or arrow
//	  compression: snappy    # snappy, zstd, gzip, brotli, lz4, none
//	  row_group_size: 131072
//	optimize:
//	  enabled: true
//	  threshold: 0.5
//	  count_missing_as_distinct: true
//	publish:
//	  dir: public            # or s3://bucket/prefix, gs://bucket/prefix
//	  region: ${AWS_REGION}
//	logging:
//	  level: info
//	  encoding: console
//	metrics:
//	  textfile_path: ""
//
// # Environment Variable Substitution
//
// ${VAR_NAME} references in the file are replaced with the value of the
// environment variable before parsing. Unset variables expand to "".
//
// # Overrides
//
// ApplyOverrides copies keys set through a viper instance onto a Config.
// NewViper maps each flag name to a PARQUETIZE_ variable, with dashes
// turned into underscores: --public-dir becomes PARQUETIZE_PUBLIC_DIR.
//
//	v := config.NewViper()
//	_ = v.BindPFlags(cmd.Flags())
//	config.ApplyOverrides(v, cfg)
package config
