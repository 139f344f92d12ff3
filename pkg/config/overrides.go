package config

import (
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. PARQUETIZE_PUBLIC_DIR.
const EnvPrefix = "PARQUETIZE"

// Override keys. They double as flag names and, upper-cased with dashes
// turned into underscores, as environment variable suffixes.
const (
	KeyExcel       = "excel"
	KeySheet       = "sheet"
	KeyOutput      = "output"
	KeyFormat      = "format"
	KeyCompression = "compression"
	KeyPublicDir   = "public-dir"
	KeyThreshold   = "threshold"
	KeyNoOptimize  = "no-optimize"
	KeyLogLevel    = "log-level"
	KeyMetricsFile = "metrics-file"
)

// NewViper returns a viper instance reading PARQUETIZE_* environment variables.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// ApplyOverrides copies every key explicitly set in v (changed flag or
// environment variable) onto cfg. Flag defaults are not considered set.
func ApplyOverrides(v *viper.Viper, cfg *Config) {
	if v.IsSet(KeyExcel) {
		cfg.Source.Path = v.GetString(KeyExcel)
	}
	if v.IsSet(KeySheet) {
		cfg.Source.Sheet = v.GetString(KeySheet)
	}
	if v.IsSet(KeyOutput) {
		cfg.Output.Path = v.GetString(KeyOutput)
	}
	if v.IsSet(KeyFormat) {
		cfg.Output.Format = strings.ToLower(v.GetString(KeyFormat))
	}
	if v.IsSet(KeyCompression) {
		cfg.Output.Compression = strings.ToLower(v.GetString(KeyCompression))
	}
	if v.IsSet(KeyPublicDir) {
		cfg.Publish.Dir = v.GetString(KeyPublicDir)
	}
	if v.IsSet(KeyThreshold) {
		cfg.Optimize.Threshold = v.GetFloat64(KeyThreshold)
	}
	if v.IsSet(KeyNoOptimize) && v.GetBool(KeyNoOptimize) {
		cfg.Optimize.Enabled = false
	}
	if v.IsSet(KeyLogLevel) {
		cfg.Logging.Level = v.GetString(KeyLogLevel)
	}
	if v.IsSet(KeyMetricsFile) {
		cfg.Metrics.TextfilePath = v.GetString(KeyMetricsFile)
	}
}
