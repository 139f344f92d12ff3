package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/parquetize/internal/pipeline"
	"github.com/ajitpratap0/parquetize/pkg/config"
	"github.com/ajitpratap0/parquetize/pkg/errors"
	"github.com/ajitpratap0/parquetize/pkg/formats/columnar"
	"github.com/ajitpratap0/parquetize/pkg/json"
	"github.com/ajitpratap0/parquetize/pkg/logger"
	"github.com/ajitpratap0/parquetize/pkg/metrics"
	"github.com/ajitpratap0/parquetize/pkg/table"
)

var version = "0.1.0"

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string
	defaults := config.Default()

	root := &cobra.Command{
		Use:   "parquetize",
		Short: "Convert a production spreadsheet to a compressed columnar file",
		Long: `parquetize reads the first sheet of an XLSX workbook, stores low-cardinality
text columns as categorical, writes the table as Parquet (or Arrow IPC) and
copies the result into a publishing directory or bucket.

Settings are taken from flags, then PARQUETIZE_* environment variables, then
the --config YAML file, then built-in defaults.

Example:
  parquetize --excel Base_Producao.xlsx --output dados_producao.parquet --public-dir public`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, configFile)
			if err != nil {
				return err
			}
			return runConvert(cmd.Context(), cfg)
		},
	}

	flags := root.Flags()
	flags.StringVar(&configFile, "config", "", "Path to a YAML configuration file")
	flags.String(config.KeyExcel, defaults.Source.Path, "Source XLSX workbook")
	flags.String(config.KeyOutput, defaults.Output.Path, "Columnar file to generate")
	flags.String(config.KeyPublicDir, defaults.Publish.Dir, "Directory (or s3://, gs:// prefix) the output is copied to")
	flags.String(config.KeySheet, "", "Sheet to read (default: first sheet)")
	flags.Float64(config.KeyThreshold, defaults.Optimize.Threshold, "Distinct ratio below which text columns become categorical")
	flags.Bool(config.KeyNoOptimize, false, "Keep every text column as plain text")
	flags.String(config.KeyFormat, defaults.Output.Format, "Output format (parquet, arrow)")
	flags.String(config.KeyCompression, defaults.Output.Compression, "Compression codec (snappy, zstd, gzip, brotli, lz4, none)")
	flags.String(config.KeyLogLevel, defaults.Logging.Level, "Log level (debug, info, warn, error)")
	flags.String(config.KeyMetricsFile, "", "Write Prometheus metrics to this textfile when the run ends")

	root.AddCommand(newInspectCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "parquetize v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	return root
}

// resolveConfig merges defaults, the config file, PARQUETIZE_* variables and
// explicitly set flags, in increasing order of precedence.
func resolveConfig(cmd *cobra.Command, configFile string) (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.LoadFile(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	v := config.NewViper()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to bind flags")
	}
	config.ApplyOverrides(v, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runConvert(ctx context.Context, cfg *config.Config) error {
	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Encoding:    cfg.Logging.Encoding,
		Development: cfg.Logging.Development,
	}); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to initialize logger")
	}
	defer func() { _ = logger.Sync() }()
	log := logger.With(zap.String("component", "converter"))

	collector := metrics.NewCollector()
	if cfg.Metrics.TextfilePath != "" {
		defer func() {
			if werr := collector.WriteTextfile(cfg.Metrics.TextfilePath); werr != nil {
				log.Warn("failed to write metrics", zap.Error(werr))
			}
		}()
	}

	opts := pipeline.OptionsFromConfig(cfg)
	opts.Version = version

	result, err := pipeline.NewConverter(opts, log, collector).Run(ctx)
	if err != nil {
		return err
	}

	log.Info("conversion completed",
		zap.Int("rows", result.Rows),
		zap.Int("columns", result.Columns),
		zap.Strings("categorical", result.Converted),
		zap.Int64("bytes", result.Output.Bytes),
		zap.Duration("duration", result.Duration))
	return nil
}

func newInspectCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Describe a Parquet or Arrow IPC file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := inspect(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return json.MarshalToWriter(cmd.OutOrStdout(), summary, "  ")
			}
			summary.print(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the description as JSON")
	return cmd
}

type columnSummary struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Categories int    `json:"categories,omitempty"`
}

type fileSummary struct {
	Path    string          `json:"path"`
	Format  string          `json:"format"`
	Rows    int             `json:"rows"`
	Columns []columnSummary `json:"columns"`
}

func inspect(ctx context.Context, path string) (*fileSummary, error) {
	format, err := columnar.DetectFormat(path)
	if err != nil {
		return nil, err
	}
	tbl, err := columnar.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}

	summary := &fileSummary{
		Path:    path,
		Format:  string(format),
		Rows:    tbl.NumRows(),
		Columns: make([]columnSummary, 0, tbl.NumCols()),
	}
	for _, col := range tbl.Columns() {
		c := columnSummary{Name: col.Name(), Type: string(col.Type())}
		if dict := col.Dictionary(); dict != nil {
			c.Categories = len(dict.Labels)
		}
		summary.Columns = append(summary.Columns, c)
	}
	return summary, nil
}

func (s *fileSummary) print(out io.Writer) {
	fmt.Fprintf(out, "%s (%s)\n", s.Path, s.Format)
	fmt.Fprintf(out, "rows: %d\ncolumns: %d\n", s.Rows, len(s.Columns))
	for _, c := range s.Columns {
		if c.Type == string(table.TypeCategorical) {
			fmt.Fprintf(out, "  %-24s %-12s %d categories\n", c.Name, c.Type, c.Categories)
			continue
		}
		fmt.Fprintf(out, "  %-24s %s\n", c.Name, c.Type)
	}
}
