package config_test

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ajitpratap0/parquetize/pkg/config"
)

// ExampleDefault shows the settings used when nothing is configured.
func ExampleDefault() {
	cfg := config.Default()

	fmt.Printf("Source: %s\n", cfg.Source.Path)
	fmt.Printf("Output: %s (%s, %s)\n", cfg.Output.Path, cfg.Output.Format, cfg.Output.Compression)
	fmt.Printf("Publish: %s\n", cfg.Publish.Dir)
	fmt.Printf("Threshold: %v\n", cfg.Optimize.Threshold)

	// Output:
	// Source: Base_Producao.xlsx
	// Output: dados_producao.parquet (parquet, snappy)
	// Publish: public
	// Threshold: 0.5
}

// ExampleConfig_Validate shows how to validate a configuration before a run.
func ExampleConfig_Validate() {
	cfg := config.Default()
	cfg.Output.Format = "arrow"
	cfg.Output.Compression = "zstd"

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	fmt.Println("Configuration is valid!")

	cfg.Optimize.Threshold = 2
	fmt.Println(cfg.Validate())

	// Output:
	// Configuration is valid!
	// config: threshold must be in (0, 1], got 2
}

// ExampleLoadFile demonstrates loading a YAML file with environment
// variable substitution.
func ExampleLoadFile() {
	dir, err := os.MkdirTemp("", "parquetize-example")
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	_ = os.Setenv("PUBLISH_BUCKET", "dashboards")
	defer func() { _ = os.Unsetenv("PUBLISH_BUCKET") }()

	path := filepath.Join(dir, "parquetize.yaml")
	content := `
source:
  path: producao/Base_Producao.xlsx
publish:
  dir: s3://${PUBLISH_BUCKET}/public
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		log.Fatal(err)
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Source: %s\n", cfg.Source.Path)
	fmt.Printf("Publish: %s\n", cfg.Publish.Dir)
	fmt.Printf("Output: %s\n", cfg.Output.Path)

	// Output:
	// Source: producao/Base_Producao.xlsx
	// Publish: s3://dashboards/public
	// Output: dados_producao.parquet
}
