// Package columnar writes Tables to compressed columnar files and reads them
// back.
//
// Two formats are supported: Apache Parquet (the default) and the Apache
// Arrow IPC file format. Categorical columns are stored as Arrow dictionary
// columns in both, so they come back categorical when read.
package columnar

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/parquetize/pkg/errors"
	"github.com/ajitpratap0/parquetize/pkg/table"
)

// Format represents a columnar storage format
type Format string

const (
	// Parquet is Apache Parquet format
	Parquet Format = "parquet"
	// Arrow is the Apache Arrow IPC file format
	Arrow Format = "arrow"
)

// Compression names a codec
type Compression string

const (
	Snappy       Compression = "snappy"
	Zstd         Compression = "zstd"
	Gzip         Compression = "gzip"
	Brotli       Compression = "brotli"
	LZ4          Compression = "lz4"
	Uncompressed Compression = "none"
)

// WriterConfig configures columnar writers
type WriterConfig struct {
	Format       Format
	Compression  Compression
	RowGroupSize int64
	// Creator and CreatorVersion are recorded in the file metadata
	Creator        string
	CreatorVersion string
}

// DefaultWriterConfig returns default writer configuration
func DefaultWriterConfig() *WriterConfig {
	return &WriterConfig{
		Format:       Parquet,
		Compression:  Snappy,
		RowGroupSize: 128 * 1024,
		Creator:      "parquetize",
	}
}

// WriteStats describes a written file
type WriteStats struct {
	Format      Format
	Compression Compression // codec actually used
	Rows        int
	Columns     int
	Bytes       int64
}

// WriteFile writes the table to path, replacing any existing file. A failed
// write leaves whatever was written in place.
func WriteFile(path string, tbl *table.Table, config *WriterConfig) (*WriteStats, error) {
	f, err := os.Create(path) //nolint:gosec // output path comes from configuration
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create output file").
			WithDetail("path", path)
	}
	defer func() { _ = f.Close() }()

	bw := bufio.NewWriterSize(f, 1<<20)
	stats, err := Write(bw, tbl, config)
	if err != nil {
		return nil, err
	}
	if err := bw.Flush(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to flush output file").
			WithDetail("path", path)
	}
	if err := f.Sync(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to sync output file").
			WithDetail("path", path)
	}

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to stat output file").
			WithDetail("path", path)
	}
	stats.Bytes = info.Size()
	return stats, nil
}

// Write serializes the table to w.
func Write(w io.Writer, tbl *table.Table, config *WriterConfig) (*WriteStats, error) {
	if config == nil {
		config = DefaultWriterConfig()
	}

	mem := memory.NewGoAllocator()
	rec, err := toRecord(tbl, mem, pandasMetadata(tbl, config.Creator, config.CreatorVersion))
	if err != nil {
		return nil, err
	}
	defer rec.Release()

	stats := &WriteStats{
		Format:  config.Format,
		Rows:    tbl.NumRows(),
		Columns: tbl.NumCols(),
	}

	switch config.Format {
	case Parquet:
		stats.Compression, err = writeParquet(w, rec, config, mem)
	case Arrow:
		stats.Compression, err = writeArrow(w, rec, config, mem)
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported columnar format: %s", config.Format)
	}
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// ReadFile reads a Parquet or Arrow IPC file back into a Table. The format
// is detected from the file's magic bytes.
func ReadFile(ctx context.Context, path string) (*table.Table, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	mem := memory.NewGoAllocator()
	switch format {
	case Parquet:
		return readParquet(ctx, path, mem)
	default:
		return readArrow(path, mem)
	}
}

var (
	parquetMagic = []byte("PAR1")
	arrowMagic   = []byte("ARROW1")
)

// DetectFormat inspects the leading magic bytes of the file at path.
func DetectFormat(path string) (Format, error) {
	f, err := os.Open(path) //nolint:gosec // caller-provided path
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeFile, "failed to open file").
			WithDetail("path", path)
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, len(arrowMagic))
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return "", errors.Wrap(err, errors.ErrorTypeParse, "failed to read file header").
			WithDetail("path", path)
	}
	head = head[:n]

	switch {
	case hasPrefix(head, arrowMagic):
		return Arrow, nil
	case hasPrefix(head, parquetMagic):
		return Parquet, nil
	default:
		return "", errors.New(errors.ErrorTypeParse, "not a Parquet or Arrow IPC file").
			WithDetail("path", path)
	}
}

func hasPrefix(b, prefix []byte) bool {
	if len(b) < len(prefix) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}

// FileExtension returns the conventional extension of a format
func FileExtension(format Format) string {
	switch format {
	case Arrow:
		return ".arrow"
	default:
		return ".parquet"
	}
}

// ContentType returns the MIME type of a format
func ContentType(format Format) string {
	switch format {
	case Arrow:
		return "application/vnd.apache.arrow.file"
	default:
		return "application/vnd.apache.parquet"
	}
}
