package columnar

import (
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/parquetize/pkg/errors"
	"github.com/ajitpratap0/parquetize/pkg/table"
)

// arrowCodec returns the IPC compression option for c. The IPC format only
// knows zstd and lz4; other codecs write uncompressed buffers.
func arrowCodec(c Compression) ([]ipc.Option, Compression, error) {
	switch c {
	case Zstd:
		return []ipc.Option{ipc.WithZstd()}, Zstd, nil
	case LZ4:
		return []ipc.Option{ipc.WithLZ4()}, LZ4, nil
	case Snappy, Gzip, Brotli, Uncompressed, "":
		return nil, Uncompressed, nil
	default:
		return nil, "", errors.Newf(errors.ErrorTypeConfig, "unsupported compression: %s", c)
	}
}

func writeArrow(w io.Writer, rec arrow.Record, config *WriterConfig, mem memory.Allocator) (Compression, error) {
	codecOpts, used, err := arrowCodec(config.Compression)
	if err != nil {
		return "", err
	}

	opts := append([]ipc.Option{ipc.WithSchema(rec.Schema()), ipc.WithAllocator(mem)}, codecOpts...)
	fw, err := ipc.NewFileWriter(w, opts...)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeFile, "failed to create Arrow writer")
	}
	if err := fw.Write(rec); err != nil {
		_ = fw.Close()
		return "", errors.Wrap(err, errors.ErrorTypeFile, "failed to write Arrow data")
	}
	if err := fw.Close(); err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeFile, "failed to finalize Arrow file")
	}
	return used, nil
}

func readArrow(path string, mem memory.Allocator) (*table.Table, error) {
	f, err := os.Open(path) //nolint:gosec // caller-provided path
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open file").
			WithDetail("path", path)
	}
	defer func() { _ = f.Close() }()

	reader, err := ipc.NewFileReader(f, ipc.WithAllocator(mem))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeParse, "failed to open Arrow file").
			WithDetail("path", path)
	}
	defer func() { _ = reader.Close() }()

	schema := reader.Schema()
	var pandas string
	if idx := schema.Metadata().FindKey(pandasKey); idx >= 0 {
		pandas = schema.Metadata().Values()[idx]
	}
	categorical := categoricalColumns(pandas)

	chunks := make([][]arrow.Array, schema.NumFields())
	for i := 0; i < reader.NumRecords(); i++ {
		rec, err := reader.RecordAt(i)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeParse, "failed to read Arrow record").
				WithDetail("path", path)
		}
		defer rec.Release()
		for c := range chunks {
			chunks[c] = append(chunks[c], rec.Column(c))
		}
	}

	columns := make([]*table.Column, 0, schema.NumFields())
	for i, field := range schema.Fields() {
		c, err := fromChunks(field, chunks[i], categorical[field.Name])
		if err != nil {
			return nil, err
		}
		columns = append(columns, c)
	}
	return table.New(columns...)
}
