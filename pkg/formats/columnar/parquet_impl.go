package columnar

import (
	"context"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/ajitpratap0/parquetize/pkg/errors"
	"github.com/ajitpratap0/parquetize/pkg/table"
)

// parquetCodec maps a compression name to the Parquet codec
func parquetCodec(c Compression) (compress.Compression, Compression, error) {
	switch c {
	case Snappy:
		return compress.Codecs.Snappy, Snappy, nil
	case Zstd:
		return compress.Codecs.Zstd, Zstd, nil
	case Gzip:
		return compress.Codecs.Gzip, Gzip, nil
	case Brotli:
		return compress.Codecs.Brotli, Brotli, nil
	case LZ4:
		return compress.Codecs.Lz4Raw, LZ4, nil
	case Uncompressed, "":
		return compress.Codecs.Uncompressed, Uncompressed, nil
	default:
		return compress.Codecs.Uncompressed, "", errors.Newf(errors.ErrorTypeConfig,
			"unsupported compression: %s", c)
	}
}

func writeParquet(w io.Writer, rec arrow.Record, config *WriterConfig, mem memory.Allocator) (Compression, error) {
	codec, used, err := parquetCodec(config.Compression)
	if err != nil {
		return "", err
	}

	rowGroup := config.RowGroupSize
	if rowGroup <= 0 {
		rowGroup = DefaultWriterConfig().RowGroupSize
	}

	props := parquet.NewWriterProperties(
		parquet.WithCompression(codec),
		parquet.WithDictionaryDefault(true),
		parquet.WithMaxRowGroupLength(rowGroup),
		parquet.WithAllocator(mem),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithStoreSchema(),
		pqarrow.WithAllocator(mem),
	)

	fw, err := pqarrow.NewFileWriter(rec.Schema(), w, props, arrowProps)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeFile, "failed to create Parquet writer")
	}
	if err := fw.Write(rec); err != nil {
		_ = fw.Close()
		return "", errors.Wrap(err, errors.ErrorTypeFile, "failed to write Parquet data")
	}
	if err := fw.Close(); err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeFile, "failed to finalize Parquet file")
	}
	return used, nil
}

func readParquet(ctx context.Context, path string, mem memory.Allocator) (*table.Table, error) {
	fr, err := file.OpenParquetFile(path, false, file.WithReadProps(parquet.NewReaderProperties(mem)))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeParse, "failed to open Parquet file").
			WithDetail("path", path)
	}
	defer func() { _ = fr.Close() }()

	var pandas string
	if v := fr.MetaData().KeyValueMetadata().FindValue(pandasKey); v != nil {
		pandas = *v
	}
	categorical := categoricalColumns(pandas)

	props := pqarrow.ArrowReadProperties{}
	for name := range categorical {
		if idx := fr.MetaData().Schema.ColumnIndexByName(name); idx >= 0 {
			props.SetReadDict(idx, true)
		}
	}

	reader, err := pqarrow.NewFileReader(fr, props, mem)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeParse, "failed to create Arrow reader").
			WithDetail("path", path)
	}

	tbl, err := reader.ReadTable(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeParse, "failed to read Parquet data").
			WithDetail("path", path)
	}
	defer tbl.Release()

	columns := make([]*table.Column, 0, tbl.NumCols())
	for i := 0; i < int(tbl.NumCols()); i++ {
		col := tbl.Column(i)
		field := tbl.Schema().Field(i)
		c, err := fromChunks(field, col.Data().Chunks(), categorical[field.Name])
		if err != nil {
			return nil, err
		}
		columns = append(columns, c)
	}
	return table.New(columns...)
}
