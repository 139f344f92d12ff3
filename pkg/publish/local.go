package publish

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/parquetize/pkg/errors"
)

// LocalPublisher copies files into a directory
type LocalPublisher struct {
	dir    string
	logger *zap.Logger
}

// NewLocalPublisher creates a publisher for dir. The directory and its
// parents are created on first publish.
func NewLocalPublisher(dir string, logger *zap.Logger) *LocalPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalPublisher{dir: dir, logger: logger}
}

// Publish copies source into the directory under its base name.
func (p *LocalPublisher) Publish(ctx context.Context, source string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "publish cancelled")
	}

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to create publish directory").
			WithDetail("dir", p.dir)
	}
	dest := filepath.Join(p.dir, filepath.Base(source))

	n, skipped, err := CopyFile(source, dest)
	if err != nil {
		return nil, err
	}
	if skipped {
		p.logger.Debug("source already published", zap.String("path", dest))
	}
	return &Result{Source: source, Destination: dest, Bytes: n, Skipped: skipped}, nil
}

// Close implements Publisher
func (p *LocalPublisher) Close() error { return nil }

// CopyFile copies src to dst, replacing dst. The copy gets the permission
// bits and modification time of src. When src and dst are the same file
// nothing is written and skipped is true.
func CopyFile(src, dst string) (n int64, skipped bool, err error) {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return 0, false, errors.Wrap(err, errors.ErrorTypeFile, "failed to stat source").
			WithDetail("path", src)
	}
	if dstInfo, err := os.Stat(dst); err == nil && os.SameFile(srcInfo, dstInfo) {
		return srcInfo.Size(), true, nil
	}

	in, err := os.Open(src) //nolint:gosec // path comes from the pipeline
	if err != nil {
		return 0, false, errors.Wrap(err, errors.ErrorTypeFile, "failed to open source").
			WithDetail("path", src)
	}
	defer func() { _ = in.Close() }()

	perm := srcInfo.Mode().Perm()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm) //nolint:gosec // destination derived from config
	if err != nil {
		return 0, false, errors.Wrap(err, errors.ErrorTypeFile, "failed to create destination").
			WithDetail("path", dst)
	}

	n, err = io.Copy(out, in)
	if err != nil {
		_ = out.Close()
		return 0, false, errors.Wrap(err, errors.ErrorTypeFile, "failed to copy file").
			WithDetail("src", src).
			WithDetail("dst", dst)
	}
	if err := out.Close(); err != nil {
		return 0, false, errors.Wrap(err, errors.ErrorTypeFile, "failed to close destination").
			WithDetail("path", dst)
	}

	// O_CREATE applies the umask and an existing file keeps its old mode
	if err := os.Chmod(dst, perm); err != nil {
		return 0, false, errors.Wrap(err, errors.ErrorTypeFile, "failed to set permissions").
			WithDetail("path", dst)
	}
	if err := os.Chtimes(dst, time.Now(), srcInfo.ModTime()); err != nil {
		return 0, false, errors.Wrap(err, errors.ErrorTypeFile, "failed to set modification time").
			WithDetail("path", dst)
	}
	return n, false, nil
}
