package publish

import (
	"context"
	"io"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/ajitpratap0/parquetize/pkg/errors"
)

// GCSPublisher uploads files to a Google Cloud Storage bucket
type GCSPublisher struct {
	target      Target
	contentType string
	client      *storage.Client
	bucket      *storage.BucketHandle
	logger      *zap.Logger
}

// NewGCSPublisher creates a GCS publisher. Without a credentials file the
// application default credentials are used.
func NewGCSPublisher(ctx context.Context, target Target, opts Options) (*GCSPublisher, error) {
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create GCS client")
	}

	return &GCSPublisher{
		target:      target,
		contentType: opts.ContentType,
		client:      client,
		bucket:      client.Bucket(target.Bucket),
		logger:      opts.Logger,
	}, nil
}

// Publish uploads source under the target prefix.
func (p *GCSPublisher) Publish(ctx context.Context, source string) (*Result, error) {
	f, err := os.Open(source) //nolint:gosec // path comes from the pipeline
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open source").
			WithDetail("path", source)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to stat source").
			WithDetail("path", source)
	}

	key := p.target.ObjectKey(source)
	start := time.Now()

	// Cancelling the writer's context abandons the upload; Close would
	// commit whatever was copied so far.
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	writer := p.bucket.Object(key).NewWriter(wctx)
	writer.ContentType = p.contentType
	writer.Metadata = objectMetadata(info)

	n, err := copyObject(writer, f, cancel)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to write to GCS").
			WithDetail("bucket", p.target.Bucket).
			WithDetail("object", key)
	}
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to close GCS writer").
			WithDetail("bucket", p.target.Bucket).
			WithDetail("object", key)
	}

	p.logger.Debug("uploaded to GCS",
		zap.String("object", key),
		zap.Int64("bytes", n),
		zap.Duration("duration", time.Since(start)))

	return &Result{
		Source:      source,
		Destination: "gs://" + p.target.Bucket + "/" + key,
		Bytes:       n,
	}, nil
}

// copyObject streams src into w. On failure it calls abort and closes w so
// the writer's goroutine exits without finalizing the object.
func copyObject(w io.WriteCloser, src io.Reader, abort context.CancelFunc) (int64, error) {
	n, err := io.Copy(w, src)
	if err != nil {
		abort()
		_ = w.Close()
		return n, err
	}
	return n, nil
}

// Close releases the storage client
func (p *GCSPublisher) Close() error {
	return p.client.Close()
}
