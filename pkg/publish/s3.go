package publish

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/ajitpratap0/parquetize/pkg/errors"
)

const (
	defaultUploadPartSize = 5 * 1024 * 1024 // 5MB
	defaultMaxConcurrency = 4
)

// S3Publisher uploads files to an S3 bucket
type S3Publisher struct {
	target      Target
	contentType string
	uploader    *manager.Uploader
	logger      *zap.Logger
}

// NewS3Publisher creates an S3 publisher using the default AWS credential
// chain.
func NewS3Publisher(ctx context.Context, target Target, opts Options) (*S3Publisher, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to load AWS configuration")
	}

	client := s3.NewFromConfig(cfg)
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = defaultUploadPartSize
		u.Concurrency = defaultMaxConcurrency
	})

	return &S3Publisher{
		target:      target,
		contentType: opts.ContentType,
		uploader:    uploader,
		logger:      opts.Logger,
	}, nil
}

// Publish uploads source under the target prefix. Object stores keep their
// own timestamps, so the source modification time is stored as metadata.
func (p *S3Publisher) Publish(ctx context.Context, source string) (*Result, error) {
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
	out, err := p.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.target.Bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(p.contentType),
		Metadata:    objectMetadata(info),
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to upload to S3").
			WithDetail("bucket", p.target.Bucket).
			WithDetail("key", key)
	}

	p.logger.Debug("uploaded to S3",
		zap.String("location", out.Location),
		zap.Int64("bytes", info.Size()),
		zap.Duration("duration", time.Since(start)))

	return &Result{
		Source:      source,
		Destination: "s3://" + p.target.Bucket + "/" + key,
		Bytes:       info.Size(),
	}, nil
}

// Close implements Publisher
func (p *S3Publisher) Close() error { return nil }

func objectMetadata(info os.FileInfo) map[string]string {
	return map[string]string{
		"source-mtime": info.ModTime().UTC().Format(time.RFC3339Nano),
		"published":    time.Now().UTC().Format(time.RFC3339),
	}
}
