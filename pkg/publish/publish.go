// Package publish copies a finished output file to the place it is served
// from.
//
// The target is either a local directory (the default, "public") or an
// object store prefix: s3://bucket/prefix or gs://bucket/prefix. Local
// copies keep the file's bytes, permission bits and modification time.
package publish

import (
	"context"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/parquetize/pkg/errors"
)

// Scheme identifies the kind of publish target
type Scheme string

const (
	SchemeLocal Scheme = "file"
	SchemeS3    Scheme = "s3"
	SchemeGCS   Scheme = "gs"
)

// Target is a parsed publish destination
type Target struct {
	Scheme Scheme
	// Dir is the local directory for file targets
	Dir string
	// Bucket and Prefix locate objects for s3 and gs targets
	Bucket string
	Prefix string
}

// String returns the target in the form it was given
func (t Target) String() string {
	if t.Scheme == SchemeLocal {
		return t.Dir
	}
	if t.Prefix == "" {
		return string(t.Scheme) + "://" + t.Bucket
	}
	return string(t.Scheme) + "://" + t.Bucket + "/" + t.Prefix
}

// ObjectKey returns the object name a file is stored under
func (t Target) ObjectKey(file string) string {
	base := filepath.Base(file)
	if t.Prefix == "" {
		return base
	}
	return path.Join(t.Prefix, base)
}

// ParseTarget parses a publish destination. Anything without a URL scheme
// is a local directory.
func ParseTarget(target string) (Target, error) {
	if target == "" {
		return Target{}, errors.New(errors.ErrorTypeConfig, "publish target is empty")
	}

	if !strings.Contains(target, "://") {
		return Target{Scheme: SchemeLocal, Dir: target}, nil
	}

	u, err := url.Parse(target)
	if err != nil {
		return Target{}, errors.Wrap(err, errors.ErrorTypeConfig, "invalid publish target").
			WithDetail("target", target)
	}

	switch Scheme(u.Scheme) {
	case SchemeLocal:
		return Target{Scheme: SchemeLocal, Dir: u.Path}, nil
	case SchemeS3, SchemeGCS:
		if u.Host == "" {
			return Target{}, errors.Newf(errors.ErrorTypeConfig, "publish target %q has no bucket", target)
		}
		return Target{
			Scheme: Scheme(u.Scheme),
			Bucket: u.Host,
			Prefix: strings.Trim(u.Path, "/"),
		}, nil
	default:
		return Target{}, errors.Newf(errors.ErrorTypeConfig, "unsupported publish scheme %q", u.Scheme).
			WithDetail("target", target)
	}
}

// Result describes a published file
type Result struct {
	Source      string
	Destination string
	Bytes       int64
	// Skipped is set when source and destination are already the same file
	Skipped bool
}

// Publisher copies files to a target
type Publisher interface {
	Publish(ctx context.Context, source string) (*Result, error)
	Close() error
}

// Options configures publishers
type Options struct {
	// Region is the AWS region for s3 targets
	Region string
	// CredentialsFile is a service account file for gs targets
	CredentialsFile string
	// ContentType is set on uploaded objects
	ContentType string
	Logger      *zap.Logger
}

// New creates the publisher for target.
func New(ctx context.Context, target string, opts Options) (Publisher, error) {
	t, err := ParseTarget(target)
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.ContentType == "" {
		opts.ContentType = "application/octet-stream"
	}

	switch t.Scheme {
	case SchemeS3:
		return NewS3Publisher(ctx, t, opts)
	case SchemeGCS:
		return NewGCSPublisher(ctx, t, opts)
	default:
		return NewLocalPublisher(t.Dir, opts.Logger), nil
	}
}
