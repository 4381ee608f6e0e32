package tables

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/Checker-Finance/loan-pricer/internal/metrics"
)

// Provider supplies reference tables by name. Tables are fetched on every
// call; implementations do not cache.
type Provider interface {
	GetTable(ctx context.Context, name string) (*Table, error)
}

// ObjectAPI is the subset of the S3 client used by S3Provider.
type ObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Provider reads tables from s3://bucket/prefix<name><ext>.
type S3Provider struct {
	client ObjectAPI
	bucket string
	prefix string
	ext    string
	logger *zap.Logger
}

// NewS3Provider creates a provider over an S3 bucket.
func NewS3Provider(client ObjectAPI, bucket, prefix, ext string, logger *zap.Logger) *S3Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3Provider{client: client, bucket: bucket, prefix: prefix, ext: ext, logger: logger}
}

// Key returns the object key holding the named table.
func (p *S3Provider) Key(name string) string {
	return p.prefix + name + p.ext
}

func (p *S3Provider) GetTable(ctx context.Context, name string) (*Table, error) {
	start := time.Now()
	defer metrics.ObserveDuration(metrics.TableFetchDuration, start, name)

	key := p.Key(name)
	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		p.logger.Warn("tables.s3.get_failed",
			zap.String("bucket", p.bucket),
			zap.String("key", key),
			zap.Error(err))
		metrics.IncTableFetch(name, "error")
		return nil, fmt.Errorf("fetch table %s from s3://%s/%s: %w", name, p.bucket, key, err)
	}
	defer func() { _ = out.Body.Close() }()

	t, err := Decode(name, p.ext, out.Body)
	if err != nil {
		p.logger.Warn("tables.s3.decode_failed", zap.String("key", key), zap.Error(err))
		metrics.IncTableFetch(name, "error")
		return nil, err
	}

	metrics.IncTableFetch(name, "ok")
	p.logger.Debug("tables.s3.loaded",
		zap.String("table", name),
		zap.Int("rows", t.Len()))
	return t, nil
}

// DirProvider reads tables from a local directory, for development and fixtures.
type DirProvider struct {
	dir    string
	ext    string
	logger *zap.Logger
}

// NewDirProvider creates a provider over dir.
func NewDirProvider(dir, ext string, logger *zap.Logger) *DirProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirProvider{dir: dir, ext: ext, logger: logger}
}

func (p *DirProvider) GetTable(_ context.Context, name string) (*Table, error) {
	start := time.Now()
	defer metrics.ObserveDuration(metrics.TableFetchDuration, start, name)

	path := filepath.Join(p.dir, name+p.ext)
	f, err := os.Open(path)
	if err != nil {
		metrics.IncTableFetch(name, "error")
		return nil, fmt.Errorf("open table %s: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	t, err := Decode(name, p.ext, f)
	if err != nil {
		p.logger.Warn("tables.dir.decode_failed", zap.String("path", path), zap.Error(err))
		metrics.IncTableFetch(name, "error")
		return nil, err
	}
	metrics.IncTableFetch(name, "ok")
	return t, nil
}
