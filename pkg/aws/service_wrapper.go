package aws

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Defaults used when the caller leaves the matching option unset
const (
	DefaultMaxS3ObjectSize int64 = 1 << 20
	DefaultTimeout               = 30 * time.Second
)

// AwsServiceWrapperInterface allows to test AWS specific code based on the AWS services
type AwsServiceWrapperInterface interface {
	GetS3Object(ctx context.Context, bucket, key string) (io.ReadCloser, error)
	MaxS3ObjectSize() int64
}

// s3GetObjectAPI is the part of the S3 client the wrapper uses
type s3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// AwsServiceWrapper is the implementation of AwsServiceWrapperInterface
// it wraps the actual AWS service call but has no additional functionality implemented
type AwsServiceWrapper struct {
	cfg      aws.Config
	s3Client s3GetObjectAPI

	maxS3ObjectSize int64         // Maximum allowed size for S3 objects
	defaultTimeout  time.Duration // Default timeout for AWS operations
}

// NewAwsServiceWrapper loads the default AWS configuration, optionally pinned
// to region, and builds the S3 client. maxObjectSize <= 0 selects
// DefaultMaxS3ObjectSize.
func NewAwsServiceWrapper(ctx context.Context, region string, maxObjectSize int64) (*AwsServiceWrapper, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRetryMaxAttempts(3),
	}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return newServiceWrapper(cfg, s3.NewFromConfig(cfg), maxObjectSize), nil
}

func newServiceWrapper(cfg aws.Config, client s3GetObjectAPI, maxObjectSize int64) *AwsServiceWrapper {
	if maxObjectSize <= 0 {
		maxObjectSize = DefaultMaxS3ObjectSize
	}
	return &AwsServiceWrapper{
		cfg:             cfg,
		s3Client:        client,
		maxS3ObjectSize: maxObjectSize,
		defaultTimeout:  DefaultTimeout,
	}
}

func (s *AwsServiceWrapper) MaxS3ObjectSize() int64 {
	return s.maxS3ObjectSize
}

// GetS3Object fetches at most MaxS3ObjectSize+1 bytes of the object so that
// callers can tell an oversized object from one that fits exactly.
func (s *AwsServiceWrapper) GetS3Object(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	ctx, cancel := context.WithTimeout(ctx, s.defaultTimeout)

	slog.Debug("Fetching S3 object",
		slog.String("bucket", bucket),
		slog.String("key", key),
	)

	input := &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Range:  aws.String(fmt.Sprintf("bytes=0-%d", s.maxS3ObjectSize)),
	}

	result, err := s.s3Client.GetObject(ctx, input)
	if err != nil {
		cancel()
		slog.Error("Error fetching S3 object",
			slog.String("bucket", bucket),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	if result.ContentLength != nil && *result.ContentLength > s.maxS3ObjectSize {
		slog.Warn("S3 object exceeds maximum allowed size",
			slog.Int64("size", *result.ContentLength),
			slog.Int64("maxAllowed", s.maxS3ObjectSize),
			slog.String("bucket", bucket),
			slog.String("key", key),
		)
	}

	return &cancelOnClose{ReadCloser: result.Body, cancel: cancel}, nil
}

// cancelOnClose keeps the request context alive until the body is consumed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	defer c.cancel()
	return c.ReadCloser.Close()
}
