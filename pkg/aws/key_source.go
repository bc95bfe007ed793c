package aws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/boogy/bearer-warden/pkg/keys"
)

// S3Scheme prefixes key paths that live in S3, e.g. s3://bucket/keys/a.pem
const S3Scheme = "s3://"

var (
	ErrInvalidS3URI   = errors.New("aws: invalid s3 uri")
	ErrObjectTooLarge = errors.New("aws: s3 object exceeds maximum allowed size")
)

// KeySource reads key files from S3 for s3:// paths and from Fallback for
// everything else.
type KeySource struct {
	AWS      AwsServiceWrapperInterface
	Fallback keys.Source
}

// NewKeySource returns a KeySource that falls back to the local filesystem.
func NewKeySource(wrapper AwsServiceWrapperInterface) *KeySource {
	return &KeySource{
		AWS:      wrapper,
		Fallback: keys.FileSource{},
	}
}

// IsS3Path reports whether path names an S3 object.
func IsS3Path(path string) bool {
	return strings.HasPrefix(path, S3Scheme)
}

// ParseS3URI splits s3://bucket/key into its bucket and key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, S3Scheme)
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidS3URI, uri)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidS3URI, uri)
	}
	return bucket, key, nil
}

func (k *KeySource) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if !IsS3Path(path) {
		fallback := k.Fallback
		if fallback == nil {
			fallback = keys.FileSource{}
		}
		return fallback.ReadFile(ctx, path)
	}

	bucket, key, err := ParseS3URI(path)
	if err != nil {
		return nil, err
	}
	if k.AWS == nil {
		return nil, fmt.Errorf("no S3 client configured for %s", path)
	}

	body, err := k.AWS.GetS3Object(ctx, bucket, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get S3 object %s: %w", path, err)
	}
	defer func() {
		if cerr := body.Close(); cerr != nil {
			slog.Error("Error closing S3 object", slog.String("path", path), slog.String("error", cerr.Error()))
		}
	}()

	limit := k.AWS.MaxS3ObjectSize()
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read S3 object %s: %w", path, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s", ErrObjectTooLarge, path)
	}
	return data, nil
}
