package csvloader

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const s3Scheme = "s3://"

// ObjectGetter is the part of the S3 client used to download dumps
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// NewS3Client creates an S3 client from the default AWS credential chain
func NewS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// IsS3Path reports whether path is an s3://bucket/key location
func IsS3Path(path string) bool {
	return strings.HasPrefix(path, s3Scheme)
}

// ParseS3Path splits s3://bucket/key into its bucket and key
func ParseS3Path(path string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(path, s3Scheme)
	bucket, key, ok := strings.Cut(rest, "/")
	if !IsS3Path(path) || !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("invalid S3 location %q, expected s3://bucket/key", path)
	}
	return bucket, key, nil
}

// Open returns a reader over a local file or, for s3:// paths, an S3 object
// client is only used for S3 paths and may be nil otherwise
func Open(ctx context.Context, path string, client ObjectGetter) (io.ReadCloser, error) {
	if !IsS3Path(path) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open CSV file: %w", err)
		}
		return f, nil
	}

	bucket, key, err := ParseS3Path(path)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("no S3 client configured for %s", path)
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", bucket, key, err)
	}
	return out.Body, nil
}
