package storage

import (
	"context"
	"fmt"
)

// BucketEnsurer is implemented by backends that can create their bucket.
type BucketEnsurer interface {
	EnsureBucket(ctx context.Context) error
}

// NewStorage creates an ObjectStorage instance for the configured provider.
func NewStorage(provider string, cfg *S3Config) (ObjectStorage, error) {
	switch provider {
	case "minio":
		return NewMinIOStorage(cfg)
	case "s3", "":
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unknown storage provider: %q", provider)
	}
}
