package storage

import (
	"context"
	"fmt"
	"strings"

	"simpledms/internal/config"
)

// Provider names accepted by New.
const (
	ProviderMinIO  = "minio"
	ProviderS3     = "s3"
	ProviderMemory = "memory"
)

// New constructs the provider named by name using its section of cfg.
// Unknown names and incomplete settings fail with ErrConfiguration.
func New(ctx context.Context, name string, cfg config.StorageConfig) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ProviderMinIO:
		return NewMinIO(ctx, cfg.MinIO)
	case ProviderS3:
		return NewS3(ctx, cfg.S3)
	case ProviderMemory:
		return NewMemory(cfg.MinIO.Bucket), nil
	default:
		return nil, fmt.Errorf("%w: unknown storage provider %q", ErrConfiguration, name)
	}
}
