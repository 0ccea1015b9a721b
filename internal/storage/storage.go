// Package storage contains the object storage abstraction shared by every vendor backend.
// Implementations stream content and never touch local disk.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"time"
)

var (
	// ErrObjectNotFound is returned (wrapped) when the key does not exist in the bucket.
	ErrObjectNotFound = errors.New("object not found")
	// ErrConfiguration is returned at construction time for unknown providers or missing settings.
	ErrConfiguration = errors.New("invalid storage configuration")
)

// Presigned URLs are clamped to what SigV4 accepts.
const (
	MinURLValidity = time.Second
	MaxURLValidity = 7 * 24 * time.Hour
)

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Key         string
	Name        string
	Size        int64
	ContentType string
	ETag        string
	UploadedAt  time.Time
	Metadata    map[string]string
}

// Provider is the vendor-neutral object storage contract used by the document services.
type Provider interface {
	// Upload stores the content under key and returns the key.
	Upload(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (string, error)
	// Download streams the object content. The caller closes the reader.
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the object. Deleting a missing key may or may not return ErrObjectNotFound.
	Delete(ctx context.Context, key string) error
	// GenerateDownloadURL returns a time-limited URL usable without credentials.
	GenerateDownloadURL(ctx context.Context, key string, validity time.Duration) (string, error)
	// GetInfo returns object metadata or an error wrapping ErrObjectNotFound.
	GetInfo(ctx context.Context, key string) (ObjectInfo, error)
}

// IsNotFound reports whether err signals a missing object.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}

// ClampValidity bounds a presign duration to [MinURLValidity, MaxURLValidity].
func ClampValidity(d time.Duration) time.Duration {
	if d < MinURLValidity {
		return MinURLValidity
	}
	if d > MaxURLValidity {
		return MaxURLValidity
	}
	return d
}

func baseName(key string) string {
	return path.Base(key)
}
