package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"simpledms/internal/config"
)

// minioStorage implements Provider on top of a MinIO (or any S3-compatible) endpoint.
// It is safe for concurrent use by multiple goroutines.
type minioStorage struct {
	client *minio.Client
	bucket string
}

var _ Provider = (*minioStorage)(nil)

// newMinIOClient validates cfg and builds the client without touching the network.
func newMinIOClient(cfg config.MinIOConfig) (*minioStorage, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: minio endpoint is required", ErrConfiguration)
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: minio credentials are required", ErrConfiguration)
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("%w: minio bucket is required", ErrConfiguration)
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create minio client: %v", ErrConfiguration, err)
	}
	return &minioStorage{client: cli, bucket: cfg.Bucket}, nil
}

// NewMinIO creates the MinIO provider and ensures the bucket exists (creates it if missing).
func NewMinIO(ctx context.Context, cfg config.MinIOConfig) (Provider, error) {
	ms, err := newMinIOClient(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := ms.client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket existence: %w", err)
	}
	if !exists {
		if err := ms.client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	return ms, nil
}

// Upload streams the content to the bucket.
func (m *minioStorage) Upload(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (string, error) {
	putOpts := minio.PutObjectOptions{
		ContentType:  opt.ContentType,
		UserMetadata: opt.Metadata,
	}
	if _, err := m.client.PutObject(ctx, m.bucket, key, r, opt.Size, putOpts); err != nil {
		return "", fmt.Errorf("minio put %q: %w", key, err)
	}
	return key, nil
}

// Download returns the object body. GetObject is lazy, so Stat is used to surface a missing key.
func (m *minioStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapMinIOError("get", key, err)
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, mapMinIOError("get", key, err)
	}
	return obj, nil
}

// Delete removes an object by key.
func (m *minioStorage) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return mapMinIOError("delete", key, err)
	}
	return nil
}

// GenerateDownloadURL generates a pre-signed GET URL.
func (m *minioStorage) GenerateDownloadURL(ctx context.Context, key string, validity time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, ClampValidity(validity), url.Values{})
	if err != nil {
		return "", fmt.Errorf("minio presign %q: %w", key, err)
	}
	return u.String(), nil
}

// GetInfo stats the object.
func (m *minioStorage) GetInfo(ctx context.Context, key string) (ObjectInfo, error) {
	st, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return ObjectInfo{}, mapMinIOError("stat", key, err)
	}
	return ObjectInfo{
		Key:         key,
		Name:        baseName(key),
		Size:        st.Size,
		ContentType: st.ContentType,
		ETag:        st.ETag,
		UploadedAt:  st.LastModified,
		Metadata:    st.UserMetadata,
	}, nil
}

func mapMinIOError(op, key string, err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || (resp.StatusCode == http.StatusNotFound && resp.Code != "NoSuchBucket") {
		return fmt.Errorf("minio %s %q: %w", op, key, ErrObjectNotFound)
	}
	return fmt.Errorf("minio %s %q: %w", op, key, err)
}
