package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"
)

type memoryObject struct {
	data        []byte
	contentType string
	metadata    map[string]string
	uploadedAt  time.Time
	etag        string
}

// Memory is an in-process Provider for development and tests.
type Memory struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]memoryObject
	now     func() time.Time
}

var _ Provider = (*Memory)(nil)

// NewMemory returns an empty in-memory bucket.
func NewMemory(bucket string) *Memory {
	if bucket == "" {
		bucket = "memory"
	}
	return &Memory{
		bucket:  bucket,
		objects: make(map[string]memoryObject),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (m *Memory) Upload(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("memory put %q: %w", key, err)
	}
	sum := md5.Sum(data)

	meta := make(map[string]string, len(opt.Metadata))
	for k, v := range opt.Metadata {
		meta[k] = v
	}

	m.mu.Lock()
	m.objects[key] = memoryObject{
		data:        data,
		contentType: opt.ContentType,
		metadata:    meta,
		uploadedAt:  m.now(),
		etag:        hex.EncodeToString(sum[:]),
	}
	m.mu.Unlock()
	return key, nil
}

func (m *Memory) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("memory get %q: %w", key, ErrObjectNotFound)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Delete reports ErrObjectNotFound for a missing key.
func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return fmt.Errorf("memory delete %q: %w", key, ErrObjectNotFound)
	}
	delete(m.objects, key)
	return nil
}

func (m *Memory) GenerateDownloadURL(ctx context.Context, key string, validity time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	u := url.URL{
		Scheme: "memory",
		Host:   m.bucket,
		Path:   "/" + key,
	}
	q := u.Query()
	q.Set("expires", fmt.Sprintf("%d", int64(ClampValidity(validity)/time.Second)))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (m *Memory) GetInfo(ctx context.Context, key string) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return ObjectInfo{}, fmt.Errorf("memory stat %q: %w", key, ErrObjectNotFound)
	}
	meta := make(map[string]string, len(obj.metadata))
	for k, v := range obj.metadata {
		meta[k] = v
	}
	return ObjectInfo{
		Key:         key,
		Name:        baseName(key),
		Size:        int64(len(obj.data)),
		ContentType: obj.contentType,
		ETag:        obj.etag,
		UploadedAt:  obj.uploadedAt,
		Metadata:    meta,
	}, nil
}

// Len returns the number of stored objects.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// Has reports whether key is stored.
func (m *Memory) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok
}
