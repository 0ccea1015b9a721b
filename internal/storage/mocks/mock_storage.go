package mocks

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"

	"simpledms/internal/storage"
)

type MockProvider struct {
	mock.Mock
}

var _ storage.Provider = (*MockProvider)(nil)

func (m *MockProvider) Upload(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) (string, error) {
	args := m.Called(ctx, key, r, opt)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockProvider) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockProvider) GenerateDownloadURL(ctx context.Context, key string, validity time.Duration) (string, error) {
	args := m.Called(ctx, key, validity)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) GetInfo(ctx context.Context, key string) (storage.ObjectInfo, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(storage.ObjectInfo), args.Error(1)
}
