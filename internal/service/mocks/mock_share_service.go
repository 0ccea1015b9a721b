package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"simpledms/internal/model"
	"simpledms/internal/service"
)

type MockShareService struct {
	mock.Mock
}

var _ service.ShareService = (*MockShareService)(nil)

func (m *MockShareService) Create(ctx context.Context, documentID, ownerID string, expiresInDays int) (*model.Share, error) {
	args := m.Called(ctx, documentID, ownerID, expiresInDays)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Share), args.Error(1)
}

func (m *MockShareService) Get(ctx context.Context, shareID string) (*model.Share, error) {
	args := m.Called(ctx, shareID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Share), args.Error(1)
}

func (m *MockShareService) List(ctx context.Context, ownerID string, includeExpired bool) ([]model.Share, error) {
	args := m.Called(ctx, ownerID, includeExpired)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Share), args.Error(1)
}

func (m *MockShareService) Delete(ctx context.Context, shareID, ownerID string) error {
	args := m.Called(ctx, shareID, ownerID)
	return args.Error(0)
}

func (m *MockShareService) CleanupExpiredShares(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
