package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"simpledms/internal/shortener"
)

type MockShortener struct {
	mock.Mock
}

var _ shortener.Shortener = (*MockShortener)(nil)

func (m *MockShortener) Shorten(ctx context.Context, longURL string) (string, error) {
	args := m.Called(ctx, longURL)
	return args.String(0), args.Error(1)
}
