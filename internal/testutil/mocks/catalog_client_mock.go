package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/dailyalbum/internal/models"
)

// MockCatalogClient is a mock implementation of catalog.Client.
// The first return value may be a func(context.Context, string) *models.EntitySummary
// to compute the summary per call.
type MockCatalogClient struct {
	mock.Mock
}

func (m *MockCatalogClient) FetchEntitySummary(ctx context.Context, id string) (*models.EntitySummary, error) {
	args := m.Called(ctx, id)
	if fn, ok := args.Get(0).(func(context.Context, string) *models.EntitySummary); ok {
		return fn(ctx, id), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EntitySummary), args.Error(1)
}
