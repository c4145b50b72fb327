package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/tirs/Automotive-database-demo/pkg/models"
	"github.com/tirs/Automotive-database-demo/pkg/persistence"
)

// MockInstanceStore is a mock implementation of persistence.InstanceStore interface.
type MockInstanceStore struct {
	mock.Mock
}

func (m *MockInstanceStore) SaveInstance(ctx context.Context, instance *models.WorkflowInstance) error {
	args := m.Called(ctx, instance)

	return args.Error(0)
}

func (m *MockInstanceStore) InstanceByID(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.WorkflowInstance), args.Error(1)
}

func (m *MockInstanceStore) Instances(ctx context.Context, opts persistence.ListInstancesOptions) ([]*models.WorkflowInstance, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.WorkflowInstance), args.Error(1)
}

func (m *MockInstanceStore) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockInstanceStore) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
