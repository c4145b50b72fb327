package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/tirs/Automotive-database-demo/pkg/models"
	"github.com/tirs/Automotive-database-demo/pkg/protocol"
)

// MockNotifier is a mock implementation of protocol.Notifier interface.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendMessage(ctx context.Context, channel models.MessageChannel, templateName string, recipient protocol.Recipient) (*protocol.DispatchReceipt, error) {
	args := m.Called(ctx, channel, templateName, recipient)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*protocol.DispatchReceipt), args.Error(1)
}

// MockNotificationCreator is a mock implementation of protocol.NotificationCreator interface.
type MockNotificationCreator struct {
	mock.Mock
}

func (m *MockNotificationCreator) CreateNotification(ctx context.Context, notificationType string, priority models.NotificationPriority, stepCtx protocol.StepContext) (string, error) {
	args := m.Called(ctx, notificationType, priority, stepCtx)

	return args.String(0), args.Error(1)
}

// MockConditionEvaluator is a mock implementation of protocol.ConditionEvaluator interface.
type MockConditionEvaluator struct {
	mock.Mock
}

func (m *MockConditionEvaluator) Evaluate(ctx context.Context, condition models.ConditionStep, stepCtx protocol.StepContext) (bool, error) {
	args := m.Called(ctx, condition, stepCtx)

	return args.Bool(0), args.Error(1)
}

// MockEnricher is a mock implementation of protocol.Enricher interface.
type MockEnricher struct {
	mock.Mock
}

func (m *MockEnricher) Enrich(ctx context.Context, action string, stepCtx protocol.StepContext) (map[string]any, error) {
	args := m.Called(ctx, action, stepCtx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(map[string]any), args.Error(1)
}

func (m *MockEnricher) CheckRecalls(ctx context.Context, stepCtx protocol.StepContext) (map[string]any, error) {
	args := m.Called(ctx, stepCtx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(map[string]any), args.Error(1)
}

func (m *MockEnricher) Valuate(ctx context.Context, condition string, stepCtx protocol.StepContext) (map[string]any, error) {
	args := m.Called(ctx, condition, stepCtx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(map[string]any), args.Error(1)
}
