// Package protocol defines the interfaces the step executor uses to reach
// collaborating services.
package protocol

import (
	"context"
	"time"

	"github.com/tirs/Automotive-database-demo/pkg/models"
)

// StepContext is what a collaborator learns about the step being executed.
type StepContext struct {
	InstanceID  string
	TemplateID  string
	VehicleID   string
	OwnerID     string
	TriggerData map[string]any
	StepIndex   int
	StartedAt   time.Time
}

// Recipient identifies who a message is addressed to. Empty addresses are
// resolved by the notifier.
type Recipient struct {
	InstanceID string
	TemplateID string
	OwnerID    string
	VehicleID  string
	Email      string
	Phone      string
}

// DispatchReceipt confirms a message was accepted for delivery.
type DispatchReceipt struct {
	MessageID string
	Address   string
}

type Notifier interface {
	SendMessage(ctx context.Context, channel models.MessageChannel, templateName string, recipient Recipient) (*DispatchReceipt, error)
}

type NotificationCreator interface {
	CreateNotification(ctx context.Context, notificationType string, priority models.NotificationPriority, stepCtx StepContext) (string, error)
}

type ConditionEvaluator interface {
	Evaluate(ctx context.Context, condition models.ConditionStep, stepCtx StepContext) (bool, error)
}

// Enricher backs enrich_data, check_recalls and generate_valuation steps.
// Each call returns a payload merged into the step output.
type Enricher interface {
	Enrich(ctx context.Context, action string, stepCtx StepContext) (map[string]any, error)
	CheckRecalls(ctx context.Context, stepCtx StepContext) (map[string]any, error)
	Valuate(ctx context.Context, condition string, stepCtx StepContext) (map[string]any, error)
}
