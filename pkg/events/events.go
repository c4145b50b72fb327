// Package events defines the events published while workflow instances run.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/tirs/Automotive-database-demo/pkg/models"
)

type EventType string

// Topic carries every workflow and messaging event.
const Topic = "automotive.workflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Instance lifecycle events.
	InstanceStartedEvent   EventType = "workflow.instance.started"
	InstanceSuspendedEvent EventType = "workflow.instance.suspended"
	InstanceResumedEvent   EventType = "workflow.instance.resumed"
	InstancePausedEvent    EventType = "workflow.instance.paused"
	InstanceCompletedEvent EventType = "workflow.instance.completed"
	InstanceFailedEvent    EventType = "workflow.instance.failed"
	InstanceCancelledEvent EventType = "workflow.instance.cancelled"

	StepExecutedEvent EventType = "workflow.step.executed"

	// Messaging events.
	MessageDispatchRequestedEvent EventType = "message.dispatch_requested"
	NotificationCreatedEvent      EventType = "notification.created"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	InstanceID string         `json:"instance_id,omitempty"`
	TemplateID string         `json:"template_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, instanceID, templateID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		InstanceID: instanceID,
		TemplateID: templateID,
		Metadata:   make(map[string]any),
	}
}

type InstanceStarted struct {
	BaseEvent

	TemplateName string         `json:"template_name"`
	VehicleID    string         `json:"vehicle_id,omitempty"`
	OwnerID      string         `json:"owner_id,omitempty"`
	TotalSteps   int            `json:"total_steps"`
	TriggerData  map[string]any `json:"trigger_data,omitempty"`
}

func (e InstanceStarted) GetType() EventType {
	return InstanceStartedEvent
}

// InstanceSuspended is published when a wait step stops the run.
type InstanceSuspended struct {
	BaseEvent

	StepIndex    int       `json:"step_index"`
	StepName     string    `json:"step_name"`
	ScheduledFor time.Time `json:"scheduled_for"`
}

func (e InstanceSuspended) GetType() EventType {
	return InstanceSuspendedEvent
}

type InstanceResumed struct {
	BaseEvent

	StepIndex int    `json:"step_index"`
	Forced    bool   `json:"forced"`
	ResumedBy string `json:"resumed_by,omitempty"`
}

func (e InstanceResumed) GetType() EventType {
	return InstanceResumedEvent
}

type InstancePaused struct {
	BaseEvent

	StepIndex int `json:"step_index"`
}

func (e InstancePaused) GetType() EventType {
	return InstancePausedEvent
}

type InstanceCompleted struct {
	BaseEvent

	StepsCompleted int   `json:"steps_completed"`
	DurationMs     int64 `json:"duration_ms"`
}

func (e InstanceCompleted) GetType() EventType {
	return InstanceCompletedEvent
}

type InstanceFailed struct {
	BaseEvent

	StepIndex int    `json:"step_index"`
	StepType  string `json:"step_type"`
	Error     string `json:"error"`
}

func (e InstanceFailed) GetType() EventType {
	return InstanceFailedEvent
}

type InstanceCancelled struct {
	BaseEvent

	StepIndex int    `json:"step_index"`
	Reason    string `json:"reason,omitempty"`
}

func (e InstanceCancelled) GetType() EventType {
	return InstanceCancelledEvent
}

// StepExecuted mirrors one execution log record.
type StepExecuted struct {
	BaseEvent

	Record models.StepExecutionRecord `json:"record"`
}

func (e StepExecuted) GetType() EventType {
	return StepExecutedEvent
}
