// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/tirs/Automotive-database-demo/pkg/models"
)

// CreateTestInstance creates a running WorkflowInstance with default values that can be overridden.
func CreateTestInstance(overrides ...func(*models.WorkflowInstance)) *models.WorkflowInstance {
	startedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	instance := &models.WorkflowInstance{
		ID:           "inst-" + uuid.NewString()[:8],
		TemplateID:   "wf-001",
		TemplateName: "Post-Service Follow-up",
		VehicleID:    "veh-001",
		OwnerID:      "own-001",
		TriggerData:  map[string]any{"source": "test"},
		Status:       models.InstanceStatusRunning,
		CurrentStep:  0,
		TotalSteps:   3,
		StartedAt:    startedAt,
		UpdatedAt:    startedAt,
		ExecutionLog: []models.StepExecutionRecord{},
	}

	for _, override := range overrides {
		override(instance)
	}

	return instance
}

// WithStatus sets the instance status.
func WithStatus(status models.InstanceStatus) func(*models.WorkflowInstance) {
	return func(i *models.WorkflowInstance) {
		i.Status = status
	}
}

// WithStartedAt sets the creation time.
func WithStartedAt(t time.Time) func(*models.WorkflowInstance) {
	return func(i *models.WorkflowInstance) {
		i.StartedAt = t
		i.UpdatedAt = t
	}
}

// WithTemplate sets the template reference.
func WithTemplate(id, name string, totalSteps int) func(*models.WorkflowInstance) {
	return func(i *models.WorkflowInstance) {
		i.TemplateID = id
		i.TemplateName = name
		i.TotalSteps = totalSteps
	}
}

// WithSuspendedWait appends a pending wait record at index and schedules it for resumeAt.
func WithSuspendedWait(index int, resumeAt time.Time) func(*models.WorkflowInstance) {
	return func(i *models.WorkflowInstance) {
		for len(i.ExecutionLog) < index {
			n := len(i.ExecutionLog)
			i.ExecutionLog = append(i.ExecutionLog, models.StepExecutionRecord{
				StepIndex:   n,
				StepName:    "Step",
				StepType:    models.StepTypeCreateNotification,
				Status:      models.StepStatusCompleted,
				StartedAt:   i.StartedAt,
				CompletedAt: i.StartedAt,
				Output:      map[string]any{"notification_created": true},
			})
		}

		i.ExecutionLog = append(i.ExecutionLog, models.StepExecutionRecord{
			StepIndex:   index,
			StepName:    "Wait",
			StepType:    models.StepTypeWait,
			Status:      models.StepStatusPending,
			StartedAt:   i.StartedAt,
			CompletedAt: i.StartedAt,
			Output:      map[string]any{"waiting": true, "resume_at": resumeAt.Format(time.RFC3339)},
		})
		i.CurrentStep = index
		i.Status = models.InstanceStatusRunning
		i.NextScheduledStep = &models.NextScheduledStep{
			StepIndex:    index,
			StepName:     "Wait",
			ScheduledFor: resumeAt,
		}
	}
}
