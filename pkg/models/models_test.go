package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tirs/Automotive-database-demo/pkg/models"
	"gopkg.in/yaml.v3"
)

func TestParseInstanceStatus(t *testing.T) {
	t.Parallel()

	status, err := models.ParseInstanceStatus("paused")
	require.NoError(t, err)
	assert.Equal(t, models.InstanceStatusPaused, status)

	_, err = models.ParseInstanceStatus("sleeping")
	require.ErrorIs(t, err, models.ErrInvalidInstanceStatus)
}

func TestInstanceStatus_Transitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from     models.InstanceStatus
		to       models.InstanceStatus
		expected bool
	}{
		{models.InstanceStatusPending, models.InstanceStatusRunning, true},
		{models.InstanceStatusRunning, models.InstanceStatusPaused, true},
		{models.InstanceStatusRunning, models.InstanceStatusCompleted, true},
		{models.InstanceStatusPaused, models.InstanceStatusRunning, true},
		{models.InstanceStatusPaused, models.InstanceStatusCancelled, true},
		{models.InstanceStatusPaused, models.InstanceStatusCompleted, false},
		{models.InstanceStatusCompleted, models.InstanceStatusRunning, false},
		{models.InstanceStatusFailed, models.InstanceStatusCancelled, false},
		{models.InstanceStatusCancelled, models.InstanceStatusRunning, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}

	assert.True(t, models.InstanceStatusCompleted.IsTerminal())
	assert.True(t, models.InstanceStatusCancelled.IsTerminal())
	assert.False(t, models.InstanceStatusPaused.IsTerminal())
}

func TestWorkflowInstance_Suspension(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	instance := &models.WorkflowInstance{
		Status:      models.InstanceStatusRunning,
		CurrentStep: 1,
		NextScheduledStep: &models.NextScheduledStep{
			StepIndex:    1,
			ScheduledFor: now.Add(time.Hour),
		},
	}

	assert.True(t, instance.IsSuspended())
	assert.Equal(t, 1, instance.StepsCompleted())
	assert.False(t, instance.IsDue(now))
	assert.True(t, instance.IsDue(now.Add(time.Hour)))

	instance.Status = models.InstanceStatusPaused
	assert.False(t, instance.IsSuspended())
}

func TestWorkflowInstance_CloneIsDeep(t *testing.T) {
	t.Parallel()

	completed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	original := &models.WorkflowInstance{
		ID:          "inst-00000001",
		TriggerData: map[string]any{"vehicle": map[string]any{"vin": "4T1BF1FK5MU000004"}},
		CompletedAt: &completed,
		ExecutionLog: []models.StepExecutionRecord{
			{StepIndex: 0, Output: map[string]any{"notification_id": "notif-0001"}},
		},
		NextScheduledStep: &models.NextScheduledStep{StepIndex: 1},
	}

	clone := original.Clone()
	clone.TriggerData["vehicle"].(map[string]any)["vin"] = "changed"
	clone.ExecutionLog[0].Output["notification_id"] = "changed"
	clone.NextScheduledStep.StepIndex = 4
	*clone.CompletedAt = completed.Add(time.Hour)

	assert.Equal(t, "4T1BF1FK5MU000004", original.TriggerData["vehicle"].(map[string]any)["vin"])
	assert.Equal(t, "notif-0001", original.ExecutionLog[0].Output["notification_id"])
	assert.Equal(t, 1, original.NextScheduledStep.StepIndex)
	assert.True(t, original.CompletedAt.Equal(completed))
}

func TestNewExecutionResult(t *testing.T) {
	t.Parallel()

	result := models.NewExecutionResult(&models.WorkflowInstance{
		ID:          "inst-00000001",
		TemplateID:  "wf-004",
		Status:      models.InstanceStatusRunning,
		CurrentStep: 2,
		TotalSteps:  3,
	})

	assert.Equal(t, 2, result.StepsCompleted)
	assert.Equal(t, 3, result.TotalSteps)
	assert.NotNil(t, result.ExecutionLog)
	assert.Empty(t, result.ExecutionLog)
	assert.Nil(t, result.NextScheduledStep)
}

func TestDecodeStepKind(t *testing.T) {
	t.Parallel()

	threshold := 30.0

	tests := []struct {
		name     string
		stepType models.StepType
		config   map[string]any
		expected models.StepKind
	}{
		{
			name:     "wait in hours",
			stepType: models.StepTypeWait,
			config:   map[string]any{"hours": 24},
			expected: models.WaitStep{Hours: 24},
		},
		{
			name:     "wait in days from json",
			stepType: models.StepTypeWait,
			config:   map[string]any{"days": 7.0},
			expected: models.WaitStep{Days: 7},
		},
		{
			name:     "wait without duration",
			stepType: models.StepTypeWait,
			config:   map[string]any{},
			expected: models.WaitStep{ConfigError: "wait step requires hours or days"},
		},
		{
			name:     "wait with negative hours",
			stepType: models.StepTypeWait,
			config:   map[string]any{"hours": -2},
			expected: models.WaitStep{ConfigError: "invalid wait hours: -2"},
		},
		{
			name:     "wait with infinite days",
			stepType: models.StepTypeWait,
			config:   map[string]any{"days": "+Inf"},
			expected: models.WaitStep{ConfigError: "invalid wait days: +Inf"},
		},
		{
			name:     "wait beyond the maximum",
			stepType: models.StepTypeWait,
			config:   map[string]any{"days": 400000},
			expected: models.WaitStep{ConfigError: "wait duration exceeds 876000 hours"},
		},
		{
			name:     "condition with threshold",
			stepType: models.StepTypeCondition,
			config:   map[string]any{"check": "days_until_expiration", "threshold": 30},
			expected: models.ConditionStep{Check: "days_until_expiration", Threshold: &threshold},
		},
		{
			name:     "notification",
			stepType: models.StepTypeCreateNotification,
			config:   map[string]any{"type": "recall_notice", "priority": "urgent"},
			expected: models.CreateNotificationStep{NotificationType: "recall_notice", Priority: "urgent"},
		},
		{
			name:     "unknown type",
			stepType: "schedule_appointment",
			config:   map[string]any{"slot": "morning"},
			expected: models.GenericStep{StepType: "schedule_appointment", Raw: map[string]any{"slot": "morning"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, models.DecodeStepKind(tt.stepType, tt.config))
		})
	}
}

func TestWaitStep_Duration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 24*time.Hour, models.WaitStep{Hours: 24}.Duration())
	assert.Equal(t, 7*24*time.Hour+90*time.Minute, models.WaitStep{Days: 7, Hours: 1.5}.Duration())
}

func TestWorkflowStep_JSON(t *testing.T) {
	t.Parallel()

	var step models.WorkflowStep

	err := json.Unmarshal([]byte(`{"step_type":"send_email","name":"Send follow-up","config":{"template":"service_followup"}}`), &step)
	require.NoError(t, err)
	assert.Equal(t, "Send follow-up", step.Name)
	assert.Equal(t, models.SendEmailStep{Template: "service_followup"}, step.Kind)

	data, err := json.Marshal(step)
	require.NoError(t, err)
	assert.JSONEq(t, `{"step_type":"send_email","name":"Send follow-up","config":{"template":"service_followup"}}`, string(data))

	err = json.Unmarshal([]byte(`{"config":{}}`), &step)
	require.ErrorIs(t, err, models.ErrStepTypeRequired)
}

func TestWorkflowStep_YAML(t *testing.T) {
	t.Parallel()

	var step models.WorkflowStep

	err := yaml.Unmarshal([]byte("step_type: wait\nconfig:\n  days: 7\n"), &step)
	require.NoError(t, err)
	assert.Equal(t, models.WaitStep{Days: 7}, step.Kind)
	assert.Equal(t, "Step 3", step.DisplayName(2))
}

func TestWorkflowTemplate_Clone(t *testing.T) {
	t.Parallel()

	threshold := 30.0
	original := &models.WorkflowTemplate{
		ID:            "wf-002",
		TriggerConfig: map[string]any{"schedule": "daily"},
		Steps: []models.WorkflowStep{
			{Name: "Check", Kind: models.ConditionStep{Check: "days_until_expiration", Threshold: &threshold}},
		},
	}

	clone := original.Clone()
	clone.TriggerConfig["schedule"] = "hourly"
	*clone.Steps[0].Kind.(models.ConditionStep).Threshold = 5

	assert.Equal(t, "daily", original.TriggerConfig["schedule"])
	assert.InDelta(t, 30.0, *original.Steps[0].Kind.(models.ConditionStep).Threshold, 0)

	step, ok := original.StepAt(0)
	require.True(t, ok)
	assert.Equal(t, "Check", step.Name)

	_, ok = original.StepAt(1)
	assert.False(t, ok)
}
