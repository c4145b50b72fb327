package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tirs/Automotive-database-demo/pkg/models"
)

func TestNewBaseEvent(t *testing.T) {
	event := NewBaseEvent(InstanceStartedEvent, "inst-1234abcd", "wf-003")

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, InstanceStartedEvent, event.Type)
	assert.Equal(t, "inst-1234abcd", event.InstanceID)
	assert.Equal(t, "wf-003", event.TemplateID)
	assert.Equal(t, time.UTC, event.Timestamp.Location())
	assert.NotNil(t, event.Metadata)

	other := NewBaseEvent(InstanceStartedEvent, "inst-1234abcd", "wf-003")
	assert.NotEqual(t, event.ID, other.ID)
}

func TestEvents_GetType(t *testing.T) {
	tests := []struct {
		event interface{ GetType() EventType }
		want  EventType
	}{
		{InstanceStarted{}, InstanceStartedEvent},
		{InstanceSuspended{}, InstanceSuspendedEvent},
		{InstanceResumed{}, InstanceResumedEvent},
		{InstancePaused{}, InstancePausedEvent},
		{InstanceCompleted{}, InstanceCompletedEvent},
		{InstanceFailed{}, InstanceFailedEvent},
		{InstanceCancelled{}, InstanceCancelledEvent},
		{StepExecuted{}, StepExecutedEvent},
		{MessageDispatchRequested{}, MessageDispatchRequestedEvent},
		{NotificationCreated{}, NotificationCreatedEvent},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.GetType())
		})
	}
}

func TestInstanceSuspended_JSON(t *testing.T) {
	resumeAt := time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC)
	original := InstanceSuspended{
		BaseEvent:    NewBaseEvent(InstanceSuspendedEvent, "inst-1234abcd", "wf-003"),
		StepIndex:    1,
		StepName:     "Wait 7 days",
		ScheduledFor: resumeAt,
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"workflow.instance.suspended"`)
	assert.Contains(t, string(data), `"instance_id":"inst-1234abcd"`)
	assert.Contains(t, string(data), `"step_name":"Wait 7 days"`)

	var decoded InstanceSuspended

	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 1, decoded.StepIndex)
	assert.True(t, resumeAt.Equal(decoded.ScheduledFor))
}

func TestMessageDispatchRequested_JSON(t *testing.T) {
	original := MessageDispatchRequested{
		BaseEvent: NewBaseEvent(MessageDispatchRequestedEvent, "inst-1234abcd", "wf-004"),
		MessageID: "msg-1",
		Channel:   models.MessageChannelSMS,
		Template:  "recall_sms",
		Address:   "+15550100",
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"channel":"sms"`)
	assert.Contains(t, string(data), `"template":"recall_sms"`)
	assert.NotContains(t, string(data), `"owner_id"`)
}
