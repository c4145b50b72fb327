package persistence_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tirs/Automotive-database-demo/pkg/models"
	"github.com/tirs/Automotive-database-demo/pkg/persistence"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error checking functions work correctly", func(t *testing.T) {
		err := persistence.NewInstanceError("InstanceByID", "inst-123", persistence.ErrInstanceNotFound)

		assert.True(t, persistence.IsInstanceNotFound(err))
		assert.True(t, errors.Is(err, persistence.ErrInstanceNotFound))
		assert.False(t, persistence.IsInstanceNotFound(errors.New("boom")))
	})

	t.Run("instance error contains context", func(t *testing.T) {
		err := persistence.NewInstanceError("SaveInstance", "inst-123", persistence.ErrNilInstance)

		assert.Contains(t, err.Error(), "SaveInstance")
		assert.Contains(t, err.Error(), "inst-123")
		assert.Contains(t, err.Error(), "instance cannot be nil")
	})
}

func TestValidateInstanceID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id      string
		wantErr bool
	}{
		{"inst-1a2b3c4d", false},
		{"550e8400-e29b-41d4-a716-446655440000", false},
		{"", true},
		{"../etc/passwd", true},
		{"a/b", true},
		{"a\\b", true},
		{"with space", true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			t.Parallel()

			err := persistence.ValidateInstanceID(tt.id)
			if tt.wantErr {
				assert.ErrorIs(t, err, persistence.ErrInvalidInstanceID)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestListInstancesOptions_Matches(t *testing.T) {
	t.Parallel()

	running := models.InstanceStatusRunning
	completed := models.InstanceStatusCompleted

	instance := &models.WorkflowInstance{
		ID:         "inst-1",
		TemplateID: "wf-001",
		VehicleID:  "veh-1",
		Status:     models.InstanceStatusRunning,
	}

	assert.True(t, persistence.ListInstancesOptions{}.Matches(instance))
	assert.True(t, persistence.ListInstancesOptions{Status: &running}.Matches(instance))
	assert.False(t, persistence.ListInstancesOptions{Status: &completed}.Matches(instance))
	assert.True(t, persistence.ListInstancesOptions{TemplateID: "wf-001", VehicleID: "veh-1"}.Matches(instance))
	assert.False(t, persistence.ListInstancesOptions{TemplateID: "wf-002"}.Matches(instance))
	assert.False(t, persistence.ListInstancesOptions{VehicleID: "veh-2"}.Matches(instance))
}

func TestSortInstances(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	instances := []*models.WorkflowInstance{
		{ID: "inst-c", StartedAt: base.Add(time.Minute)},
		{ID: "inst-b", StartedAt: base},
		{ID: "inst-a", StartedAt: base},
	}

	persistence.SortInstances(instances)

	assert.Equal(t, "inst-a", instances[0].ID)
	assert.Equal(t, "inst-b", instances[1].ID)
	assert.Equal(t, "inst-c", instances[2].ID)
}
