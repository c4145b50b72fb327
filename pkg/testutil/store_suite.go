package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tirs/Automotive-database-demo/pkg/models"
	"github.com/tirs/Automotive-database-demo/pkg/persistence"
)

// RunInstanceStoreSuite checks the InstanceStore contract against a backend.
// newStore must return an empty store.
func RunInstanceStoreSuite(t *testing.T, newStore func(t *testing.T) persistence.InstanceStore) {
	t.Helper()

	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("save and get round trip", func(t *testing.T) {
		store := newStore(t)
		instance := CreateTestInstance(WithSuspendedWait(1, base.Add(7*24*time.Hour)))

		require.NoError(t, store.SaveInstance(ctx, instance))

		got, err := store.InstanceByID(ctx, instance.ID)
		require.NoError(t, err)

		assert.Equal(t, instance.ID, got.ID)
		assert.Equal(t, instance.TemplateID, got.TemplateID)
		assert.Equal(t, instance.TemplateName, got.TemplateName)
		assert.Equal(t, instance.VehicleID, got.VehicleID)
		assert.Equal(t, instance.OwnerID, got.OwnerID)
		assert.Equal(t, models.InstanceStatusRunning, got.Status)
		assert.Equal(t, 1, got.CurrentStep)
		assert.Equal(t, instance.TotalSteps, got.TotalSteps)
		assert.WithinDuration(t, instance.StartedAt, got.StartedAt, time.Millisecond)
		assert.Equal(t, "test", got.TriggerData["source"])
		require.Len(t, got.ExecutionLog, 2)
		assert.Equal(t, models.StepStatusPending, got.ExecutionLog[1].Status)
		require.NotNil(t, got.NextScheduledStep)
		assert.Equal(t, 1, got.NextScheduledStep.StepIndex)
		assert.WithinDuration(t, base.Add(7*24*time.Hour), got.NextScheduledStep.ScheduledFor, time.Millisecond)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		store := newStore(t)

		_, err := store.InstanceByID(ctx, "inst-missing")
		require.Error(t, err)
		assert.True(t, persistence.IsInstanceNotFound(err))
	})

	t.Run("nil instance is rejected", func(t *testing.T) {
		store := newStore(t)

		err := store.SaveInstance(ctx, nil)
		assert.ErrorIs(t, err, persistence.ErrNilInstance)
	})

	t.Run("save upserts by id", func(t *testing.T) {
		store := newStore(t)
		instance := CreateTestInstance()

		require.NoError(t, store.SaveInstance(ctx, instance))

		completedAt := base.Add(time.Minute)
		instance.Status = models.InstanceStatusCompleted
		instance.CurrentStep = instance.TotalSteps
		instance.CompletedAt = &completedAt
		require.NoError(t, store.SaveInstance(ctx, instance))

		got, err := store.InstanceByID(ctx, instance.ID)
		require.NoError(t, err)
		assert.Equal(t, models.InstanceStatusCompleted, got.Status)
		require.NotNil(t, got.CompletedAt)
		assert.WithinDuration(t, completedAt, *got.CompletedAt, time.Millisecond)

		running := models.InstanceStatusRunning
		stale, err := store.Instances(ctx, persistence.ListInstancesOptions{Status: &running})
		require.NoError(t, err)
		assert.Empty(t, stale)

		all, err := store.Instances(ctx, persistence.ListInstancesOptions{})
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("list filters and orders by start time", func(t *testing.T) {
		store := newStore(t)

		first := CreateTestInstance(WithStartedAt(base))
		second := CreateTestInstance(WithStartedAt(base.Add(time.Second)), WithStatus(models.InstanceStatusCompleted))
		third := CreateTestInstance(WithStartedAt(base.Add(2*time.Second)), WithTemplate("wf-004", "Recall Notification", 3))

		for _, instance := range []*models.WorkflowInstance{third, first, second} {
			require.NoError(t, store.SaveInstance(ctx, instance))
		}

		all, err := store.Instances(ctx, persistence.ListInstancesOptions{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, first.ID, all[0].ID)
		assert.Equal(t, second.ID, all[1].ID)
		assert.Equal(t, third.ID, all[2].ID)

		running := models.InstanceStatusRunning
		runningOnly, err := store.Instances(ctx, persistence.ListInstancesOptions{Status: &running})
		require.NoError(t, err)
		require.Len(t, runningOnly, 2)
		assert.Equal(t, first.ID, runningOnly[0].ID)
		assert.Equal(t, third.ID, runningOnly[1].ID)

		byTemplate, err := store.Instances(ctx, persistence.ListInstancesOptions{TemplateID: "wf-004"})
		require.NoError(t, err)
		require.Len(t, byTemplate, 1)
		assert.Equal(t, third.ID, byTemplate[0].ID)
	})

	t.Run("returned instances are copies", func(t *testing.T) {
		store := newStore(t)
		instance := CreateTestInstance()
		require.NoError(t, store.SaveInstance(ctx, instance))

		instance.Status = models.InstanceStatusFailed

		got, err := store.InstanceByID(ctx, instance.ID)
		require.NoError(t, err)
		assert.Equal(t, models.InstanceStatusRunning, got.Status)

		got.TriggerData["source"] = "mutated"

		again, err := store.InstanceByID(ctx, instance.ID)
		require.NoError(t, err)
		assert.Equal(t, "test", again.TriggerData["source"])
	})

	t.Run("concurrent saves to one id", func(t *testing.T) {
		store := newStore(t)
		instance := CreateTestInstance()
		require.NoError(t, store.SaveInstance(ctx, instance))

		var wg sync.WaitGroup

		for step := 1; step <= 8; step++ {
			wg.Add(1)

			go func(step int) {
				defer wg.Done()

				update := instance.Clone()
				update.CurrentStep = step
				assert.NoError(t, store.SaveInstance(ctx, update))
			}(step)
		}

		wg.Wait()

		got, err := store.InstanceByID(ctx, instance.ID)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, got.CurrentStep, 1)
		assert.LessOrEqual(t, got.CurrentStep, 8)

		all, err := store.Instances(ctx, persistence.ListInstancesOptions{})
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}
