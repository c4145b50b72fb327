package conditions_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tirs/Automotive-database-demo/pkg/conditions"
	"github.com/tirs/Automotive-database-demo/pkg/models"
	"github.com/tirs/Automotive-database-demo/pkg/protocol"
)

func threshold(v float64) *float64 {
	return &v
}

func TestRegistry_Evaluate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		condition   models.ConditionStep
		triggerData map[string]any
		want        bool
		wantErr     bool
	}{
		{
			name:        "expiration inside window",
			condition:   models.ConditionStep{Check: "days_until_expiration", Threshold: threshold(30)},
			triggerData: map[string]any{"days_until_expiration": 12},
			want:        true,
		},
		{
			name:        "expiration outside window",
			condition:   models.ConditionStep{Check: "days_until_expiration", Threshold: threshold(30)},
			triggerData: map[string]any{"days_until_expiration": 45.0},
			want:        false,
		},
		{
			name:        "expiration uses default window",
			condition:   models.ConditionStep{Check: "days_until_expiration"},
			triggerData: map[string]any{"days_until_expiration": "30"},
			want:        true,
		},
		{
			name:        "already expired",
			condition:   models.ConditionStep{Check: "days_until_expiration"},
			triggerData: map[string]any{"days_until_expiration": -2},
			want:        false,
		},
		{
			name:      "expiration without data holds",
			condition: models.ConditionStep{Check: "days_until_expiration", Threshold: threshold(30)},
			want:      true,
		},
		{
			name:        "expiration with garbage fails",
			condition:   models.ConditionStep{Check: "days_until_expiration"},
			triggerData: map[string]any{"days_until_expiration": "soon"},
			wantErr:     true,
		},
		{
			name:        "service not scheduled",
			condition:   models.ConditionStep{Check: "service_scheduled", IfTrue: "end"},
			triggerData: map[string]any{"service_scheduled": false},
			want:        false,
		},
		{
			name:        "service scheduled",
			condition:   models.ConditionStep{Check: "service_scheduled"},
			triggerData: map[string]any{"service_scheduled": true},
			want:        true,
		},
		{
			name:        "service scheduled with wrong type fails",
			condition:   models.ConditionStep{Check: "service_scheduled"},
			triggerData: map[string]any{"service_scheduled": "yes"},
			wantErr:     true,
		},
		{
			name:        "mileage above threshold",
			condition:   models.ConditionStep{Check: "mileage_above", Threshold: threshold(30000)},
			triggerData: map[string]any{"mileage": 45000},
			want:        true,
		},
		{
			name:        "mileage below threshold",
			condition:   models.ConditionStep{Check: "mileage_above", Threshold: threshold(30000)},
			triggerData: map[string]any{"mileage": 12000},
			want:        false,
		},
		{
			name:        "unknown check holds",
			condition:   models.ConditionStep{Check: "moon_phase"},
			triggerData: map[string]any{},
			want:        true,
		},
	}

	registry := conditions.NewRegistry(slog.Default())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := registry.Evaluate(context.Background(), tt.condition, protocol.StepContext{TriggerData: tt.triggerData})

			if tt.wantErr {
				require.ErrorIs(t, err, conditions.ErrInvalidConditionData)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistry_Register(t *testing.T) {
	t.Parallel()

	registry := conditions.NewRegistry(slog.Default())
	registry.Register("owner_opted_in", func(_ context.Context, _ models.ConditionStep, stepCtx protocol.StepContext) (bool, error) {
		return stepCtx.OwnerID == "own-001", nil
	})

	got, err := registry.Evaluate(context.Background(), models.ConditionStep{Check: "owner_opted_in"}, protocol.StepContext{OwnerID: "own-002"})
	require.NoError(t, err)
	assert.False(t, got)
}
