// Package conditions evaluates the named checks used by condition steps.
package conditions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tirs/Automotive-database-demo/pkg/models"
	"github.com/tirs/Automotive-database-demo/pkg/protocol"
)

const defaultExpirationWindowDays = 30

var ErrInvalidConditionData = errors.New("invalid condition data")

// Check decides whether a condition holds for one step execution.
type Check func(ctx context.Context, condition models.ConditionStep, stepCtx protocol.StepContext) (bool, error)

// Registry maps check names to implementations. Unknown checks, and checks
// whose input is missing from the trigger data, hold.
type Registry struct {
	mu     sync.RWMutex
	checks map[string]Check
	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	r := &Registry{
		checks: make(map[string]Check),
		logger: logger.With("module", "conditions"),
	}

	r.Register("days_until_expiration", daysUntilExpiration)
	r.Register("service_scheduled", serviceScheduled)
	r.Register("mileage_above", mileageAbove)

	return r
}

// Register adds or replaces the check called name.
func (r *Registry) Register(name string, check Check) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.checks[name] = check
}

func (r *Registry) Evaluate(ctx context.Context, condition models.ConditionStep, stepCtx protocol.StepContext) (bool, error) {
	r.mu.RLock()
	check, ok := r.checks[condition.Check]
	r.mu.RUnlock()

	if !ok {
		r.logger.DebugContext(ctx, "Unknown condition check treated as met",
			"check", condition.Check, "instance_id", stepCtx.InstanceID)

		return true, nil
	}

	return check(ctx, condition, stepCtx)
}

// daysUntilExpiration holds when the expiration falls inside the threshold window.
func daysUntilExpiration(_ context.Context, condition models.ConditionStep, stepCtx protocol.StepContext) (bool, error) {
	raw, ok := stepCtx.TriggerData["days_until_expiration"]
	if !ok {
		return true, nil
	}

	days, ok := models.NumberValue(raw)
	if !ok {
		return false, fmt.Errorf("%w: days_until_expiration=%v", ErrInvalidConditionData, raw)
	}

	window := float64(defaultExpirationWindowDays)
	if condition.Threshold != nil {
		window = *condition.Threshold
	}

	return days >= 0 && days <= window, nil
}

func serviceScheduled(_ context.Context, _ models.ConditionStep, stepCtx protocol.StepContext) (bool, error) {
	raw, ok := stepCtx.TriggerData["service_scheduled"]
	if !ok {
		return true, nil
	}

	scheduled, ok := raw.(bool)
	if !ok {
		return false, fmt.Errorf("%w: service_scheduled=%v", ErrInvalidConditionData, raw)
	}

	return scheduled, nil
}

func mileageAbove(_ context.Context, condition models.ConditionStep, stepCtx protocol.StepContext) (bool, error) {
	raw, ok := stepCtx.TriggerData["mileage"]
	if !ok || condition.Threshold == nil {
		return true, nil
	}

	mileage, ok := models.NumberValue(raw)
	if !ok {
		return false, fmt.Errorf("%w: mileage=%v", ErrInvalidConditionData, raw)
	}

	return mileage > *condition.Threshold, nil
}
