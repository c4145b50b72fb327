// Package workflow runs workflow templates: the step executor performs one
// step, the engine drives instances through their steps and lifecycle.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tirs/Automotive-database-demo/pkg/models"
	"github.com/tirs/Automotive-database-demo/pkg/protocol"
)

const DefaultStepTimeout = 30 * time.Second

var ErrWaitConfig = errors.New("invalid wait configuration")

// Collaborators are the services steps delegate their side effects to.
// A nil collaborator fails the steps that need it.
type Collaborators struct {
	Notifier      protocol.Notifier
	Notifications protocol.NotificationCreator
	Conditions    protocol.ConditionEvaluator
	Enricher      protocol.Enricher
}

type Executor struct {
	collaborators    Collaborators
	logger           *slog.Logger
	now              func() time.Time
	stepTimeout      time.Duration
	strictWaitConfig bool
}

type ExecutorOption func(*Executor)

// WithStepTimeout bounds every delegated call. Zero disables the bound.
// A timed out call is recorded as a failed step but is not stopped: a
// collaborator that ignores ctx may still complete its side effect later.
func WithStepTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.stepTimeout = timeout
	}
}

// WithStrictWaitConfig fails wait steps with a malformed duration instead of
// treating them as a zero-length wait.
func WithStrictWaitConfig(strict bool) ExecutorOption {
	return func(e *Executor) {
		e.strictWaitConfig = strict
	}
}

func WithExecutorClock(now func() time.Time) ExecutorOption {
	return func(e *Executor) {
		e.now = now
	}
}

func NewExecutor(collaborators Collaborators, logger *slog.Logger, opts ...ExecutorOption) *Executor {
	e := &Executor{
		collaborators: collaborators,
		logger:        logger.With("module", "step_executor"),
		now:           time.Now,
		stepTimeout:   DefaultStepTimeout,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Execute runs the step at index and reports the outcome as a record.
// Collaborator errors, panics and timeouts become failed records.
func (e *Executor) Execute(ctx context.Context, index int, step models.WorkflowStep, stepCtx protocol.StepContext) models.StepExecutionRecord {
	record, _ := e.execute(ctx, index, step, stepCtx)

	return record
}

// execute also returns the resume time of a pending wait step.
func (e *Executor) execute(
	ctx context.Context,
	index int,
	step models.WorkflowStep,
	stepCtx protocol.StepContext,
) (models.StepExecutionRecord, time.Time) {
	start := stepCtx.StartedAt
	if start.IsZero() {
		start = e.now()
	}

	record := models.StepExecutionRecord{
		StepIndex: index,
		StepName:  step.DisplayName(index),
		StepType:  step.Type(),
		StartedAt: start,
	}

	logger := e.logger.With(
		"instance_id", stepCtx.InstanceID,
		"step_index", index,
		"step_type", record.StepType,
	)

	var (
		output   map[string]any
		resumeAt time.Time
		err      error
	)

	switch kind := step.Kind.(type) {
	case models.WaitStep:
		output, resumeAt, err = e.wait(kind, start)
		if err == nil {
			record.Status = models.StepStatusPending
		}
	case models.GenericStep:
		output = map[string]any{"success": true}
	case nil:
		output = map[string]any{"success": true}
	default:
		output, err = e.delegate(ctx, kind, stepCtx)
	}

	if err != nil {
		record.Status = models.StepStatusFailed
		record.Error = err.Error()
		output = map[string]any{"error": err.Error()}

		logger.WarnContext(ctx, "Step failed", "error", err)
	} else if record.Status == "" {
		record.Status = models.StepStatusCompleted
	}

	completed := e.now()
	if completed.Before(start) {
		completed = start
	}

	record.CompletedAt = completed
	record.DurationMs = completed.Sub(start).Milliseconds()
	record.Output = output

	logger.DebugContext(ctx, "Step executed", "status", record.Status, "duration_ms", record.DurationMs)

	return record, resumeAt
}

func (e *Executor) wait(step models.WaitStep, start time.Time) (map[string]any, time.Time, error) {
	if step.ConfigError != "" {
		if e.strictWaitConfig {
			return nil, time.Time{}, fmt.Errorf("%w: %s", ErrWaitConfig, step.ConfigError)
		}

		return map[string]any{
			"waiting":             true,
			"resume_at":           start.Format(time.RFC3339Nano),
			"configuration_error": step.ConfigError,
		}, start, nil
	}

	resumeAt := start.Add(step.Duration())

	return map[string]any{
		"waiting":   true,
		"resume_at": resumeAt.Format(time.RFC3339Nano),
	}, resumeAt, nil
}

type callResult struct {
	output map[string]any
	err    error
}

// delegate runs a collaborator-backed step under the step timeout. The call
// runs on its own goroutine so a collaborator that ignores ctx still times out.
func (e *Executor) delegate(ctx context.Context, kind models.StepKind, stepCtx protocol.StepContext) (map[string]any, error) {
	callCtx := ctx

	if e.stepTimeout > 0 {
		var cancel context.CancelFunc

		callCtx, cancel = context.WithTimeout(ctx, e.stepTimeout)
		defer cancel()
	}

	done := make(chan callResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- callResult{err: fmt.Errorf("step panicked: %v", r)}
			}
		}()

		output, err := e.run(callCtx, kind, stepCtx)
		done <- callResult{output: output, err: err}
	}()

	select {
	case result := <-done:
		return result.output, result.err
	case <-callCtx.Done():
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("step timed out after %s", e.stepTimeout)
		}

		return nil, fmt.Errorf("step cancelled: %w", callCtx.Err())
	}
}

func (e *Executor) run(ctx context.Context, kind models.StepKind, stepCtx protocol.StepContext) (map[string]any, error) {
	switch step := kind.(type) {
	case models.SendEmailStep:
		return e.sendMessage(ctx, models.MessageChannelEmail, step.Template, stepCtx)
	case models.SendSMSStep:
		return e.sendMessage(ctx, models.MessageChannelSMS, step.Template, stepCtx)
	case models.CreateNotificationStep:
		return e.createNotification(ctx, step, stepCtx)
	case models.ConditionStep:
		return e.evaluateCondition(ctx, step, stepCtx)
	case models.EnrichDataStep:
		if e.collaborators.Enricher == nil {
			return nil, errMissingCollaborator("enricher")
		}

		return e.collaborators.Enricher.Enrich(ctx, step.Action, stepCtx)
	case models.CheckRecallsStep:
		if e.collaborators.Enricher == nil {
			return nil, errMissingCollaborator("enricher")
		}

		return e.collaborators.Enricher.CheckRecalls(ctx, stepCtx)
	case models.GenerateValuationStep:
		if e.collaborators.Enricher == nil {
			return nil, errMissingCollaborator("enricher")
		}

		return e.collaborators.Enricher.Valuate(ctx, step.Condition, stepCtx)
	default:
		return map[string]any{"success": true}, nil
	}
}

func (e *Executor) sendMessage(
	ctx context.Context,
	channel models.MessageChannel,
	templateName string,
	stepCtx protocol.StepContext,
) (map[string]any, error) {
	if e.collaborators.Notifier == nil {
		return nil, errMissingCollaborator("notifier")
	}

	recipient := protocol.Recipient{
		InstanceID: stepCtx.InstanceID,
		TemplateID: stepCtx.TemplateID,
		OwnerID:    stepCtx.OwnerID,
		VehicleID:  stepCtx.VehicleID,
		Email:      triggerString(stepCtx, "email"),
		Phone:      triggerString(stepCtx, "phone"),
	}

	receipt, err := e.collaborators.Notifier.SendMessage(ctx, channel, templateName, recipient)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		string(channel) + "_sent": true,
		"template":                templateName,
		"recipient":               receipt.Address,
		"message_id":              receipt.MessageID,
	}, nil
}

func (e *Executor) createNotification(ctx context.Context, step models.CreateNotificationStep, stepCtx protocol.StepContext) (map[string]any, error) {
	if e.collaborators.Notifications == nil {
		return nil, errMissingCollaborator("notification service")
	}

	id, err := e.collaborators.Notifications.CreateNotification(
		ctx,
		step.NotificationType,
		models.NotificationPriority(step.Priority),
		stepCtx,
	)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"notification_created": true,
		"notification_id":      id,
	}, nil
}

func (e *Executor) evaluateCondition(ctx context.Context, step models.ConditionStep, stepCtx protocol.StepContext) (map[string]any, error) {
	if e.collaborators.Conditions == nil {
		return nil, errMissingCollaborator("condition evaluator")
	}

	met, err := e.collaborators.Conditions.Evaluate(ctx, step, stepCtx)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"condition_met": met,
		"checked":       step.Check,
	}, nil
}

func errMissingCollaborator(name string) error {
	return fmt.Errorf("no %s configured", name)
}

func triggerString(stepCtx protocol.StepContext, key string) string {
	value, _ := stepCtx.TriggerData[key].(string)

	return value
}
