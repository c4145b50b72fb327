package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tirs/Automotive-database-demo/pkg/eventbus"
	"github.com/tirs/Automotive-database-demo/pkg/events"
	"github.com/tirs/Automotive-database-demo/pkg/models"
	"github.com/tirs/Automotive-database-demo/pkg/otelhelper"
	"github.com/tirs/Automotive-database-demo/pkg/persistence"
	"github.com/tirs/Automotive-database-demo/pkg/protocol"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName    = "github.com/tirs/Automotive-database-demo/pkg/workflow"
	maxIDAttempts = 5
)

// TemplateSource resolves templates by id. *catalog.Catalog implements it.
type TemplateSource interface {
	GetTemplate(id string) (*models.WorkflowTemplate, error)
}

// TriggerRequest starts a new instance of a template.
type TriggerRequest struct {
	TemplateID  string         `json:"template_id"            validate:"required"`
	VehicleID   string         `json:"vehicle_id,omitempty"`
	OwnerID     string         `json:"owner_id,omitempty"`
	TriggerData map[string]any `json:"trigger_data,omitempty"`
}

type ResumeOptions struct {
	// Force resumes before the wait's scheduled time.
	Force bool
	// ResumedBy names the caller, e.g. "scheduler" or "api".
	ResumedBy string
}

// Engine creates instances from templates and advances them step by step.
// Operations on the same instance are serialized; different instances run
// independently.
type Engine struct {
	templates TemplateSource
	store     persistence.InstanceStore
	executor  *Executor
	publisher eventbus.EventPublisher
	tracer    trace.Tracer
	logger    *slog.Logger
	now       func() time.Time
	locks     *instanceLocks
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithEventBus publishes lifecycle and step events. Publish failures are
// logged and never affect the instance.
func WithEventBus(publisher eventbus.EventPublisher) Option {
	return func(e *Engine) {
		e.publisher = publisher
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

func NewEngine(
	templates TemplateSource,
	store persistence.InstanceStore,
	executor *Executor,
	logger *slog.Logger,
	opts ...Option,
) *Engine {
	e := &Engine{
		templates: templates,
		store:     store,
		executor:  executor,
		tracer:    otel.Tracer(tracerName),
		logger:    logger.With("module", "workflow_engine"),
		now:       time.Now,
		locks:     newInstanceLocks(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Trigger creates an instance of the template and runs it until it
// completes, fails or reaches a wait step. Unknown or inactive templates
// return ErrTemplateNotFound and nothing is stored. Once the instance exists,
// step failures are reported through the result rather than as an error.
func (e *Engine) Trigger(ctx context.Context, req TriggerRequest) (*models.ExecutionResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.trigger",
		attribute.String(otelhelper.TemplateIDKey, req.TemplateID),
		attribute.String(otelhelper.VehicleIDKey, req.VehicleID),
	)
	defer span.End()

	template, err := e.activeTemplate(req.TemplateID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	id, err := e.newInstanceID(ctx)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	now := e.now()
	instance := &models.WorkflowInstance{
		ID:           id,
		TemplateID:   template.ID,
		TemplateName: template.Name,
		VehicleID:    req.VehicleID,
		OwnerID:      req.OwnerID,
		TriggerData:  models.CloneMap(req.TriggerData),
		Status:       models.InstanceStatusRunning,
		CurrentStep:  0,
		TotalSteps:   len(template.Steps),
		StartedAt:    now,
		UpdatedAt:    now,
		ExecutionLog: []models.StepExecutionRecord{},
	}

	span.SetAttributes(
		attribute.String(otelhelper.InstanceIDKey, instance.ID),
		attribute.String(otelhelper.TemplateNameKey, template.Name),
	)

	unlock := e.locks.lock(instance.ID)
	defer unlock()

	err = e.store.SaveInstance(ctx, instance)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to save instance %s: %w", instance.ID, err)
	}

	logger := e.instanceLogger(instance)
	logger.InfoContext(ctx, "Workflow instance started", "total_steps", instance.TotalSteps)

	e.publish(ctx, instance.ID, events.InstanceStarted{
		BaseEvent:    events.NewBaseEvent(events.InstanceStartedEvent, instance.ID, instance.TemplateID),
		TemplateName: instance.TemplateName,
		VehicleID:    instance.VehicleID,
		OwnerID:      instance.OwnerID,
		TotalSteps:   instance.TotalSteps,
		TriggerData:  models.CloneMap(instance.TriggerData),
	})

	return e.runAndSave(ctx, span, instance, template)
}

// Resume continues an instance suspended at a wait step, or a paused one,
// from the step after the wait. Unless opts.Force is set the wait must be due.
func (e *Engine) Resume(ctx context.Context, id string, opts ResumeOptions) (*models.ExecutionResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.resume",
		attribute.String(otelhelper.InstanceIDKey, id),
		attribute.Bool(otelhelper.ResumeForcedKey, opts.Force),
	)
	defer span.End()

	unlock := e.locks.lock(id)
	defer unlock()

	instance, err := e.store.InstanceByID(ctx, id)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if !instance.IsSuspended() && instance.Status != models.InstanceStatusPaused {
		return nil, newTransitionError("resume", instance)
	}

	now := e.now()
	if !opts.Force && instance.NextScheduledStep != nil && !instance.IsDue(now) {
		return nil, fmt.Errorf("%w: instance %s resumes at %s",
			ErrResumeNotDue, instance.ID, instance.NextScheduledStep.ScheduledFor.Format(time.RFC3339))
	}

	template, err := e.templates.GetTemplate(instance.TemplateID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if len(template.Steps) != instance.TotalSteps {
		err = fmt.Errorf("%w: %s has %d steps, instance %s expects %d",
			ErrTemplateChanged, template.ID, len(template.Steps), instance.ID, instance.TotalSteps)
		otelhelper.SetError(span, err)

		return nil, err
	}

	waitIndex := instance.CurrentStep
	if instance.NextScheduledStep != nil {
		waitIndex = instance.NextScheduledStep.StepIndex
	}

	instance.Status = models.InstanceStatusRunning
	instance.CurrentStep = waitIndex + 1
	instance.NextScheduledStep = nil
	instance.ResumedAt = &now
	instance.UpdatedAt = now

	span.SetAttributes(attribute.String(otelhelper.TemplateIDKey, instance.TemplateID))

	e.instanceLogger(instance).InfoContext(ctx, "Workflow instance resumed",
		"wait_step", waitIndex,
		"forced", opts.Force,
		"resumed_by", opts.ResumedBy)

	e.publish(ctx, instance.ID, events.InstanceResumed{
		BaseEvent: events.NewBaseEvent(events.InstanceResumedEvent, instance.ID, instance.TemplateID),
		StepIndex: waitIndex,
		Forced:    opts.Force,
		ResumedBy: opts.ResumedBy,
	})

	return e.runAndSave(ctx, span, instance, template)
}

// Pause holds an instance suspended at a wait step. Paused instances are only
// resumed explicitly.
func (e *Engine) Pause(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	unlock := e.locks.lock(id)
	defer unlock()

	instance, err := e.store.InstanceByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !instance.IsSuspended() {
		return nil, newTransitionError("pause", instance)
	}

	instance.Status = models.InstanceStatusPaused
	instance.UpdatedAt = e.now()

	err = e.store.SaveInstance(ctx, instance)
	if err != nil {
		return nil, fmt.Errorf("failed to save instance %s: %w", instance.ID, err)
	}

	e.instanceLogger(instance).InfoContext(ctx, "Workflow instance paused", "step_index", instance.CurrentStep)

	e.publish(ctx, instance.ID, events.InstancePaused{
		BaseEvent: events.NewBaseEvent(events.InstancePausedEvent, instance.ID, instance.TemplateID),
		StepIndex: instance.CurrentStep,
	})

	return instance, nil
}

// Cancel stops any instance that has not reached a terminal status.
func (e *Engine) Cancel(ctx context.Context, id, reason string) (*models.WorkflowInstance, error) {
	unlock := e.locks.lock(id)
	defer unlock()

	instance, err := e.store.InstanceByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !instance.Status.CanTransitionTo(models.InstanceStatusCancelled) {
		return nil, newTransitionError("cancel", instance)
	}

	now := e.now()
	instance.Status = models.InstanceStatusCancelled
	instance.CancelledAt = &now
	instance.UpdatedAt = now
	instance.NextScheduledStep = nil

	err = e.store.SaveInstance(ctx, instance)
	if err != nil {
		return nil, fmt.Errorf("failed to save instance %s: %w", instance.ID, err)
	}

	e.instanceLogger(instance).InfoContext(ctx, "Workflow instance cancelled", "reason", reason)

	e.publish(ctx, instance.ID, events.InstanceCancelled{
		BaseEvent: events.NewBaseEvent(events.InstanceCancelledEvent, instance.ID, instance.TemplateID),
		StepIndex: instance.CurrentStep,
		Reason:    reason,
	})

	return instance, nil
}

func (e *Engine) GetInstance(ctx context.Context, id string) (*models.WorkflowInstance, error) {
	return e.store.InstanceByID(ctx, id)
}

func (e *Engine) ListInstances(ctx context.Context, opts persistence.ListInstancesOptions) ([]*models.WorkflowInstance, error) {
	return e.store.Instances(ctx, opts)
}

// DueInstances lists instances suspended at a wait step whose resume time
// has passed.
func (e *Engine) DueInstances(ctx context.Context) ([]*models.WorkflowInstance, error) {
	running := models.InstanceStatusRunning

	instances, err := e.store.Instances(ctx, persistence.ListInstancesOptions{Status: &running})
	if err != nil {
		return nil, err
	}

	now := e.now()
	due := make([]*models.WorkflowInstance, 0, len(instances))

	for _, instance := range instances {
		if instance.IsSuspended() && instance.IsDue(now) {
			due = append(due, instance)
		}
	}

	return due, nil
}

func (e *Engine) activeTemplate(id string) (*models.WorkflowTemplate, error) {
	template, err := e.templates.GetTemplate(id)
	if err != nil {
		return nil, err
	}

	if !template.IsActive {
		return nil, fmt.Errorf("%w: %s is inactive", ErrTemplateNotFound, id)
	}

	return template, nil
}

// newInstanceID returns a short id that is not yet taken in the store.
func (e *Engine) newInstanceID(ctx context.Context) (string, error) {
	for range maxIDAttempts {
		id := "inst-" + uuid.New().String()[:8]

		_, err := e.store.InstanceByID(ctx, id)
		if persistence.IsInstanceNotFound(err) {
			return id, nil
		}

		if err != nil {
			return "", fmt.Errorf("failed to check instance id: %w", err)
		}
	}

	return "", fmt.Errorf("failed to generate a free instance id after %d attempts", maxIDAttempts)
}

// runAndSave advances the instance, stores the final state and publishes the
// outcome. The final save survives cancellation of ctx so a timed out run is
// still recorded.
func (e *Engine) runAndSave(
	ctx context.Context,
	span trace.Span,
	instance *models.WorkflowInstance,
	template *models.WorkflowTemplate,
) (*models.ExecutionResult, error) {
	e.advance(ctx, instance, template)

	span.SetAttributes(attribute.String(otelhelper.InstanceStatusKey, string(instance.Status)))

	saveCtx := context.WithoutCancel(ctx)

	err := e.store.SaveInstance(saveCtx, instance)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to save instance %s: %w", instance.ID, err)
	}

	e.publishOutcome(saveCtx, instance)

	return models.NewExecutionResult(instance), nil
}

// advance executes steps from the cursor in template order until a wait
// step suspends the instance, a step fails, or the template is exhausted.
func (e *Engine) advance(ctx context.Context, instance *models.WorkflowInstance, template *models.WorkflowTemplate) {
	logger := e.instanceLogger(instance)

	var previous time.Time
	if n := len(instance.ExecutionLog); n > 0 {
		previous = instance.ExecutionLog[n-1].StartedAt
	}

	for instance.CurrentStep < instance.TotalSteps {
		index := instance.CurrentStep
		step := template.Steps[index]
		start := e.stepStart(previous)
		previous = start

		stepCtx := protocol.StepContext{
			InstanceID:  instance.ID,
			TemplateID:  instance.TemplateID,
			VehicleID:   instance.VehicleID,
			OwnerID:     instance.OwnerID,
			TriggerData: models.CloneMap(instance.TriggerData),
			StepIndex:   index,
			StartedAt:   start,
		}

		stepSpanCtx, stepSpan := otelhelper.StartSpan(ctx, e.tracer, "workflow.step",
			otelhelper.StepAttributes(index, step.DisplayName(index), string(step.Type()))...)

		record, resumeAt := e.executor.execute(stepSpanCtx, index, step, stepCtx)

		stepSpan.SetAttributes(attribute.String(otelhelper.StepStatusKey, string(record.Status)))

		if record.Status == models.StepStatusFailed {
			otelhelper.SetError(stepSpan, errors.New(record.Error),
				attribute.String(otelhelper.InstanceIDKey, instance.ID))
		}

		stepSpan.End()

		instance.ExecutionLog = append(instance.ExecutionLog, record)
		instance.UpdatedAt = record.CompletedAt

		e.publish(ctx, instance.ID, events.StepExecuted{
			BaseEvent: events.NewBaseEvent(events.StepExecutedEvent, instance.ID, instance.TemplateID),
			Record:    record,
		})

		switch record.Status {
		case models.StepStatusPending:
			instance.NextScheduledStep = &models.NextScheduledStep{
				StepIndex:    index,
				StepName:     record.StepName,
				ScheduledFor: resumeAt,
			}

			logger.InfoContext(ctx, "Workflow instance suspended", "step_index", index, "resume_at", resumeAt)

			return
		case models.StepStatusFailed:
			instance.Status = models.InstanceStatusFailed
			instance.Error = record.Error

			logger.WarnContext(ctx, "Workflow instance failed", "step_index", index, "error", record.Error)

			return
		default:
			instance.CurrentStep++
		}
	}

	completedAt := e.now()
	if completedAt.Before(instance.UpdatedAt) {
		completedAt = instance.UpdatedAt
	}

	instance.Status = models.InstanceStatusCompleted
	instance.CompletedAt = &completedAt
	instance.UpdatedAt = completedAt

	logger.InfoContext(ctx, "Workflow instance completed", "steps_completed", instance.StepsCompleted())
}

// stepStart keeps step start times strictly increasing within an instance,
// even when the clock does not move between steps.
func (e *Engine) stepStart(previous time.Time) time.Time {
	now := e.now()
	if !previous.IsZero() && !now.After(previous) {
		return previous.Add(time.Millisecond)
	}

	return now
}

func (e *Engine) publishOutcome(ctx context.Context, instance *models.WorkflowInstance) {
	switch {
	case instance.Status == models.InstanceStatusCompleted:
		e.publish(ctx, instance.ID, events.InstanceCompleted{
			BaseEvent:      events.NewBaseEvent(events.InstanceCompletedEvent, instance.ID, instance.TemplateID),
			StepsCompleted: instance.StepsCompleted(),
			DurationMs:     instance.CompletedAt.Sub(instance.StartedAt).Milliseconds(),
		})
	case instance.Status == models.InstanceStatusFailed:
		failed := instance.ExecutionLog[len(instance.ExecutionLog)-1]
		e.publish(ctx, instance.ID, events.InstanceFailed{
			BaseEvent: events.NewBaseEvent(events.InstanceFailedEvent, instance.ID, instance.TemplateID),
			StepIndex: failed.StepIndex,
			StepType:  string(failed.StepType),
			Error:     failed.Error,
		})
	case instance.IsSuspended():
		e.publish(ctx, instance.ID, events.InstanceSuspended{
			BaseEvent:    events.NewBaseEvent(events.InstanceSuspendedEvent, instance.ID, instance.TemplateID),
			StepIndex:    instance.NextScheduledStep.StepIndex,
			StepName:     instance.NextScheduledStep.StepName,
			ScheduledFor: instance.NextScheduledStep.ScheduledFor,
		})
	}
}

func (e *Engine) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	err := e.publisher.Publish(ctx, key, event)
	if err != nil {
		e.logger.WarnContext(ctx, "Failed to publish event", "event_type", event.GetType(), "instance_id", key, "error", err)
	}
}

func (e *Engine) instanceLogger(instance *models.WorkflowInstance) *slog.Logger {
	return e.logger.With("instance_id", instance.ID, "template_id", instance.TemplateID)
}
