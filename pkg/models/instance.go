package models

import (
	"fmt"
	"time"
)

// InstanceStatus represents the lifecycle state of a workflow instance.
type InstanceStatus string

const (
	InstanceStatusPending   InstanceStatus = "pending"
	InstanceStatusRunning   InstanceStatus = "running" // also "suspended at a wait" when NextScheduledStep is set
	InstanceStatusPaused    InstanceStatus = "paused"
	InstanceStatusCompleted InstanceStatus = "completed"
	InstanceStatusFailed    InstanceStatus = "failed"
	InstanceStatusCancelled InstanceStatus = "cancelled"
)

var instanceTransitions = map[InstanceStatus][]InstanceStatus{
	InstanceStatusPending: {InstanceStatusRunning, InstanceStatusCancelled},
	InstanceStatusRunning: {
		InstanceStatusRunning,
		InstanceStatusPaused,
		InstanceStatusCompleted,
		InstanceStatusFailed,
		InstanceStatusCancelled,
	},
	InstanceStatusPaused: {InstanceStatusRunning, InstanceStatusCancelled},
}

// ParseInstanceStatus validates a status coming from outside (query strings, storage).
func ParseInstanceStatus(raw string) (InstanceStatus, error) {
	status := InstanceStatus(raw)

	switch status {
	case InstanceStatusPending, InstanceStatusRunning, InstanceStatusPaused,
		InstanceStatusCompleted, InstanceStatusFailed, InstanceStatusCancelled:
		return status, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidInstanceStatus, raw)
	}
}

func (s InstanceStatus) IsTerminal() bool {
	return s == InstanceStatusCompleted || s == InstanceStatusFailed || s == InstanceStatusCancelled
}

func (s InstanceStatus) CanTransitionTo(next InstanceStatus) bool {
	for _, allowed := range instanceTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// StepStatus is the outcome of a single step execution.
type StepStatus string

const (
	StepStatusCompleted StepStatus = "completed"
	StepStatusPending   StepStatus = "pending"
	StepStatusFailed    StepStatus = "failed"
	StepStatusSkipped   StepStatus = "skipped"
)

// StepExecutionRecord is one append-only entry of an instance's execution log.
type StepExecutionRecord struct {
	StepIndex   int            `json:"step_index"`
	StepName    string         `json:"step_name"`
	StepType    StepType       `json:"step_type"`
	Status      StepStatus     `json:"status"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at"`
	DurationMs  int64          `json:"duration_ms"`
	Output      map[string]any `json:"output"`
	Error       string         `json:"error,omitempty"`
}

// NextScheduledStep describes the wait an instance is suspended on.
type NextScheduledStep struct {
	StepIndex    int       `json:"step_index"`
	StepName     string    `json:"step_name"`
	ScheduledFor time.Time `json:"scheduled_for"`
}

// WorkflowInstance is one execution of a template with its own cursor and log.
type WorkflowInstance struct {
	ID                string                `json:"id"`
	TemplateID        string                `json:"template_id"`
	TemplateName      string                `json:"template_name"`
	VehicleID         string                `json:"vehicle_id,omitempty"`
	OwnerID           string                `json:"owner_id,omitempty"`
	TriggerData       map[string]any        `json:"trigger_data,omitempty"`
	Status            InstanceStatus        `json:"status"`
	CurrentStep       int                   `json:"current_step"`
	TotalSteps        int                   `json:"total_steps"`
	StartedAt         time.Time             `json:"started_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
	CompletedAt       *time.Time            `json:"completed_at,omitempty"`
	ResumedAt         *time.Time            `json:"resumed_at,omitempty"`
	CancelledAt       *time.Time            `json:"cancelled_at,omitempty"`
	ExecutionLog      []StepExecutionRecord `json:"execution_log"`
	NextScheduledStep *NextScheduledStep    `json:"next_scheduled_step,omitempty"`
	Error             string                `json:"error,omitempty"`
}

// StepsCompleted counts the steps the cursor has moved past.
func (i *WorkflowInstance) StepsCompleted() int {
	return i.CurrentStep
}

// IsSuspended reports whether the instance is waiting on a wait step.
func (i *WorkflowInstance) IsSuspended() bool {
	return i.Status == InstanceStatusRunning && i.NextScheduledStep != nil
}

// IsDue reports whether a suspended instance may be resumed at now.
func (i *WorkflowInstance) IsDue(now time.Time) bool {
	return i.NextScheduledStep != nil && !i.NextScheduledStep.ScheduledFor.After(now)
}

func (i *WorkflowInstance) Clone() *WorkflowInstance {
	if i == nil {
		return nil
	}

	clone := *i
	clone.TriggerData = CloneMap(i.TriggerData)
	clone.CompletedAt = cloneTime(i.CompletedAt)
	clone.ResumedAt = cloneTime(i.ResumedAt)
	clone.CancelledAt = cloneTime(i.CancelledAt)

	if i.NextScheduledStep != nil {
		next := *i.NextScheduledStep
		clone.NextScheduledStep = &next
	}

	if i.ExecutionLog != nil {
		clone.ExecutionLog = make([]StepExecutionRecord, len(i.ExecutionLog))
		for idx, record := range i.ExecutionLog {
			record.Output = CloneMap(record.Output)
			clone.ExecutionLog[idx] = record
		}
	}

	return &clone
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	v := *t

	return &v
}

// ExecutionResult is what a trigger or resume call returns to its caller.
type ExecutionResult struct {
	InstanceID        string                `json:"instance_id"`
	TemplateID        string                `json:"template_id"`
	Status            InstanceStatus        `json:"status"`
	StepsCompleted    int                   `json:"steps_completed"`
	TotalSteps        int                   `json:"total_steps"`
	ExecutionLog      []StepExecutionRecord `json:"execution_log"`
	NextScheduledStep *NextScheduledStep    `json:"next_scheduled_step"`
}

func NewExecutionResult(instance *WorkflowInstance) *ExecutionResult {
	snapshot := instance.Clone()

	log := snapshot.ExecutionLog
	if log == nil {
		log = []StepExecutionRecord{}
	}

	return &ExecutionResult{
		InstanceID:        snapshot.ID,
		TemplateID:        snapshot.TemplateID,
		Status:            snapshot.Status,
		StepsCompleted:    snapshot.StepsCompleted(),
		TotalSteps:        snapshot.TotalSteps,
		ExecutionLog:      log,
		NextScheduledStep: snapshot.NextScheduledStep,
	}
}
