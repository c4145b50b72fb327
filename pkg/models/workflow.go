// Package models defines the core domain models for automotive workflow automation
package models

// TriggerType describes what kind of external source fires a template.
// The engine never evaluates it; it is metadata for the trigger source.
type TriggerType string

const (
	TriggerTypeEvent     TriggerType = "event"
	TriggerTypeSchedule  TriggerType = "schedule"
	TriggerTypeCondition TriggerType = "condition"
	TriggerTypeManual    TriggerType = "manual"
)

// WorkflowTemplate is an immutable, ordered sequence of typed steps.
type WorkflowTemplate struct {
	ID            string         `json:"id"             yaml:"id"             validate:"required"`
	Name          string         `json:"name"           yaml:"name"           validate:"required,min=3"`
	Description   string         `json:"description"    yaml:"description"`
	Category      string         `json:"category"       yaml:"category"`
	TriggerType   TriggerType    `json:"trigger_type"   yaml:"trigger_type"   validate:"required,oneof=event schedule condition manual"`
	TriggerConfig map[string]any `json:"trigger_config" yaml:"trigger_config"`
	Steps         []WorkflowStep `json:"steps"          yaml:"steps"          validate:"required,min=1,dive"`
	IsActive      bool           `json:"is_active"      yaml:"is_active"`
}

// Clone returns a deep copy so catalog callers never share mutable state.
func (t *WorkflowTemplate) Clone() *WorkflowTemplate {
	if t == nil {
		return nil
	}

	clone := *t
	clone.TriggerConfig = CloneMap(t.TriggerConfig)

	clone.Steps = make([]WorkflowStep, len(t.Steps))
	for i, step := range t.Steps {
		clone.Steps[i] = step.Clone()
	}

	return &clone
}

// StepAt returns the step at index and whether it exists.
func (t *WorkflowTemplate) StepAt(index int) (WorkflowStep, bool) {
	if index < 0 || index >= len(t.Steps) {
		return WorkflowStep{}, false
	}

	return t.Steps[index], true
}
