package models

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"gopkg.in/yaml.v3"
)

type StepType string

const (
	StepTypeSendEmail          StepType = "send_email"
	StepTypeSendSMS            StepType = "send_sms"
	StepTypeWait               StepType = "wait"
	StepTypeCondition          StepType = "condition"
	StepTypeCreateNotification StepType = "create_notification"
	StepTypeEnrichData         StepType = "enrich_data"
	StepTypeCheckRecalls       StepType = "check_recalls"
	StepTypeGenerateValuation  StepType = "generate_valuation"
)

// StepKind is the typed configuration of a single step. Every step type
// has its own variant; GenericStep carries anything the engine does not know.
type StepKind interface {
	Type() StepType
	Config() map[string]any
}

// WorkflowStep is one position in a template. Its index is its identity.
type WorkflowStep struct {
	Name string   `validate:"omitempty,max=255"`
	Kind StepKind `validate:"required"`
}

// NewWorkflowStep builds a step from its wire form. It never fails: unknown
// step types become GenericStep and malformed wait configs keep a ConfigError.
func NewWorkflowStep(name string, stepType StepType, config map[string]any) WorkflowStep {
	return WorkflowStep{Name: name, Kind: DecodeStepKind(stepType, config)}
}

func (s WorkflowStep) Type() StepType {
	if s.Kind == nil {
		return ""
	}

	return s.Kind.Type()
}

// DisplayName returns the step name, or "Step N" (1-based) when unnamed.
func (s WorkflowStep) DisplayName(index int) string {
	if s.Name != "" {
		return s.Name
	}

	return fmt.Sprintf("Step %d", index+1)
}

func (s WorkflowStep) Clone() WorkflowStep {
	switch kind := s.Kind.(type) {
	case GenericStep:
		kind.Raw = CloneMap(kind.Raw)
		s.Kind = kind
	case ConditionStep:
		if kind.Threshold != nil {
			threshold := *kind.Threshold
			kind.Threshold = &threshold
		}

		s.Kind = kind
	}

	return s
}

type stepDocument struct {
	StepType StepType       `json:"step_type"      yaml:"step_type"`
	Config   map[string]any `json:"config"         yaml:"config"`
	Name     string         `json:"name,omitempty" yaml:"name,omitempty"`
}

func (s WorkflowStep) document() stepDocument {
	config := map[string]any{}
	if s.Kind != nil {
		config = s.Kind.Config()
	}

	return stepDocument{StepType: s.Type(), Config: config, Name: s.Name}
}

func (s WorkflowStep) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.document())
}

func (s *WorkflowStep) UnmarshalJSON(data []byte) error {
	var doc stepDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	if doc.StepType == "" {
		return ErrStepTypeRequired
	}

	*s = NewWorkflowStep(doc.Name, doc.StepType, doc.Config)

	return nil
}

func (s WorkflowStep) MarshalYAML() (any, error) {
	return s.document(), nil
}

func (s *WorkflowStep) UnmarshalYAML(value *yaml.Node) error {
	var doc stepDocument
	if err := value.Decode(&doc); err != nil {
		return err
	}

	if doc.StepType == "" {
		return ErrStepTypeRequired
	}

	*s = NewWorkflowStep(doc.Name, doc.StepType, doc.Config)

	return nil
}

// DecodeStepKind maps a step type and its raw config to a typed variant.
func DecodeStepKind(stepType StepType, config map[string]any) StepKind {
	switch stepType {
	case StepTypeWait:
		return decodeWait(config)
	case StepTypeSendEmail:
		return SendEmailStep{
			Template: stringValue(config, "template"),
			Subject:  stringValue(config, "subject"),
		}
	case StepTypeSendSMS:
		return SendSMSStep{Template: stringValue(config, "template")}
	case StepTypeCreateNotification:
		return CreateNotificationStep{
			NotificationType: stringValue(config, "type"),
			Priority:         stringValue(config, "priority"),
		}
	case StepTypeCondition:
		step := ConditionStep{
			Check:   stringValue(config, "check"),
			IfTrue:  stringValue(config, "if_true"),
			IfFalse: stringValue(config, "if_false"),
		}

		if threshold, ok := NumberValue(config["threshold"]); ok {
			step.Threshold = &threshold
		}

		return step
	case StepTypeEnrichData:
		return EnrichDataStep{Action: stringValue(config, "action")}
	case StepTypeCheckRecalls:
		return CheckRecallsStep{}
	case StepTypeGenerateValuation:
		return GenerateValuationStep{Condition: stringValue(config, "condition")}
	default:
		return GenericStep{StepType: stepType, Raw: CloneMap(config)}
	}
}

// MaxWaitHours bounds the combined duration of a wait step.
const MaxWaitHours = 100 * 365 * 24

// WaitStep suspends the instance until Hours + Days have elapsed.
// ConfigError is set when neither duration key is usable or the total
// exceeds MaxWaitHours.
type WaitStep struct {
	Hours       float64
	Days        float64
	ConfigError string
}

func decodeWait(config map[string]any) WaitStep {
	var step WaitStep

	hoursRaw, hasHours := config["hours"]
	daysRaw, hasDays := config["days"]

	if !hasHours && !hasDays {
		return WaitStep{ConfigError: "wait step requires hours or days"}
	}

	if hasHours {
		hours, ok := waitValue(hoursRaw)
		if !ok {
			return WaitStep{ConfigError: fmt.Sprintf("invalid wait hours: %v", hoursRaw)}
		}

		step.Hours = hours
	}

	if hasDays {
		days, ok := waitValue(daysRaw)
		if !ok {
			return WaitStep{ConfigError: fmt.Sprintf("invalid wait days: %v", daysRaw)}
		}

		step.Days = days
	}

	if step.Hours+step.Days*24 > MaxWaitHours {
		return WaitStep{ConfigError: fmt.Sprintf("wait duration exceeds %d hours", MaxWaitHours)}
	}

	return step
}

func waitValue(raw any) (float64, bool) {
	value, ok := NumberValue(raw)
	if !ok || math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0, false
	}

	return value, true
}

func (w WaitStep) Type() StepType { return StepTypeWait }

func (w WaitStep) Config() map[string]any {
	config := map[string]any{}
	if w.ConfigError != "" {
		return config
	}

	if w.Hours != 0 || w.Days == 0 {
		config["hours"] = w.Hours
	}

	if w.Days != 0 {
		config["days"] = w.Days
	}

	return config
}

func (w WaitStep) Duration() time.Duration {
	return time.Duration(w.Hours*float64(time.Hour)) + time.Duration(w.Days*24*float64(time.Hour))
}

type SendEmailStep struct {
	Template string
	Subject  string
}

func (s SendEmailStep) Type() StepType { return StepTypeSendEmail }

func (s SendEmailStep) Config() map[string]any {
	config := map[string]any{"template": s.Template}
	if s.Subject != "" {
		config["subject"] = s.Subject
	}

	return config
}

type SendSMSStep struct {
	Template string
}

func (s SendSMSStep) Type() StepType { return StepTypeSendSMS }

func (s SendSMSStep) Config() map[string]any {
	return map[string]any{"template": s.Template}
}

type CreateNotificationStep struct {
	NotificationType string
	Priority         string
}

func (s CreateNotificationStep) Type() StepType { return StepTypeCreateNotification }

func (s CreateNotificationStep) Config() map[string]any {
	config := map[string]any{"type": s.NotificationType}
	if s.Priority != "" {
		config["priority"] = s.Priority
	}

	return config
}

// ConditionStep evaluates a named check. The result is recorded only;
// IfTrue and IfFalse are carried for display and do not redirect execution.
type ConditionStep struct {
	Check     string
	Threshold *float64
	IfTrue    string
	IfFalse   string
}

func (s ConditionStep) Type() StepType { return StepTypeCondition }

func (s ConditionStep) Config() map[string]any {
	config := map[string]any{"check": s.Check}
	if s.Threshold != nil {
		config["threshold"] = *s.Threshold
	}

	if s.IfTrue != "" {
		config["if_true"] = s.IfTrue
	}

	if s.IfFalse != "" {
		config["if_false"] = s.IfFalse
	}

	return config
}

type EnrichDataStep struct {
	Action string
}

func (s EnrichDataStep) Type() StepType { return StepTypeEnrichData }

func (s EnrichDataStep) Config() map[string]any {
	return map[string]any{"action": s.Action}
}

type CheckRecallsStep struct{}

func (s CheckRecallsStep) Type() StepType { return StepTypeCheckRecalls }

func (s CheckRecallsStep) Config() map[string]any { return map[string]any{} }

// GenerateValuationStep values the vehicle; Condition defaults to "good".
type GenerateValuationStep struct {
	Condition string
}

func (s GenerateValuationStep) Type() StepType { return StepTypeGenerateValuation }

func (s GenerateValuationStep) Config() map[string]any {
	config := map[string]any{}
	if s.Condition != "" {
		config["condition"] = s.Condition
	}

	return config
}

// GenericStep is any step type without a dedicated variant.
// It always completes with a minimal success payload.
type GenericStep struct {
	StepType StepType
	Raw      map[string]any
}

func (s GenericStep) Type() StepType { return s.StepType }

func (s GenericStep) Config() map[string]any {
	if s.Raw == nil {
		return map[string]any{}
	}

	return CloneMap(s.Raw)
}
