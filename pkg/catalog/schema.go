package catalog

import (
	"fmt"
	"strings"

	"github.com/tirs/Automotive-database-demo/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

var priorityEnum = []any{"low", "medium", "high", "urgent"}

// stepConfigSchemas describes the config accepted for each known step type.
// Wait steps may omit both durations; the engine decides how to treat that.
var stepConfigSchemas = map[models.StepType]map[string]any{
	models.StepTypeWait: {
		"type": "object",
		"properties": map[string]any{
			"hours": map[string]any{"type": "number", "minimum": 0, "maximum": models.MaxWaitHours},
			"days":  map[string]any{"type": "number", "minimum": 0, "maximum": models.MaxWaitHours / 24},
		},
	},
	models.StepTypeSendEmail: {
		"type":     "object",
		"required": []any{"template"},
		"properties": map[string]any{
			"template": map[string]any{"type": "string", "minLength": 1},
			"subject":  map[string]any{"type": "string"},
		},
	},
	models.StepTypeSendSMS: {
		"type":     "object",
		"required": []any{"template"},
		"properties": map[string]any{
			"template": map[string]any{"type": "string", "minLength": 1},
		},
	},
	models.StepTypeCreateNotification: {
		"type":     "object",
		"required": []any{"type"},
		"properties": map[string]any{
			"type":     map[string]any{"type": "string", "minLength": 1},
			"priority": map[string]any{"type": "string", "enum": priorityEnum},
		},
	},
	models.StepTypeCondition: {
		"type":     "object",
		"required": []any{"check"},
		"properties": map[string]any{
			"check":     map[string]any{"type": "string", "minLength": 1},
			"threshold": map[string]any{"type": "number"},
			"if_true":   map[string]any{"type": "string"},
			"if_false":  map[string]any{"type": "string"},
		},
	},
	models.StepTypeEnrichData: {
		"type":     "object",
		"required": []any{"action"},
		"properties": map[string]any{
			"action": map[string]any{"type": "string", "minLength": 1},
		},
	},
	models.StepTypeCheckRecalls: {
		"type": "object",
	},
	models.StepTypeGenerateValuation: {
		"type": "object",
		"properties": map[string]any{
			"condition": map[string]any{"type": "string", "enum": []any{"excellent", "good", "fair", "poor"}},
		},
	},
}

// validateStepConfig checks config against the schema of its step type.
// Step types without a schema are accepted as they are.
func validateStepConfig(stepType models.StepType, config map[string]any) error {
	schema, ok := stepConfigSchemas[stepType]
	if !ok {
		return nil
	}

	if config == nil {
		config = map[string]any{}
	}

	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(config))
	if err != nil {
		return err
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, resultErr := range result.Errors() {
			messages = append(messages, resultErr.String())
		}

		return fmt.Errorf("%s config is invalid: %s", stepType, strings.Join(messages, "; "))
	}

	return nil
}
