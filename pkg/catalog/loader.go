package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tirs/Automotive-database-demo/pkg/models"
	"gopkg.in/yaml.v3"
)

var ErrEmptyDefinition = errors.New("template definition is empty")

type stepDefinition struct {
	StepType models.StepType `yaml:"step_type"`
	Config   map[string]any  `yaml:"config"`
	Name     string          `yaml:"name"`
}

type templateDefinition struct {
	ID            string             `yaml:"id"`
	Name          string             `yaml:"name"`
	Description   string             `yaml:"description"`
	Category      string             `yaml:"category"`
	TriggerType   models.TriggerType `yaml:"trigger_type"`
	TriggerConfig map[string]any     `yaml:"trigger_config"`
	Steps         []stepDefinition   `yaml:"steps"`
	IsActive      *bool              `yaml:"is_active"`
}

// Loader parses YAML template definitions. Templates are active unless
// is_active is set to false.
type Loader struct {
	validate *validator.Validate
}

func NewLoader() *Loader {
	return &Loader{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// ParseTemplateYAML decodes and validates a single template definition.
func (l *Loader) ParseTemplateYAML(data []byte) (*models.WorkflowTemplate, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyDefinition
	}

	var def templateDefinition

	err := yaml.Unmarshal(data, &def)
	if err != nil {
		return nil, fmt.Errorf("decode template: %w", err)
	}

	template := &models.WorkflowTemplate{
		ID:            def.ID,
		Name:          def.Name,
		Description:   def.Description,
		Category:      def.Category,
		TriggerType:   def.TriggerType,
		TriggerConfig: def.TriggerConfig,
		Steps:         make([]models.WorkflowStep, 0, len(def.Steps)),
		IsActive:      def.IsActive == nil || *def.IsActive,
	}

	for i, step := range def.Steps {
		if step.StepType == "" {
			return nil, fmt.Errorf("step %d: %w", i, models.ErrStepTypeRequired)
		}

		err = validateStepConfig(step.StepType, step.Config)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}

		template.Steps = append(template.Steps, models.NewWorkflowStep(step.Name, step.StepType, step.Config))
	}

	err = l.validate.Struct(template)
	if err != nil {
		return nil, fmt.Errorf("invalid template %q: %w", def.ID, err)
	}

	return template, nil
}

func (l *Loader) LoadFile(path string) (*models.WorkflowTemplate, error) {
	content, err := os.ReadFile(path) // #nosec G304 -- path comes from the operator's templates directory
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	template, err := l.ParseTemplateYAML(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return template, nil
}

// LoadDir loads every .yaml/.yml file in dir, ordered by file name.
func (l *Loader) LoadDir(dir string) ([]*models.WorkflowTemplate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read templates directory: %w", err)
	}

	var names []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, entry.Name())
		}
	}

	slices.Sort(names)

	templates := make([]*models.WorkflowTemplate, 0, len(names))

	for _, name := range names {
		template, err := l.LoadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}

		templates = append(templates, template)
	}

	return templates, nil
}

// Load returns the built-in templates followed by any found in dir.
// An empty dir means built-ins only.
func Load(dir string) (*Catalog, error) {
	templates := DefaultTemplates()

	if dir != "" {
		extra, err := NewLoader().LoadDir(dir)
		if err != nil {
			return nil, err
		}

		templates = append(templates, extra...)
	}

	return New(templates...)
}
