// Package catalog holds the read-only set of workflow templates available for triggering.
package catalog

import (
	"errors"
	"fmt"

	"github.com/tirs/Automotive-database-demo/pkg/models"
)

var (
	ErrTemplateNotFound  = errors.New("workflow template not found")
	ErrDuplicateTemplate = errors.New("duplicate workflow template id")
)

// Catalog is seeded once and never mutated afterwards, so it needs no locking.
// Every read returns a copy.
type Catalog struct {
	templates []*models.WorkflowTemplate
	byID      map[string]*models.WorkflowTemplate
}

// New builds a catalog keeping the given order. Template ids must be unique.
func New(templates ...*models.WorkflowTemplate) (*Catalog, error) {
	c := &Catalog{
		templates: make([]*models.WorkflowTemplate, 0, len(templates)),
		byID:      make(map[string]*models.WorkflowTemplate, len(templates)),
	}

	for _, template := range templates {
		if template == nil {
			continue
		}

		if _, exists := c.byID[template.ID]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTemplate, template.ID)
		}

		stored := template.Clone()
		c.templates = append(c.templates, stored)
		c.byID[stored.ID] = stored
	}

	return c, nil
}

// NewDefault returns a catalog holding only the built-in templates.
func NewDefault() *Catalog {
	c, err := New(DefaultTemplates()...)
	if err != nil {
		panic(err)
	}

	return c
}

// ListTemplates returns all templates in insertion order.
func (c *Catalog) ListTemplates() []*models.WorkflowTemplate {
	templates := make([]*models.WorkflowTemplate, len(c.templates))
	for i, template := range c.templates {
		templates[i] = template.Clone()
	}

	return templates
}

func (c *Catalog) GetTemplate(id string) (*models.WorkflowTemplate, error) {
	template, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}

	return template.Clone(), nil
}

func (c *Catalog) Len() int {
	return len(c.templates)
}
