// Package memory provides an in-process instance store.
package memory

import (
	"context"
	"sync"

	"github.com/tirs/Automotive-database-demo/pkg/models"
	"github.com/tirs/Automotive-database-demo/pkg/persistence"
)

// Persistence keeps instances in a map guarded by a read/write mutex.
type Persistence struct {
	mu        sync.RWMutex
	instances map[string]*models.WorkflowInstance
}

func NewPersistence() *Persistence {
	return &Persistence{instances: make(map[string]*models.WorkflowInstance)}
}

func (p *Persistence) SaveInstance(_ context.Context, instance *models.WorkflowInstance) error {
	if instance == nil {
		return persistence.NewInstanceError("SaveInstance", "", persistence.ErrNilInstance)
	}

	if err := persistence.ValidateInstanceID(instance.ID); err != nil {
		return persistence.NewInstanceError("SaveInstance", instance.ID, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.instances[instance.ID] = instance.Clone()

	return nil
}

func (p *Persistence) InstanceByID(_ context.Context, id string) (*models.WorkflowInstance, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	instance, ok := p.instances[id]
	if !ok {
		return nil, persistence.NewInstanceError("InstanceByID", id, persistence.ErrInstanceNotFound)
	}

	return instance.Clone(), nil
}

func (p *Persistence) Instances(_ context.Context, opts persistence.ListInstancesOptions) ([]*models.WorkflowInstance, error) {
	p.mu.RLock()

	result := make([]*models.WorkflowInstance, 0, len(p.instances))
	for _, instance := range p.instances {
		if opts.Matches(instance) {
			result = append(result, instance.Clone())
		}
	}

	p.mu.RUnlock()

	persistence.SortInstances(result)

	return result, nil
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}
