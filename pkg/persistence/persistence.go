// Package persistence provides the storage abstraction for workflow instances.
package persistence

import (
	"context"
	"slices"
	"strings"

	"github.com/tirs/Automotive-database-demo/pkg/models"
)

// InstanceStore owns workflow instances once they are created. Implementations
// upsert by id, serialize writes to the same id and never hand out shared
// references to stored instances.
type InstanceStore interface {
	SaveInstance(ctx context.Context, instance *models.WorkflowInstance) error
	InstanceByID(ctx context.Context, id string) (*models.WorkflowInstance, error)
	Instances(ctx context.Context, opts ListInstancesOptions) ([]*models.WorkflowInstance, error)
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

// ListInstancesOptions filters instance listings. Zero values mean "no filter".
type ListInstancesOptions struct {
	Status     *models.InstanceStatus
	TemplateID string
	VehicleID  string
}

// Matches reports whether instance passes every filter set on opts.
func (o ListInstancesOptions) Matches(instance *models.WorkflowInstance) bool {
	if o.Status != nil && instance.Status != *o.Status {
		return false
	}

	if o.TemplateID != "" && instance.TemplateID != o.TemplateID {
		return false
	}

	if o.VehicleID != "" && instance.VehicleID != o.VehicleID {
		return false
	}

	return true
}

// SortInstances orders instances by start time, then id, so listings are
// stable for a given snapshot regardless of backend.
func SortInstances(instances []*models.WorkflowInstance) {
	slices.SortStableFunc(instances, func(a, b *models.WorkflowInstance) int {
		if c := a.StartedAt.Compare(b.StartedAt); c != 0 {
			return c
		}

		return strings.Compare(a.ID, b.ID)
	})
}
