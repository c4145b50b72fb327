// Package file provides file-based persistence for workflow instances.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tirs/Automotive-database-demo/pkg/models"
	"github.com/tirs/Automotive-database-demo/pkg/persistence"
)

const instancesDir = "instances"

// Persistence stores each instance as <root>/instances/<id>.json.
type Persistence struct {
	root string
	mu   sync.RWMutex
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) *Persistence {
	return &Persistence{root: strings.Replace(root, "file://", "", 1)}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) instancePath(id string) string {
	return filepath.Join(fp.root, instancesDir, id+".json")
}

// SaveInstance writes the instance to a temp file and renames it into place.
func (fp *Persistence) SaveInstance(_ context.Context, instance *models.WorkflowInstance) error {
	if instance == nil {
		return persistence.NewInstanceError("SaveInstance", "", persistence.ErrNilInstance)
	}

	if err := persistence.ValidateInstanceID(instance.ID); err != nil {
		return persistence.NewInstanceError("SaveInstance", instance.ID, err)
	}

	data, err := json.Marshal(instance)
	if err != nil {
		return fmt.Errorf("failed to marshal instance %s: %w", instance.ID, err)
	}

	fp.mu.Lock()
	defer fp.mu.Unlock()

	dir := filepath.Join(fp.root, instancesDir)

	err = os.MkdirAll(dir, 0750)
	if err != nil {
		return fmt.Errorf("failed to create instances directory: %w", err)
	}

	tmp := fp.instancePath(instance.ID) + ".tmp"

	err = os.WriteFile(tmp, data, 0600)
	if err != nil {
		return fmt.Errorf("failed to write instance %s: %w", instance.ID, err)
	}

	err = os.Rename(tmp, fp.instancePath(instance.ID))
	if err != nil {
		return fmt.Errorf("failed to commit instance %s: %w", instance.ID, err)
	}

	return nil
}

func (fp *Persistence) InstanceByID(_ context.Context, id string) (*models.WorkflowInstance, error) {
	if err := persistence.ValidateInstanceID(id); err != nil {
		return nil, persistence.NewInstanceError("InstanceByID", id, persistence.ErrInstanceNotFound)
	}

	fp.mu.RLock()
	defer fp.mu.RUnlock()

	return fp.read(id)
}

func (fp *Persistence) read(id string) (*models.WorkflowInstance, error) {
	data, err := os.ReadFile(fp.instancePath(id)) // #nosec G304 -- id is validated before use
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, persistence.NewInstanceError("InstanceByID", id, persistence.ErrInstanceNotFound)
		}

		return nil, fmt.Errorf("failed to read instance %s: %w", id, err)
	}

	var instance models.WorkflowInstance

	err = json.Unmarshal(data, &instance)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal instance %s: %w", id, err)
	}

	return &instance, nil
}

func (fp *Persistence) Instances(_ context.Context, opts persistence.ListInstancesOptions) ([]*models.WorkflowInstance, error) {
	fp.mu.RLock()
	defer fp.mu.RUnlock()

	entries, err := os.ReadDir(filepath.Join(fp.root, instancesDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*models.WorkflowInstance{}, nil
		}

		return nil, fmt.Errorf("failed to read instances directory: %w", err)
	}

	instances := make([]*models.WorkflowInstance, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		instance, err := fp.read(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			// Skip unreadable files
			continue
		}

		if opts.Matches(instance) {
			instances = append(instances, instance)
		}
	}

	persistence.SortInstances(instances)

	return instances, nil
}
