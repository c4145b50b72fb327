package workflow

import (
	"errors"
	"fmt"

	"github.com/tirs/Automotive-database-demo/pkg/catalog"
	"github.com/tirs/Automotive-database-demo/pkg/models"
	"github.com/tirs/Automotive-database-demo/pkg/persistence"
)

var (
	// ErrTemplateNotFound is returned for unknown and inactive templates.
	ErrTemplateNotFound = catalog.ErrTemplateNotFound

	// ErrInstanceNotFound is returned when an instance id is unknown to the store.
	ErrInstanceNotFound = persistence.ErrInstanceNotFound

	// Lifecycle conflicts (409 Conflict).
	ErrInvalidTransition = errors.New("invalid instance transition")
	ErrResumeNotDue      = errors.New("scheduled step is not due yet")
	ErrTemplateChanged   = errors.New("template no longer matches instance")
)

// TransitionError reports a lifecycle operation that the instance's current
// status does not allow.
type TransitionError struct {
	Op         string
	InstanceID string
	From       models.InstanceStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s instance %s in status %s", e.Op, e.InstanceID, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

func newTransitionError(op string, instance *models.WorkflowInstance) *TransitionError {
	return &TransitionError{Op: op, InstanceID: instance.ID, From: instance.Status}
}

// IsNotFound reports whether err means the template or instance does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTemplateNotFound) || errors.Is(err, ErrInstanceNotFound)
}

// IsConflict reports whether err is a lifecycle conflict that should map to HTTP 409.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrResumeNotDue) ||
		errors.Is(err, ErrTemplateChanged)
}
