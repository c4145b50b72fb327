// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrInstanceNotFound indicates an instance was not found by the given identifier.
	ErrInstanceNotFound = errors.New("instance not found")

	// ErrInvalidInstanceID indicates an identifier that cannot be stored safely.
	ErrInvalidInstanceID = errors.New("invalid instance id")

	// ErrNilInstance indicates a nil instance was passed to SaveInstance.
	ErrNilInstance = errors.New("instance cannot be nil")
)

// InstanceError wraps instance-related errors with additional context.
type InstanceError struct {
	Op         string // Operation being performed (e.g., "InstanceByID", "SaveInstance")
	InstanceID string
	Err        error
}

func (e *InstanceError) Error() string {
	return fmt.Sprintf("%s operation failed for instance %s: %v", e.Op, e.InstanceID, e.Err)
}

func (e *InstanceError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for instance errors.
func (e *InstanceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewInstanceError creates a new instance error with context.
func NewInstanceError(op, instanceID string, err error) *InstanceError {
	return &InstanceError{
		Op:         op,
		InstanceID: instanceID,
		Err:        err,
	}
}

// IsInstanceNotFound checks if an error indicates an instance was not found.
func IsInstanceNotFound(err error) bool {
	return errors.Is(err, ErrInstanceNotFound)
}

// ValidateInstanceID rejects ids that are empty or could escape a storage namespace.
func ValidateInstanceID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty", ErrInvalidInstanceID)
	}

	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidInstanceID, id)
		}
	}

	return nil
}
