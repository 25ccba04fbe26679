package request

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyProcessed is returned when a decision targets a request that is no longer pending.
	ErrAlreadyProcessed = errors.New("request already processed")

	// ErrAlreadyPending is returned when a user already has a pending request.
	ErrAlreadyPending = errors.New("request already pending")

	// ErrValidation is matched by every ValidationError.
	ErrValidation = errors.New("validation failed")
)

// PendingError carries the id of the request blocking a new one.
type PendingError struct {
	UserID     string
	ExistingID string
}

func (e *PendingError) Error() string {
	if e.ExistingID == "" {
		return fmt.Sprintf("user %s already has a pending request", e.UserID)
	}
	return fmt.Sprintf("user %s already has pending request %s", e.UserID, e.ExistingID)
}

// Is makes errors.Is(err, ErrAlreadyPending) hold.
func (e *PendingError) Is(target error) bool {
	return target == ErrAlreadyPending
}

// ValidationError describes one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
