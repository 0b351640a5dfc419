package domain

import "fmt"

// ValidationError indicates a malformed or missing required field in caller
// input. It is never retried internally; the caller is expected to map it to
// a 400-class response identifying the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for the given field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
