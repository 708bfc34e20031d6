// Package apperror defines the error taxonomy services return and handlers
// translate to HTTP statuses: forbidden, not found, conflict, validation.
// Anything else is treated as an internal failure.
package apperror

import (
	"errors"
	"fmt"
)

var (
	// ErrForbidden means the authorization gate denied the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound covers both missing entities and entities outside the
	// caller's scope, so existence of out-of-scope resources never leaks.
	ErrNotFound = errors.New("not found")

	// ErrConflict means a uniqueness or state rule was violated.
	ErrConflict = errors.New("conflict")
)

// NotFound wraps ErrNotFound with the entity name.
func NotFound(entity string) error {
	return fmt.Errorf("%s %w", entity, ErrNotFound)
}

// Conflict wraps ErrConflict with a message.
func Conflict(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrConflict)
}

// ValidationError carries field-keyed messages collected across an entire
// request. Line-item fields use the "products.N.field" convention.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add appends a message for a field.
func (v *ValidationError) Add(field, message string) {
	v.Fields[field] = append(v.Fields[field], message)
}

// HasErrors reports whether anything was collected.
func (v *ValidationError) HasErrors() bool { return len(v.Fields) > 0 }

func (v *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(v.Fields))
}

// AsValidation extracts a *ValidationError from an error chain.
func AsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
