// Package apperrors provides sentinel and custom error types for the application.
package apperrors

import "fmt"

// ErrNotFound represents a "not found" error.
// Use when a requested resource doesn't exist.
var ErrNotFound = &NotFoundError{}

// NotFoundError is a sentinel error for resources that are not found.
type NotFoundError struct {
	Resource string
	Message  string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Resource != "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return "resource not found"
}

// Is implements the error interface for error comparison.
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

// NewNotFoundError creates a new NotFoundError with a custom message.
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// ErrValidation represents a validation error.
// Use when client input fails validation.
var ErrValidation = &ValidationError{}

// ValidationError is a sentinel error for validation failures.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field: %s", e.Field)
	}
	return "validation error"
}

// Is implements the error interface for error comparison.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// NewValidationError creates a new ValidationError with a custom message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// ErrQueue represents a task queue publish failure.
// Use when a record was persisted but its resolve task could not be enqueued.
var ErrQueue = &QueueError{}

// QueueError is a sentinel error for task enqueue failures.
type QueueError struct {
	Err error
}

// Error implements the error interface.
func (e *QueueError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("job queue: %v", e.Err)
	}
	return "job queue error"
}

// Unwrap returns the underlying cause.
func (e *QueueError) Unwrap() error {
	return e.Err
}

// Is implements the error interface for error comparison.
func (e *QueueError) Is(target error) bool {
	_, ok := target.(*QueueError)
	return ok
}

// NewQueueError creates a new QueueError wrapping the cause.
func NewQueueError(err error) *QueueError {
	return &QueueError{Err: err}
}

// ErrUnavailable represents an external dependency failure.
// Use when a provider (embedding, completion) or broker call fails and the
// request can be retried later.
var ErrUnavailable = &UnavailableError{}

// UnavailableError is a sentinel error for unavailable external dependencies.
type UnavailableError struct {
	Service string
	Err     error
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	if e.Service != "" && e.Err != nil {
		return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
	}
	if e.Service != "" {
		return fmt.Sprintf("%s unavailable", e.Service)
	}
	return "service unavailable"
}

// Unwrap returns the underlying cause.
func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Is implements the error interface for error comparison.
func (e *UnavailableError) Is(target error) bool {
	_, ok := target.(*UnavailableError)
	return ok
}

// NewUnavailableError creates a new UnavailableError wrapping the cause.
func NewUnavailableError(service string, err error) *UnavailableError {
	return &UnavailableError{
		Service: service,
		Err:     err,
	}
}
