package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrJobNotFound is returned when a job id is unknown or was pruned
	ErrJobNotFound = errors.New("job not found")

	// ErrInvalidTransition is returned when a status change would move a job backwards
	ErrInvalidTransition = errors.New("invalid job status transition")

	// ErrEmptyOutput is returned when the generator produced nothing usable
	ErrEmptyOutput = errors.New("empty output")
)

// InvalidRequestError is a submission that failed validation; no job is created
type InvalidRequestError struct {
	Field   string
	Message string
}

func (e *InvalidRequestError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s is required", e.Field)
}

// NewInvalidRequest creates an InvalidRequestError for a field
func NewInvalidRequest(field, format string, args ...any) error {
	return &InvalidRequestError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError means a resource the request depends on does not exist
type NotFoundError struct {
	Resource string
	Path     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Path)
}
