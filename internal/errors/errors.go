package errors

import (
	"errors"
	"fmt"
)

// Application-specific errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrMissingCredentials = errors.New("missing credentials")
	ErrDeliveryFailed     = errors.New("delivery failed")
	ErrUnavailable        = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrArtifactNotFound   = errors.New("classifier artifact not found")
)

// Re-exported so callers need a single errors import
var (
	Is  = errors.Is
	As  = errors.As
	New = errors.New
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error `json:"errors"`
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", e.Errors[0].Error(), len(e.Errors)-1)
}

// Unwrap exposes the collected errors to errors.Is / errors.As
func (e MultiError) Unwrap() []error {
	return e.Errors
}

// Add adds an error to the MultiError
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (e *MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ErrOrNil returns the MultiError as an error, or nil when empty
func (e *MultiError) ErrOrNil() error {
	if e == nil || !e.HasErrors() {
		return nil
	}
	return *e
}

// ChannelError is a delivery failure on a single notification channel
type ChannelError struct {
	Channel string
	Err     error
}

func (e ChannelError) Error() string {
	return fmt.Sprintf("channel %s: %v", e.Channel, e.Err)
}

func (e ChannelError) Unwrap() error {
	return e.Err
}

// LookupError is a failed call to an external data provider
type LookupError struct {
	Provider string
	Op       string
	Err      error
}

func (e LookupError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e LookupError) Unwrap() error {
	return e.Err
}

// ArtifactError represents a classifier artifact that could not be read or written
type ArtifactError struct {
	Path string
	Err  error
}

func (e ArtifactError) Error() string {
	return fmt.Sprintf("artifact %s: %v", e.Path, e.Err)
}

func (e ArtifactError) Unwrap() error {
	return e.Err
}

// DatabaseError represents a database-related error
type DatabaseError struct {
	Operation string
	Err       error
}

func (e DatabaseError) Error() string {
	return fmt.Sprintf("database error during %s: %v", e.Operation, e.Err)
}

func (e DatabaseError) Unwrap() error {
	return e.Err
}
