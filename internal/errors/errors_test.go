package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{
		Field:   "text",
		Message: "must not be empty",
	}

	expected := "validation error on field 'text': must not be empty"
	if err.Error() != expected {
		t.Errorf("Expected %s, got %s", expected, err.Error())
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ValidationError to match ErrInvalidInput")
	}
}

func TestMultiError_Error(t *testing.T) {
	tests := []struct {
		name     string
		errors   []error
		expected string
	}{
		{
			name:     "No errors",
			errors:   []error{},
			expected: "no errors",
		},
		{
			name:     "Single error",
			errors:   []error{errors.New("first error")},
			expected: "first error",
		},
		{
			name:     "Multiple errors",
			errors:   []error{errors.New("first error"), errors.New("second error")},
			expected: "first error (and 1 more errors)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			multiErr := MultiError{Errors: tt.errors}
			result := multiErr.Error()
			if result != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, result)
			}
		})
	}
}

func TestMultiError_AddAndErrOrNil(t *testing.T) {
	multiErr := &MultiError{}

	multiErr.Add(nil)
	if multiErr.HasErrors() {
		t.Fatalf("Expected no errors after adding nil")
	}
	if multiErr.ErrOrNil() != nil {
		t.Fatalf("Expected ErrOrNil to be nil when empty")
	}

	multiErr.Add(ValidationError{Field: "latitude", Message: "out of range"})
	multiErr.Add(ValidationError{Field: "longitude", Message: "out of range"})
	if len(multiErr.Errors) != 2 {
		t.Fatalf("Expected 2 errors, got %d", len(multiErr.Errors))
	}

	err := multiErr.ErrOrNil()
	if err == nil {
		t.Fatalf("Expected error")
	}
	var ve ValidationError
	if !errors.As(err, &ve) || ve.Field != "latitude" {
		t.Errorf("Expected errors.As to find first validation error, got %+v", ve)
	}
}

func TestChannelError(t *testing.T) {
	err := ChannelError{Channel: "email", Err: ErrMissingCredentials}

	if err.Error() != "channel email: missing credentials" {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("Expected ChannelError to unwrap to ErrMissingCredentials")
	}

	wrapped := fmt.Errorf("dispatch: %w", err)
	var ce ChannelError
	if !errors.As(wrapped, &ce) || ce.Channel != "email" {
		t.Errorf("Expected errors.As to recover ChannelError")
	}
}

func TestLookupError(t *testing.T) {
	original := errors.New("connection refused")
	err := LookupError{Provider: "nominatim", Op: "search", Err: original}

	if err.Error() != "nominatim search: connection refused" {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if err.Unwrap() != original {
		t.Error("Expected Unwrap to return original error")
	}
}

func TestArtifactError(t *testing.T) {
	err := ArtifactError{Path: "artifacts/model.json", Err: ErrArtifactNotFound}
	if !errors.Is(err, ErrArtifactNotFound) {
		t.Errorf("Expected ArtifactError to unwrap")
	}
	if err.Error() != "artifact artifacts/model.json: classifier artifact not found" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestDatabaseError(t *testing.T) {
	originalErr := errors.New("connection failed")
	dbErr := DatabaseError{
		Operation: "query",
		Err:       originalErr,
	}

	expected := "database error during query: connection failed"
	if dbErr.Error() != expected {
		t.Errorf("Expected %s, got %s", expected, dbErr.Error())
	}
	if dbErr.Unwrap() != originalErr {
		t.Error("Expected Unwrap to return original error")
	}
}

func TestErrorConstants(t *testing.T) {
	errorConstants := []error{
		ErrNotFound,
		ErrInvalidInput,
		ErrMissingCredentials,
		ErrDeliveryFailed,
		ErrUnavailable,
		ErrTimeout,
		ErrArtifactNotFound,
	}

	for i, err := range errorConstants {
		if err == nil {
			t.Errorf("Error constant at index %d is nil", i)
		}
		if err.Error() == "" {
			t.Errorf("Error constant at index %d has empty message", i)
		}
	}
}
