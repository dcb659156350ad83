package apperrors

import (
	"errors"
	"testing"
)

func TestAppErrorError(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		expected string
	}{
		{
			name: "With Code",
			appError: &AppError{
				Code:    "TEST_CODE",
				Message: "This is a test error",
			},
			expected: "[TEST_CODE] This is a test error",
		},
		{
			name: "Without Code",
			appError: &AppError{
				Message: "This is a test error without code",
			},
			expected: "This is a test error without code",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.appError.Error()
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestWrapDatabaseErrorMatchesSentinel(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapDatabaseError(cause, "query failed")

	if !errors.Is(err, ErrDatabase) {
		t.Errorf("expected wrapped error to match ErrDatabase")
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected wrapped error to match the underlying cause")
	}
}

func TestNewValidationErrorCarriesField(t *testing.T) {
	err := NewValidationError("tenure", "must be positive")

	if !errors.Is(err, ErrValidation) {
		t.Errorf("expected validation error to match ErrValidation")
	}

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected errors.As to find *ValidationError")
	}
	if ve.Field != "tenure" {
		t.Errorf("expected field 'tenure', got %q", ve.Field)
	}
}
