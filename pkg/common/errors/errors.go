package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common sentinel errors
var (
	ErrInvalidInput = errors.New("invalid input")

	// ErrModel marks a failed call to the text-generation service, including timeouts.
	ErrModel = errors.New("model request failed")
	// ErrExecution marks generated SQL the database refused to run.
	ErrExecution = errors.New("sql execution failed")
)

// AppError represents an application-specific error with an HTTP status code.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Model wraps err as a transient model-service failure.
func Model(err error) error {
	return fmt.Errorf("%w: %w", ErrModel, err)
}

// Execution wraps err as a transient SQL execution failure.
func Execution(err error) error {
	return fmt.Errorf("%w: %w", ErrExecution, err)
}

// IsTransient reports whether err ends only the current turn.
func IsTransient(err error) bool {
	return errors.Is(err, ErrModel) || errors.Is(err, ErrExecution)
}

// MapError maps a common error to an AppError with an appropriate HTTP status code.
func MapError(err error) *AppError {
	if err == nil {
		return nil
	}

	// Check for existing AppError
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	// Map sentinel errors
	if errors.Is(err, ErrInvalidInput) {
		return NewAppError(http.StatusBadRequest, "Invalid request", err)
	}
	if errors.Is(err, ErrModel) {
		return NewAppError(http.StatusBadGateway, "Model request failed", err)
	}
	if errors.Is(err, ErrExecution) {
		return NewAppError(http.StatusUnprocessableEntity, "Generated SQL failed", err)
	}

	// Default to internal server error
	return NewAppError(http.StatusInternalServerError, "Internal server error", err)
}
