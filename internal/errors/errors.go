package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a packlist error code.
type ErrorCode string

const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"     // 400
	ErrEmptyInput         ErrorCode = "EMPTY_INPUT"         // 400
	ErrDecodeFailure      ErrorCode = "DECODE_FAILURE"      // 400
	ErrNotFound           ErrorCode = "NOT_FOUND"           // 404
	ErrFileNotFound       ErrorCode = "FILE_NOT_FOUND"      // 404
	ErrConflict           ErrorCode = "CONFLICT"            // 409
	ErrImmutableTemplate  ErrorCode = "IMMUTABLE_TEMPLATE"  // 409
	ErrCancelled          ErrorCode = "CANCELLED"           // 499
	ErrInternal           ErrorCode = "INTERNAL"            // 500
	ErrWeatherUnavailable ErrorCode = "WEATHER_UNAVAILABLE" // 502
)

// PackError represents a structured error with code, status, and details.
type PackError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *PackError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *PackError {
	return &PackError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewEmptyInput creates a 400 error for a blank required field
// (custom item label, share city, template name).
func NewEmptyInput(field string) *PackError {
	return &PackError{
		Code:    ErrEmptyInput,
		Status:  400,
		Message: fmt.Sprintf("%s must not be empty", field),
		Details: map[string]any{"field": field},
	}
}

// NewDecodeFailure creates a 400 error for an undecodable share payload.
func NewDecodeFailure(msg string) *PackError {
	return &PackError{
		Code:    ErrDecodeFailure,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for an unknown item or template.
func NewNotFound(kind, identifier string) *PackError {
	return &PackError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *PackError {
	return &PackError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *PackError {
	return &PackError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewImmutableTemplate creates a 409 error when a built-in template would be modified.
func NewImmutableTemplate(id string) *PackError {
	return &PackError{
		Code:    ErrImmutableTemplate,
		Status:  409,
		Message: fmt.Sprintf("template %q is built in and cannot be modified", id),
		Details: map[string]any{"id": id},
	}
}

// NewCancelled creates a 499 error for a superseded or aborted operation.
// Callers treat it as a normal outcome and do not surface it to the user.
func NewCancelled(operation string) *PackError {
	return &PackError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", operation),
		Details: map[string]any{"operation": operation},
	}
}

// NewWeatherUnavailable creates a 502 error for geocode, forecast or network failures.
func NewWeatherUnavailable(city string, cause error) *PackError {
	msg := fmt.Sprintf("weather unavailable for %q", city)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return &PackError{
		Code:    ErrWeatherUnavailable,
		Status:  502,
		Message: msg,
		Details: map[string]any{"city": city},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message stays generic; the cause is kept in Details for logging.
func NewInternal(err error) *PackError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &PackError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// Is checks if an error is (or wraps) a PackError with the given code.
func Is(err error, code ErrorCode) bool {
	var pErr *PackError
	if stderrors.As(err, &pErr) {
		return pErr.Code == code
	}
	return false
}

// As is errors.As from the standard library.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}
