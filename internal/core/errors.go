package core

import (
	"fmt"
	"net/http"
)

// ErrorType represents the type of error that occurred
type ErrorType string

const (
	// ErrorTypeInvalidRequest indicates a malformed request body (400)
	ErrorTypeInvalidRequest ErrorType = "invalid_request_error"
	// ErrorTypeValidation indicates a well-formed body that fails validation (422)
	ErrorTypeValidation ErrorType = "validation_error"
	// ErrorTypeNotFound indicates an unknown route or record (404)
	ErrorTypeNotFound ErrorType = "not_found_error"
	// ErrorTypeStorage indicates the backing store failed (503)
	ErrorTypeStorage ErrorType = "storage_error"
	// ErrorTypeInternal indicates an unexpected server failure (500)
	ErrorTypeInternal ErrorType = "internal_error"
)

// APIError is the error type returned by the reference service handlers.
type APIError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code"`
	// Field names the offending request field for validation errors.
	Field string `json:"field,omitempty"`
	// Original error for debugging (not exposed to clients)
	Err error `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Type, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the error unwrapping interface
func (e *APIError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the appropriate HTTP status code for this error
func (e *APIError) HTTPStatusCode() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	switch e.Type {
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeValidation:
		return http.StatusUnprocessableEntity
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ToJSON converts the error to a JSON-compatible map
func (e *APIError) ToJSON() map[string]interface{} {
	body := map[string]interface{}{
		"type":    e.Type,
		"message": e.Message,
	}
	if e.Field != "" {
		body["field"] = e.Field
	}
	return map[string]interface{}{"error": body}
}

// NewInvalidRequestError creates an error for a body that could not be decoded (400)
func NewInvalidRequestError(message string, err error) *APIError {
	return &APIError{
		Type:       ErrorTypeInvalidRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Err:        err,
	}
}

// NewValidationError creates an error for a field that fails validation (422)
func NewValidationError(field, message string) *APIError {
	return &APIError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Field:      field,
	}
}

// NewNotFoundError creates a new not found error (404)
func NewNotFoundError(message string) *APIError {
	return &APIError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewStorageError wraps a store failure (503)
func NewStorageError(message string, err error) *APIError {
	return &APIError{
		Type:       ErrorTypeStorage,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
		Err:        err,
	}
}
