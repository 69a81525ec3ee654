package vapi

import (
	"errors"
	"fmt"
)

// Sentinel errors for the vapi package.
var (
	// ErrNotConfigured indicates the client has no token.
	ErrNotConfigured = errors.New("vapi: client is not configured")

	// ErrAlreadyStarted indicates a call is already connecting or active.
	ErrAlreadyStarted = errors.New("vapi: call already started")

	// ErrNotConnected indicates there is no active call.
	ErrNotConnected = errors.New("vapi: not connected")

	// ErrMissingAssistant indicates Start was called without an assistant.
	ErrMissingAssistant = errors.New("vapi: assistant is required")

	// ErrMissingTransportURL indicates the created call has no websocket URL.
	ErrMissingTransportURL = errors.New("vapi: call has no websocket transport URL")
)

// APIError represents an error response from the Vapi REST API.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the response body or error text.
	Message string

	// Retryable indicates if the request can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("vapi: API error (HTTP %d): %s", e.StatusCode, e.Message)
}

// NewAPIError creates a new APIError.
func NewAPIError(statusCode int, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Message:    message,
		Retryable:  statusCode == 429 || statusCode >= 500,
	}
}

// ConnectionError represents a failure to create, join or keep a call.
type ConnectionError struct {
	// Reason describes what failed.
	Reason string

	// Cause is the underlying error.
	Cause error

	// Retryable indicates if starting a new call may succeed.
	Retryable bool
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("vapi: connection error: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("vapi: connection error: %s", e.Reason)
}

// Unwrap returns the underlying cause.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// NewConnectionError creates a new ConnectionError.
func NewConnectionError(reason string, cause error, retryable bool) *ConnectionError {
	return &ConnectionError{
		Reason:    reason,
		Cause:     cause,
		Retryable: retryable,
	}
}

// IsRetryable returns true if the error can be retried.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable
	}
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return connErr.Retryable
	}
	return false
}
