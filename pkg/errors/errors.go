package errors

import (
	"errors"
	"fmt"
)

// Common sentinel errors for quick checks
var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when authentication fails or is missing.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller lacks permission for an action.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidInput is returned when request input is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("operation timeout")

	// ErrNotInitialized is returned when the contract client has no usable
	// contract handle.
	ErrNotInitialized = errors.New("contract client not initialized")

	// ErrTooManyRequests is returned when the rate limit is exceeded.
	ErrTooManyRequests = errors.New("too many requests")
)

// Error is the base interface for all typed errors in the system.
// It extends the standard error interface with a stable code.
type Error interface {
	error
	// Code returns the error code
	Code() string
	// Message returns the human-readable error message
	Message() string
	// Unwrap returns the underlying cause
	Unwrap() error
}

// BaseError provides a foundation for all typed errors.
type BaseError struct {
	code    string
	message string
	cause   error
}

// Error implements the error interface.
func (e *BaseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Code returns the error code.
func (e *BaseError) Code() string {
	return e.code
}

// Message returns the error message.
func (e *BaseError) Message() string {
	return e.message
}

// Unwrap returns the underlying cause.
func (e *BaseError) Unwrap() error {
	return e.cause
}

// ValidationError represents an input validation error.
type ValidationError struct {
	*BaseError
	Field string
	Value interface{}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		BaseError: &BaseError{
			code:    CodeValidation,
			message: message,
		},
		Field: field,
		Value: value,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.message)
	}
	return fmt.Sprintf("validation error: %s", e.message)
}

// NotFoundError represents a resource not found error.
type NotFoundError struct {
	*BaseError
	Resource string
	ID       string
}

// NewNotFoundError creates a new not found error.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{
		BaseError: &BaseError{
			code:    CodeNotFound,
			message: fmt.Sprintf("%s not found", resource),
		},
		Resource: resource,
		ID:       id,
	}
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// UnauthorizedError represents an authentication error.
type UnauthorizedError struct {
	*BaseError
}

// NewUnauthorizedError creates a new unauthorized error.
func NewUnauthorizedError(message string) *UnauthorizedError {
	if message == "" {
		message = "authentication required"
	}
	return &UnauthorizedError{
		BaseError: &BaseError{
			code:    CodeUnauthorized,
			message: message,
		},
	}
}

// AddressLoadError indicates the deployment address record was missing,
// unreadable, or structurally invalid. There is no partial mode: the contract
// client cannot initialize without it.
type AddressLoadError struct {
	*BaseError
	Path string
}

// NewAddressLoadError creates a new address load error.
func NewAddressLoadError(path string, cause error) *AddressLoadError {
	return &AddressLoadError{
		BaseError: &BaseError{
			code:    CodeAddressLoad,
			message: fmt.Sprintf("failed to load contract addresses from %s", path),
			cause:   cause,
		},
		Path: path,
	}
}

// NotInitializedError indicates the contract client was used before
// initialization completed or after it failed. Callers may retry after
// backoff; the condition clears only if a later initialization succeeds.
type NotInitializedError struct {
	*BaseError
}

// NewNotInitializedError creates a new not-initialized error.
func NewNotInitializedError(cause error) *NotInitializedError {
	return &NotInitializedError{
		BaseError: &BaseError{
			code:    CodeNotInitialized,
			message: "contract client not initialized",
			cause:   cause,
		},
	}
}

// SubmissionReason classifies why a state-changing chain call failed.
type SubmissionReason string

const (
	// ReasonRejected means the provider or contract rejected the call:
	// execution reverted, insufficient funds, nonce conflict. The caller must
	// change something before retrying.
	ReasonRejected SubmissionReason = "rejected"

	// ReasonUnavailable means the provider could not be reached or did not
	// answer in time. Retryable as-is.
	ReasonUnavailable SubmissionReason = "unavailable"
)

// SubmissionError represents a failed state-changing chain call.
type SubmissionError struct {
	*BaseError
	Op     string
	Reason SubmissionReason
}

// NewSubmissionError creates a new submission error for the named operation.
func NewSubmissionError(op string, reason SubmissionReason, cause error) *SubmissionError {
	code := CodeSubmissionRejected
	if reason == ReasonUnavailable {
		code = CodeProviderUnavailable
	}
	return &SubmissionError{
		BaseError: &BaseError{
			code:    code,
			message: fmt.Sprintf("%s submission failed", op),
			cause:   cause,
		},
		Op:     op,
		Reason: reason,
	}
}

// TimeoutError represents an operation deadline being exceeded.
type TimeoutError struct {
	*BaseError
	Op string
}

// NewTimeoutError creates a new timeout error.
func NewTimeoutError(op string, cause error) *TimeoutError {
	return &TimeoutError{
		BaseError: &BaseError{
			code:    CodeTimeout,
			message: fmt.Sprintf("%s timed out", op),
			cause:   cause,
		},
		Op: op,
	}
}

// ConfigError represents invalid or missing configuration.
type ConfigError struct {
	*BaseError
	Key string
}

// NewConfigError creates a new configuration error.
func NewConfigError(key, message string) *ConfigError {
	return &ConfigError{
		BaseError: &BaseError{
			code:    CodeConfig,
			message: message,
		},
		Key: key,
	}
}

// InternalError represents an unexpected internal failure.
type InternalError struct {
	*BaseError
}

// NewInternalError creates a new internal error.
func NewInternalError(message string, cause error) *InternalError {
	if message == "" {
		message = "internal error"
	}
	return &InternalError{
		BaseError: &BaseError{
			code:    CodeInternal,
			message: message,
			cause:   cause,
		},
	}
}
