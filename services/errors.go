package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeUnsupportedProvider ErrorType = "unsupported_provider"
	ErrorTypeNotConfigured       ErrorType = "not_configured"
	ErrorTypeNotFound            ErrorType = "not_found"
	ErrorTypeValidation          ErrorType = "validation"
	ErrorTypeUnauthorized        ErrorType = "unauthorized"
	ErrorTypeInternal            ErrorType = "internal"
	ErrorTypeExternal            ErrorType = "external"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables. Compare with errors.Is; matching is by type.

var (
	ErrUnsupportedProvider   = NewDomainError(ErrorTypeUnsupportedProvider, "unsupported LLM provider", nil)
	ErrProviderNotConfigured = NewDomainError(ErrorTypeNotConfigured, "LLM provider not configured", nil)

	ErrUnauthorized = NewDomainError(ErrorTypeUnauthorized, "unauthorized", nil)

	ErrRequestLogDisabled = NewDomainError(ErrorTypeNotFound, "request log is not enabled", nil)

	ErrInternal = NewDomainError(ErrorTypeInternal, "internal server error", nil)
)

// UnsupportedProvider builds the error returned for an unknown provider tag
func UnsupportedProvider(tag string) *DomainError {
	return NewDomainError(ErrorTypeUnsupportedProvider, fmt.Sprintf("unsupported LLM provider: %s", tag), nil).
		WithDetail("provider", tag)
}

// ProviderNotConfigured builds the error returned for a known provider without credentials
func ProviderNotConfigured(tag string) *DomainError {
	return NewDomainError(ErrorTypeNotConfigured, fmt.Sprintf("LLM provider not configured: %s", tag), nil).
		WithDetail("provider", tag)
}

// Error type checking helper functions

func hasType(err error, errType ErrorType) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == errType
	}
	return false
}

// IsUnsupportedProviderError checks if an error is an unsupported provider error
func IsUnsupportedProviderError(err error) bool {
	return hasType(err, ErrorTypeUnsupportedProvider)
}

// IsNotConfiguredError checks if an error is a provider-not-configured error
func IsNotConfiguredError(err error) bool {
	return hasType(err, ErrorTypeNotConfigured)
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return hasType(err, ErrorTypeNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return hasType(err, ErrorTypeValidation)
}

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool {
	return hasType(err, ErrorTypeUnauthorized)
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return hasType(err, ErrorTypeInternal)
}

// IsExternalError checks if an error is an external provider error
func IsExternalError(err error) bool {
	return hasType(err, ErrorTypeExternal)
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}
