// FilePath: internal/errors/errors.go
package errors

import (
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Error types
	ErrorTypeTransport       ErrorType = "transport"
	ErrorTypeDecode          ErrorType = "decode"
	ErrorTypeValidation      ErrorType = "validation"
	ErrorTypeCacheWrite      ErrorType = "cache_write"
	ErrorTypeTimeseriesWrite ErrorType = "timeseries_write"
	ErrorTypeSchema          ErrorType = "schema"
	ErrorTypeConnExhausted   ErrorType = "connection_exhausted"
	ErrorTypeInternal        ErrorType = "internal"
)

// GatewayError represents a structured gateway error
type GatewayError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
	err     error     // Internal error for logging
}

// Error implements the error interface
func (e *GatewayError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the wrapped error to errors.Is/As chains
func (e *GatewayError) Unwrap() error {
	return e.err
}

// WithDetails adds additional details to the error
func (e *GatewayError) WithDetails(details any) *GatewayError {
	e.Details = details
	return e
}

// NewTransportError creates a new transport error
func NewTransportError(msg string, err error) *GatewayError {
	return &GatewayError{
		Type:    ErrorTypeTransport,
		Message: msg,
		err:     err,
	}
}

// NewDecodeError creates a new decode error
func NewDecodeError(msg string, err error) *GatewayError {
	return &GatewayError{
		Type:    ErrorTypeDecode,
		Message: msg,
		err:     err,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(msg string, err error) *GatewayError {
	return &GatewayError{
		Type:    ErrorTypeValidation,
		Message: msg,
		err:     err,
	}
}

// NewCacheWriteError creates a new cache write error
func NewCacheWriteError(msg string, err error) *GatewayError {
	return &GatewayError{
		Type:    ErrorTypeCacheWrite,
		Message: msg,
		err:     err,
	}
}

// NewTimeseriesWriteError creates a new time-series write error
func NewTimeseriesWriteError(msg string, err error) *GatewayError {
	return &GatewayError{
		Type:    ErrorTypeTimeseriesWrite,
		Message: msg,
		err:     err,
	}
}

// NewSchemaError creates a new schema verification error
func NewSchemaError(msg string, err error) *GatewayError {
	return &GatewayError{
		Type:    ErrorTypeSchema,
		Message: msg,
		err:     err,
	}
}

// NewConnExhaustedError creates a new connection-retry-exhausted error
func NewConnExhaustedError(msg string, err error) *GatewayError {
	return &GatewayError{
		Type:    ErrorTypeConnExhausted,
		Message: msg,
		err:     err,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(msg string, err error) *GatewayError {
	return &GatewayError{
		Type:    ErrorTypeInternal,
		Message: msg,
		err:     err,
	}
}

// IsDecode checks if an error is a Decode error
func IsDecode(err error) bool {
	if gwErr, ok := err.(*GatewayError); ok {
		return gwErr.Type == ErrorTypeDecode
	}
	return false
}

// IsValidation checks if an error is a Validation error
func IsValidation(err error) bool {
	if gwErr, ok := err.(*GatewayError); ok {
		return gwErr.Type == ErrorTypeValidation
	}
	return false
}

// IsSchema checks if an error is a Schema error
func IsSchema(err error) bool {
	if gwErr, ok := err.(*GatewayError); ok {
		return gwErr.Type == ErrorTypeSchema
	}
	return false
}

// IsConnExhausted checks if an error is a ConnectionExhausted error
func IsConnExhausted(err error) bool {
	if gwErr, ok := err.(*GatewayError); ok {
		return gwErr.Type == ErrorTypeConnExhausted
	}
	return false
}

// IsRecoverable reports whether an error may be skipped without
// terminating the ingestion loop.
func IsRecoverable(err error) bool {
	return IsDecode(err) || IsValidation(err)
}
