package errors

import (
	"fmt"
)

// ErrorType classifies application errors raised outside request handling
type ErrorType string

const (
	ErrTypeConfig    ErrorType = "CONFIG"
	ErrTypeTelemetry ErrorType = "TELEMETRY"
	ErrTypeServer    ErrorType = "SERVER"
	ErrTypeParsing   ErrorType = "PARSING"
	ErrTypeExport    ErrorType = "EXPORT"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// NewTelemetryError creates a tracing or metrics setup error
func NewTelemetryError(message string, cause error) *AppError {
	return NewAppError(ErrTypeTelemetry, message, cause)
}

// NewServerError creates an HTTP server lifecycle error
func NewServerError(message string, cause error) *AppError {
	return NewAppError(ErrTypeServer, message, cause)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewExportError creates an export error
func NewExportError(message string, cause error) *AppError {
	return NewAppError(ErrTypeExport, message, cause)
}
