// Package errors defines the structured error types used across the reactus
// build/serve core.
//
// Every failure that crosses a package boundary is a *ReactusError carrying
// an error class, a stable code, and the entry/operation it belongs to. The
// classes map directly onto the failure taxonomy of the orchestrator:
// entry canonicalization, external bundler resolution, template synthesis,
// missing build artifacts, and file-system writes.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies a ReactusError.
type ErrorType string

const (
	ErrorTypeInvalidEntry ErrorType = "invalid_entry"
	ErrorTypeResolution   ErrorType = "resolution"
	ErrorTypeSynthesis    ErrorType = "synthesis"
	ErrorTypeArtifact     ErrorType = "artifact"
	ErrorTypeWrite        ErrorType = "write"
	ErrorTypeConfig       ErrorType = "config"
	ErrorTypeInternal     ErrorType = "internal"
)

// ReactusError is a structured error with entry and operation context.
type ReactusError struct {
	Type        ErrorType
	Code        string
	Message     string
	Entry       string
	Op          string
	Cause       error
	Recoverable bool
}

// Error implements the error interface.
func (e *ReactusError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Op != "" {
		parts = append(parts, "op:"+e.Op)
	}

	if e.Entry != "" {
		parts = append(parts, "entry:"+e.Entry)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *ReactusError) Unwrap() error {
	return e.Cause
}

// Is matches on error class and code.
func (e *ReactusError) Is(target error) bool {
	var t *ReactusError
	if errors.As(target, &t) {
		return e.Type == t.Type && (t.Code == "" || e.Code == t.Code)
	}

	return false
}

// WithEntry attaches the canonical entry the error belongs to.
func (e *ReactusError) WithEntry(entry string) *ReactusError {
	e.Entry = entry

	return e
}

// WithOp attaches the operation that failed.
func (e *ReactusError) WithOp(op string) *ReactusError {
	e.Op = op

	return e
}

// Error creation functions

// NewInvalidEntry reports an entry that failed canonicalization.
func NewInvalidEntry(code, message string) *ReactusError {
	return &ReactusError{
		Type:        ErrorTypeInvalidEntry,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewResolutionFailure reports an external bundler resolve/transform failure.
func NewResolutionFailure(code, message string, cause error) *ReactusError {
	return &ReactusError{
		Type:        ErrorTypeResolution,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewSynthesisFailure reports an unfillable template placeholder. This is a
// programming-error class: well-formed templates never trigger it.
func NewSynthesisFailure(code, message string) *ReactusError {
	return &ReactusError{
		Type:        ErrorTypeSynthesis,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewArtifactMissing reports an expected chunk or asset absent from build output.
func NewArtifactMissing(code, message string) *ReactusError {
	return &ReactusError{
		Type:        ErrorTypeArtifact,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewWriteFailure wraps a file-system write error, propagated unchanged.
func NewWriteFailure(code, message string, cause error) *ReactusError {
	return &ReactusError{
		Type:        ErrorTypeWrite,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewConfigError reports an invalid configuration value.
func NewConfigError(code, message string) *ReactusError {
	return &ReactusError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewInternalError reports a defect in the orchestrator itself.
func NewInternalError(code, message string, cause error) *ReactusError {
	return &ReactusError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// Type predicates

// IsType reports whether err is a ReactusError of the given class.
func IsType(err error, errorType ErrorType) bool {
	var re *ReactusError
	if errors.As(err, &re) {
		return re.Type == errorType
	}

	return false
}

// IsInvalidEntry reports whether err is an entry canonicalization failure.
func IsInvalidEntry(err error) bool {
	return IsType(err, ErrorTypeInvalidEntry)
}

// IsResolutionFailure reports whether err is a bundler resolution failure.
func IsResolutionFailure(err error) bool {
	return IsType(err, ErrorTypeResolution)
}

// IsSynthesisFailure reports whether err is a template synthesis failure.
func IsSynthesisFailure(err error) bool {
	return IsType(err, ErrorTypeSynthesis)
}

// IsArtifactMissing reports whether err is a missing-artifact failure.
func IsArtifactMissing(err error) bool {
	return IsType(err, ErrorTypeArtifact)
}

// IsWriteFailure reports whether err is a file-system write failure.
func IsWriteFailure(err error) bool {
	return IsType(err, ErrorTypeWrite)
}

// IsRecoverable reports whether the caller may reasonably retry or continue.
func IsRecoverable(err error) bool {
	var re *ReactusError
	if errors.As(err, &re) {
		return re.Recoverable
	}

	return false
}
