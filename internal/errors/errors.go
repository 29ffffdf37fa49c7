// Package errors defines the error taxonomy for the pipeline.
//
// Kinds split along the propagation policy: schema and configuration problems
// fail fast with an identifiable kind, while structural problems inside a
// dataset are recoverable and accumulated by the caller. Out-of-range values
// are never errors at all; they travel as domain.ValidationFailure records.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for propagation decisions.
type Kind string

const (
	// KindSchema marks a table that cannot be loaded at all, such as a
	// missing required column. Fatal for the load.
	KindSchema Kind = "SCHEMA"
	// KindStructural marks a per-step cycle problem (wrong row count,
	// malformed phase grid). Recoverable: the step is skipped.
	KindStructural Kind = "STRUCTURAL"
	// KindConfig marks a broken range specification or bad arguments.
	// These indicate programmer or configuration error and fail fast.
	KindConfig Kind = "CONFIG"
	// KindNotFound marks a lookup miss (unknown task, unknown variable).
	KindNotFound Kind = "NOT_FOUND"
	// KindIO marks filesystem and parse failures on input documents.
	KindIO Kind = "IO"
	// KindInternal marks invariant violations inside the pipeline itself.
	KindInternal Kind = "INTERNAL"
)

// Error is the pipeline error type. It carries a kind for classification,
// a message, an optional wrapped cause and free-form context fields.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Context map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is and errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext attaches a context field and returns the error for chaining.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// New creates an Error of the given kind.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Schema creates a fatal schema error.
func Schema(message string, cause error) *Error {
	return New(KindSchema, message, cause)
}

// Schemaf creates a fatal schema error with a formatted message.
func Schemaf(format string, args ...any) *Error {
	return New(KindSchema, fmt.Sprintf(format, args...), nil)
}

// Structural creates a recoverable per-step structural error.
func Structural(message string, cause error) *Error {
	return New(KindStructural, message, cause)
}

// Structuralf creates a recoverable structural error with a formatted message.
func Structuralf(format string, args ...any) *Error {
	return New(KindStructural, fmt.Sprintf(format, args...), nil)
}

// Config creates a fail-fast configuration error.
func Config(message string, cause error) *Error {
	return New(KindConfig, message, cause)
}

// Configf creates a fail-fast configuration error with a formatted message.
func Configf(format string, args ...any) *Error {
	return New(KindConfig, fmt.Sprintf(format, args...), nil)
}

// NotFound creates a lookup-miss error.
func NotFound(message string) *Error {
	return New(KindNotFound, message, nil)
}

// IO creates an input/output error.
func IO(message string, cause error) *Error {
	return New(KindIO, message, cause)
}

// Internal creates an invariant-violation error.
func Internal(message string, cause error) *Error {
	return New(KindInternal, message, cause)
}

// KindOf extracts the kind from an error chain, or "" when the chain holds
// no *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether any error in the chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
