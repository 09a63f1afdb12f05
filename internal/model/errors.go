package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode categorizes validation errors.
type ErrorCode string

const (
	// ErrCodeVectorFormat indicates the vector file is missing, empty or
	// has a row whose width differs from the header.
	ErrCodeVectorFormat ErrorCode = "VECTOR_FORMAT"

	// ErrCodeVectorLoad indicates the simulator itself rejected the vector file.
	ErrCodeVectorLoad ErrorCode = "VECTOR_LOAD"

	// ErrCodeCircuitNotFound indicates the named circuit is absent from the design file.
	ErrCodeCircuitNotFound ErrorCode = "CIRCUIT_NOT_FOUND"

	// ErrCodeInvocation indicates the simulator could not be started or
	// exited with a non-zero status.
	ErrCodeInvocation ErrorCode = "INVOCATION"

	// ErrCodeInvocationTimeout indicates the simulator was killed after
	// exceeding the configured timeout.
	ErrCodeInvocationTimeout ErrorCode = "INVOCATION_TIMEOUT"

	// ErrCodeDiagnosticParse indicates simulator output did not match the
	// expected text layout.
	ErrCodeDiagnosticParse ErrorCode = "DIAGNOSTIC_PARSE"

	// ErrCodeIntegrity indicates the failure count and the number of parsed
	// diagnostics disagree.
	ErrCodeIntegrity ErrorCode = "INTEGRITY"
)

// Error is the single error type for everything that prevents a circuit
// from being validated. Signal mismatches are not errors; they are reported
// as MismatchRows.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Circuit names the circuit being validated, when known.
	Circuit string

	// Raw holds the offending simulator text (stdout, stderr or a single
	// line) so format violations can be diagnosed without re-running.
	Raw string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Circuit != "" {
		msg = fmt.Sprintf("%s: %s (circuit=%s)", e.Code, e.Message, e.Circuit)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Detail returns the error message followed by the attached raw text.
func (e *Error) Detail() string {
	if e.Raw == "" {
		return e.Error()
	}
	return e.Error() + "\n--- raw output ---\n" + e.Raw
}

// NewVectorFormatError creates an Error for a malformed vector file.
func NewVectorFormatError(path, message string, err error) *Error {
	return &Error{
		Code:    ErrCodeVectorFormat,
		Message: fmt.Sprintf("%s: %s", path, message),
		Err:     err,
	}
}

// NewVectorLoadError creates an Error for a vector file rejected by the simulator.
func NewVectorLoadError(circuit, stderr string) *Error {
	return &Error{
		Code:    ErrCodeVectorLoad,
		Message: "simulator failed to load test vector",
		Circuit: circuit,
		Raw:     stderr,
	}
}

// NewCircuitNotFoundError creates an Error for a circuit missing from the design file.
func NewCircuitNotFoundError(circuit, stderr string) *Error {
	return &Error{
		Code:    ErrCodeCircuitNotFound,
		Message: "circuit not found in design file",
		Circuit: circuit,
		Raw:     stderr,
	}
}

// NewInvocationError creates an Error for a simulator that failed to run.
func NewInvocationError(circuit, message, raw string, err error) *Error {
	return &Error{
		Code:    ErrCodeInvocation,
		Message: message,
		Circuit: circuit,
		Raw:     raw,
		Err:     err,
	}
}

// NewInvocationTimeout creates an Error for a simulator killed on timeout.
func NewInvocationTimeout(circuit string, timeout time.Duration, raw string) *Error {
	return &Error{
		Code:    ErrCodeInvocationTimeout,
		Message: fmt.Sprintf("simulator killed after %s", timeout),
		Circuit: circuit,
		Raw:     raw,
	}
}

// NewDiagnosticParseError creates an Error for unrecognized simulator output.
func NewDiagnosticParseError(circuit, message, raw string) *Error {
	return &Error{
		Code:    ErrCodeDiagnosticParse,
		Message: message,
		Circuit: circuit,
		Raw:     raw,
	}
}

// NewIntegrityError creates an Error for a failed count that does not match
// the number of parsed diagnostics.
func NewIntegrityError(circuit string, failed, records int, raw string) *Error {
	return &Error{
		Code:    ErrCodeIntegrity,
		Message: fmt.Sprintf("simulator reported %d failures but %d diagnostics were parsed", failed, records),
		Circuit: circuit,
		Raw:     raw,
	}
}

// CodeOf returns the ErrorCode of err, or "" if err is not an *Error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode returns true if err is an *Error with the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// IsEnvironment returns true for configuration and environment failures:
// the vector file, the design file or the simulator process itself.
// These are surfaced immediately and never retried.
func IsEnvironment(err error) bool {
	switch CodeOf(err) {
	case ErrCodeVectorFormat, ErrCodeVectorLoad, ErrCodeCircuitNotFound,
		ErrCodeInvocation, ErrCodeInvocationTimeout:
		return true
	}
	return false
}

// IsFormatViolation returns true when the simulator's text did not match
// the layout the parser relies on.
func IsFormatViolation(err error) bool {
	switch CodeOf(err) {
	case ErrCodeDiagnosticParse, ErrCodeIntegrity:
		return true
	}
	return false
}

// WithCircuit sets the circuit on err if it is an *Error without one.
func WithCircuit(err error, circuit string) error {
	var e *Error
	if errors.As(err, &e) && e.Circuit == "" {
		e.Circuit = circuit
	}
	return err
}
