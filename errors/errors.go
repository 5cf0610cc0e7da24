package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified error type of the engine.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Fatal indicates the error aborts the whole execution.
	Fatal bool `json:"fatal"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// ErrExhausted signals that a step or traversal has no more output.
// It terminates pull loops and is never fatal.
var ErrExhausted = &AppError{Code: ErrCodeExhausted, Message: "no more traversers"}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is reports whether target is an AppError with the same code, so
// sentinels such as ErrExhausted match with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic fatal detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Fatal:   IsFatalCode(code),
	}
}

// --- Constructors ---

// Exhausted returns the shared exhaustion sentinel.
func Exhausted() *AppError { return ErrExhausted }

// Configuration creates an error for a pipeline that cannot be launched as built.
func Configuration(reason string) *AppError {
	return &AppError{
		Code: ErrCodeConfiguration, Message: reason, Fatal: true,
	}
}

// UnsupportedRequirement creates a configuration error for a step requirement
// the execution context cannot guarantee.
func UnsupportedRequirement(stepID, requirement string) *AppError {
	return &AppError{
		Code: ErrCodeConfiguration, Message: fmt.Sprintf("requirement %s of step %s is not supported by the engine", requirement, stepID),
		Fatal:   true,
		Details: map[string]any{"step": stepID, "requirement": requirement},
	}
}

// CloneFailure creates an error for a component that could not be duplicated.
func CloneFailure(component string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeCloneFailure, Message: fmt.Sprintf("unable to clone %s", component),
		Fatal: true, Cause: cause,
		Details: map[string]any{"component": component},
	}
}

// RoutingMismatch creates an error for a traverser routed to an unknown location.
func RoutingMismatch(location string) *AppError {
	return &AppError{
		Code: ErrCodeRoutingMismatch, Message: fmt.Sprintf("no step found at location %q", location),
		Fatal:   true,
		Details: map[string]any{"location": location},
	}
}

// TypeMismatch creates an error for a value of an unexpected type.
func TypeMismatch(what string, expected, got any) *AppError {
	return &AppError{
		Code: ErrCodeTypeMismatch, Message: fmt.Sprintf("%s: expected %T, got %T", what, expected, got),
		Fatal:   true,
		Details: map[string]any{"subject": what},
	}
}

// InvalidInput creates an error for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		Fatal: true, Details: details,
	}
}

// Validation creates an error for struct validation failures.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message, Fatal: true,
	}
}

// Internal creates an error for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		Fatal: true, Cause: cause,
	}
}

// --- Helpers ---

// IsExhausted reports whether err signals normal exhaustion.
func IsExhausted(err error) bool {
	return stderrors.Is(err, ErrExhausted)
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// Wrap converts any error into an AppError. AppErrors pass through unchanged.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}
