package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Flow control (expected, not fatal)
const (
	// ErrCodeExhausted indicates a step or traversal has no more output.
	ErrCodeExhausted ErrorCode = "EXHAUSTED"
)

// Setup errors (abort construction or launch)
const (
	// ErrCodeConfiguration indicates declared requirements cannot be satisfied
	// by the execution context, or the pipeline was mutated after it started.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
	// ErrCodeCloneFailure indicates a function or traversal could not be
	// duplicated for a new execution context.
	ErrCodeCloneFailure ErrorCode = "CLONE_FAILURE"
)

// Execution errors
const (
	// ErrCodeRoutingMismatch indicates a traverser location that matches no
	// live step in the pipeline topology.
	ErrCodeRoutingMismatch ErrorCode = "ROUTING_MISMATCH"
	// ErrCodeTypeMismatch indicates a payload or side effect of an unexpected type.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var fatalCodes = map[ErrorCode]bool{
	ErrCodeExhausted:       false,
	ErrCodeConfiguration:   true,
	ErrCodeCloneFailure:    true,
	ErrCodeRoutingMismatch: true,
	ErrCodeTypeMismatch:    true,
	ErrCodeInvalidInput:    true,
	ErrCodeInternal:        true,
}

// IsFatalCode returns true if the error code aborts the whole execution.
func IsFatalCode(code ErrorCode) bool {
	return fatalCodes[code]
}
