// Package errors provides the error taxonomy of the traversal engine.
// It implements a structured error type with machine-readable codes,
// a fatal flag, and sentinel matching through the standard errors.Is.
package errors
