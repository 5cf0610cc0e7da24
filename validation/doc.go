// Package validation checks configuration and scenario input.
//
// Validator accumulates field errors through a chainable API and reports
// them as a single INVALID_INPUT AppError. Validate checks a struct against
// its `validate` tags with go-playground/validator.
package validation
