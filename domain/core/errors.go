package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	ErrNotFound = errors.New("resource not found")

	// Input errors
	ErrInputSchema   = errors.New("input schema error")
	ErrInvalidConfig = errors.New("invalid configuration")

	// Analysis errors
	ErrInsufficientData = errors.New("insufficient data for analysis")

	// Determinism errors
	ErrNonDeterministic = errors.New("non-deterministic result")
)

// NewSchemaError reports a table that cannot be mapped to baseline records.
func NewSchemaError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInputSchema, fmt.Sprintf(format, args...))
}

// NewInsufficientDataError reports a comparison that has nothing to compare.
func NewInsufficientDataError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInsufficientData, fmt.Sprintf(format, args...))
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, field, reason)
}

// Error checking helpers
func IsSchemaError(err error) bool {
	return errors.Is(err, ErrInputSchema)
}

func IsInsufficientDataError(err error) bool {
	return errors.Is(err, ErrInsufficientData)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
