package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Data-quality errors
	ErrShape        = errors.New("malformed or ambiguous array shape")
	ErrConditioning = errors.New("trial unsuitable for signal conditioning")

	// Inference errors
	ErrModelNotFound = errors.New("no usable model bundle")
	ErrInference     = errors.New("feature/model dimension mismatch")

	// History preconditions. Not a failure: signals "not yet available".
	ErrInsufficientHistory = errors.New("insufficient session history")

	// Persistence errors
	ErrNotFound        = errors.New("resource not found")
	ErrSubjectNotFound = fmt.Errorf("%w: subject", ErrNotFound)
	ErrSessionNotFound = fmt.Errorf("%w: session", ErrNotFound)
)

// Error constructors with context
func NewShapeError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrShape, fmt.Sprintf(format, args...))
}

func NewConditioningError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConditioning, fmt.Sprintf(format, args...))
}

func NewInferenceError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInference, fmt.Sprintf(format, args...))
}

// Error checking helpers
func IsShapeError(err error) bool {
	return errors.Is(err, ErrShape)
}

func IsConditioningError(err error) bool {
	return errors.Is(err, ErrConditioning)
}

func IsModelNotFound(err error) bool {
	return errors.Is(err, ErrModelNotFound)
}

func IsInferenceError(err error) bool {
	return errors.Is(err, ErrInference)
}

func IsInsufficientHistory(err error) bool {
	return errors.Is(err, ErrInsufficientHistory)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
