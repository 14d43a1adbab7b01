package utils

import (
	"errors"
	"fmt"
)

var ErrorRecordNotFound = errors.New("record not found")

// Error taxonomy for the financing engine. Callers dispatch with errors.Is:
// - ErrValidation: bad input, surfaced before any persistence
// - ErrState: operation conflicts with current state (schedule already
//   generated, commission already computed, no active scheme assignment)
var (
	ErrValidation = errors.New("validation error")
	ErrState      = errors.New("state error")
)

func ValidationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func StateErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrState, fmt.Sprintf(format, args...))
}

func NotFoundErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrorRecordNotFound, fmt.Sprintf(format, args...))
}
