package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for allocation and billing runs.
var (
	ErrNotFound              = errors.New("billing: not found")
	ErrUnsupportedTargetType = errors.New("billing: unsupported target type")
	ErrUnsupportedMethod     = errors.New("billing: unsupported allocation method")
	ErrRuleNotFound          = errors.New("billing: allocation rule not found")
	ErrAmbiguousRule         = errors.New("billing: ambiguous allocation rule")
	ErrEmptyScope            = errors.New("billing: expense scope contains no units")
	ErrInvalidAmount         = errors.New("billing: invalid allocatable amount")
	ErrInvalidParams         = errors.New("billing: invalid rule parameters")
	ErrInvalidMeasure        = errors.New("billing: measurement is not a finite number")
)

// NotFound returns an error wrapping ErrNotFound for the given kind and ID.
func NotFound(kind, id string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrRuleNotFound)
}

// IsConfigError returns true if the error is caused by unsupported or
// inconsistent configuration data rather than an infrastructure failure.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrUnsupportedTargetType) ||
		errors.Is(err, ErrUnsupportedMethod) ||
		errors.Is(err, ErrAmbiguousRule) ||
		errors.Is(err, ErrEmptyScope) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidParams) ||
		errors.Is(err, ErrInvalidMeasure)
}
