package config

import (
	"errors"
	"fmt"
)

// ErrValidationFailed is matched by every *ValidationError.
var ErrValidationFailed = errors.New("validation failed")

// ValidationError describes a setting with an unusable value.
type ValidationError struct {
	Path    string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config %s = %v: %s", e.Path, e.Value, e.Message)
}

// Is reports whether target is ErrValidationFailed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
