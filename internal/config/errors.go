package config

import (
	"errors"
	"strings"

	"github.com/Git-on-my-level/memento-protocol-sub004/internal/config/codec"
)

// Errors returned by configuration operations.
var (
	// ErrNotFound indicates a missing file or key. It is never fatal.
	ErrNotFound = errors.New("not found")

	// ErrInvalidPath indicates a dot path with an empty segment.
	ErrInvalidPath = errors.New("invalid configuration path")

	// ErrValidationFailed matches every *ValidationError.
	ErrValidationFailed = errors.New("validation failed")

	// ErrUnsupportedFormat indicates a format an operation cannot produce.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// ParseError is returned when a structured file cannot be decoded.
type ParseError = codec.ParseError

// ValidationError aggregates every schema violation that blocked a write.
type ValidationError struct {
	Errors []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "invalid configuration: " + e.Errors[0]
	}
	return "invalid configuration: " + strings.Join(e.Errors, "; ")
}

// Is makes errors.Is(err, ErrValidationFailed) hold.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// IsValidationError reports whether err is a validation failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidationFailed)
}

// IsParseError reports whether err wraps a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
