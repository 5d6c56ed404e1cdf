package domain

import (
	"errors"
	"fmt"
)

// ErrReferenceNotFound is returned when a reference cannot be resolved.
var ErrReferenceNotFound = errors.New("reference not found")

// ErrDuplicateName is returned when registering a name that already exists
// and overwriting was not requested.
var ErrDuplicateName = errors.New("duplicate definition name")

// ErrUnsupportedVariant is returned when a node's concrete type is not one of
// the variants recognised for its slot.
var ErrUnsupportedVariant = errors.New("unsupported variant")

// ErrStackUnderflow is returned when popping would remove the root frame.
var ErrStackUnderflow = errors.New("navigation stack underflow")

// ErrKindMismatch is returned when a value is registered under the wrong kind.
var ErrKindMismatch = errors.New("definition kind mismatch")

// ErrSessionNotFound is returned when a session ID cannot be found.
var ErrSessionNotFound = errors.New("session not found")

// MissingRequiredFieldError reports a required form field that was left empty.
type MissingRequiredFieldError struct {
	Field string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// ParseError wraps a failure reported by the parser collaborator.
type ParseError struct {
	Kind Kind
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Kind.Noun(), e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err should be shown next to the form
// (and block the save) rather than treated as a programming error.
func IsValidationError(err error) bool {
	var missing *MissingRequiredFieldError
	var parse *ParseError
	return errors.As(err, &missing) || errors.As(err, &parse) || errors.Is(err, ErrReferenceNotFound)
}

// ErrOrbNotFound is returned by orb sources when a namespace is unknown.
var ErrOrbNotFound = errors.New("orb not found")
