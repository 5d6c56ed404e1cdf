package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError represents a single argument validation failure.
type ValidationError struct {
	Key    string // Parameter name
	Reason string // Human-readable reason for failure
	Value  any    // The value that failed validation
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("parameter %q: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("parameter %q: %s (got %T)", e.Key, e.Reason, e.Value)
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// ValidationErrors returns all validation errors if err is an AggregateError.
// Otherwise returns nil.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}

// UsageError reports the invalid arguments passed at one place of a
// document.
type UsageError struct {
	// At is the document node id of the user, e.g. "workflows/main/jobs/0".
	At string
	// Target is the reference the arguments were passed to.
	Target string
	Err    error
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("%s: arguments for %q: %v", e.At, e.Target, e.Err)
}

func (e *UsageError) Unwrap() error {
	return e.Err
}
