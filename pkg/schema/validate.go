package schema

import (
	"fmt"
	"maps"
	"slices"

	"github.com/aretw0/pipeforge/pkg/domain"
)

// Schema is a map of parameter names to their expected types.
// Example: {"tag": String(), "parallelism": Optional(Integer())}
type Schema map[string]Type

// FromSpecs builds the schema of a parameter declaration list.
func FromSpecs(specs []domain.ParameterSpec) (Schema, error) {
	result := make(Schema, len(specs))
	for _, spec := range specs {
		t, err := ParseType(spec)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", spec.Name, err)
		}
		result[spec.Name] = t
	}
	return result, nil
}

// Validate checks if args conform to the schema: every required parameter
// is present, every value has the declared type, and no argument is
// undeclared. Keys listed in ignore are never reported as undeclared.
// Returns an error with all validation failures found, ordered by name.
func Validate(schema Schema, args map[string]any, ignore ...string) error {
	var errs []error

	for _, name := range slices.Sorted(maps.Keys(schema)) {
		typ := schema[name]
		value, exists := args[name]
		if !exists {
			if _, optional := typ.(*OptionalType); !optional {
				errs = append(errs, &ValidationError{Key: name, Reason: "required"})
			}
			continue
		}
		if interpolated(value) {
			continue
		}
		if err := typ.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: name, Reason: err.Error(), Value: value})
		}
	}

	for _, name := range slices.Sorted(maps.Keys(args)) {
		if _, declared := schema[name]; declared || slices.Contains(ignore, name) {
			continue
		}
		errs = append(errs, &ValidationError{Key: name, Reason: "not declared"})
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
