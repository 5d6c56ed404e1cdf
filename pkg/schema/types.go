package schema

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strings"

	"github.com/aretw0/pipeforge/pkg/domain"
)

// Type defines the contract for argument validation.
// Implementations determine how values are validated against a type.
type Type interface {
	// Name returns the parameter type name (e.g., "string", "integer").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// --- Built-in Type Implementations ---

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

// IntegerType validates integer values.
type IntegerType struct{}

func (t *IntegerType) Name() string { return "integer" }

func (t *IntegerType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	case float64:
		// Accept floats that are whole numbers (from JSON unmarshaling)
		if v == math.Trunc(v) {
			return nil
		}
		return fmt.Errorf("expected integer, got float (not a whole number)")
	default:
		return fmt.Errorf("expected integer, got %T", value)
	}
}

// BooleanType validates boolean values.
type BooleanType struct{}

func (t *BooleanType) Name() string { return "boolean" }

func (t *BooleanType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected boolean, got %T", value)
	}
	return nil
}

// EnumType validates strings against a fixed set.
type EnumType struct {
	values []string
}

func (t *EnumType) Name() string { return "enum" }

func (t *EnumType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected one of %v, got %T", t.values, value)
	}
	if !slices.Contains(t.values, s) {
		return fmt.Errorf("%q is not one of %v", s, t.values)
	}
	return nil
}

var envVarName = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// EnvVarNameType validates environment variable names.
type EnvVarNameType struct{}

func (t *EnvVarNameType) Name() string { return "env_var_name" }

func (t *EnvVarNameType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected env_var_name, got %T", value)
	}
	if !envVarName.MatchString(s) {
		return fmt.Errorf("%q is not a valid environment variable name", s)
	}
	return nil
}

// ExecutorType validates executor arguments: a name or a mapping with one.
type ExecutorType struct{}

func (t *ExecutorType) Name() string { return "executor" }

func (t *ExecutorType) Validate(value any) error {
	switch v := value.(type) {
	case string:
		return nil
	case map[string]any:
		if name, ok := v["name"].(string); ok && name != "" {
			return nil
		}
		return fmt.Errorf("executor mapping needs a name")
	default:
		return fmt.Errorf("expected executor, got %T", value)
	}
}

// StepsType validates step lists.
type StepsType struct{}

func (t *StepsType) Name() string { return "steps" }

func (t *StepsType) Validate(value any) error {
	switch value.(type) {
	case []any, []domain.Step:
		return nil
	default:
		return fmt.Errorf("expected steps, got %T", value)
	}
}

// OptionalType accepts a missing value. Present values are validated by
// the wrapped type.
type OptionalType struct {
	Type
}

// --- Factory Functions ---

// String creates a string type validator.
func String() Type { return &StringType{} }

// Integer creates an integer type validator.
func Integer() Type { return &IntegerType{} }

// Boolean creates a boolean type validator.
func Boolean() Type { return &BooleanType{} }

// Enum creates a validator accepting only values.
func Enum(values ...string) Type { return &EnumType{values: values} }

// EnvVarName creates an environment variable name validator.
func EnvVarName() Type { return &EnvVarNameType{} }

// Executor creates an executor argument validator.
func Executor() Type { return &ExecutorType{} }

// Steps creates a step list validator.
func Steps() Type { return &StepsType{} }

// Optional marks t as not required.
func Optional(t Type) Type {
	if _, ok := t.(*OptionalType); ok {
		return t
	}
	return &OptionalType{Type: t}
}

// ParseType converts a parameter declaration to a Type. Parameters with a
// default are optional.
func ParseType(spec domain.ParameterSpec) (Type, error) {
	var t Type
	switch spec.Type {
	case "string":
		t = String()
	case "integer":
		t = Integer()
	case "boolean":
		t = Boolean()
	case "enum":
		if len(spec.Enum) == 0 {
			return nil, fmt.Errorf("enum parameter declares no values")
		}
		t = Enum(spec.Enum...)
	case "env_var_name":
		t = EnvVarName()
	case "executor":
		t = Executor()
	case "steps":
		t = Steps()
	default:
		return nil, fmt.Errorf("unsupported type: %q", spec.Type)
	}
	if spec.Default != nil {
		t = Optional(t)
	}
	return t, nil
}

// interpolated reports whether v is resolved only at run time.
func interpolated(v any) bool {
	s, ok := v.(string)
	return ok && strings.Contains(s, "<<") && strings.Contains(s, ">>")
}
