package schema

import (
	"errors"
	"testing"

	"github.com/aretw0/pipeforge/pkg/domain"
)

func TestValidate_Success(t *testing.T) {
	schema := Schema{
		"tag":         String(),
		"parallelism": Integer(),
		"cache":       Boolean(),
		"size":        Enum("small", "large"),
		"token":       EnvVarName(),
		"runner":      Executor(),
		"setup":       Steps(),
	}

	data := map[string]any{
		"tag":         "lts",
		"parallelism": 4,
		"cache":       true,
		"size":        "large",
		"token":       "GITHUB_TOKEN",
		"runner":      map[string]any{"name": "base"},
		"setup":       []any{"checkout"},
	}

	if err := Validate(schema, data); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_MissingField(t *testing.T) {
	schema := Schema{
		"tag":     String(),
		"version": Optional(String()),
	}

	err := Validate(schema, map[string]any{})
	if err == nil {
		t.Fatal("Validate() should return error for missing field")
	}

	errs := ValidationErrors(err)
	if len(errs) != 1 {
		t.Fatalf("Validate() = %d errors, want 1", len(errs))
	}

	var validErr *ValidationError
	if !errors.As(errs[0], &validErr) {
		t.Fatalf("error should be *ValidationError, got %T", errs[0])
	}
	if validErr.Key != "tag" || validErr.Reason != "required" {
		t.Errorf("got %s, want required tag", validErr)
	}
}

func TestValidate_Failures(t *testing.T) {
	schema := Schema{
		"parallelism": Integer(),
		"size":        Enum("small", "large"),
	}

	err := Validate(schema, map[string]any{
		"parallelism": 1.5,
		"size":        "huge",
		"extra":       true,
		"requires":    []any{"lint"},
	}, "requires")

	// Declared parameters come first, sorted by name, then undeclared ones.
	order := []string{"parallelism", "size", "extra"}
	errs := ValidationErrors(err)
	if len(errs) != len(order) {
		t.Fatalf("Validate() = %v, want %d errors", err, len(order))
	}
	for i, e := range errs {
		if got := e.(*ValidationError).Key; got != order[i] {
			t.Errorf("error %d is for %q, want %q", i, got, order[i])
		}
	}
}

func TestValidate_Interpolation(t *testing.T) {
	schema := Schema{"parallelism": Integer()}
	if err := Validate(schema, map[string]any{"parallelism": "<< pipeline.parameters.n >>"}); err != nil {
		t.Errorf("interpolated value should be accepted, got %v", err)
	}
}

func TestTypes(t *testing.T) {
	tests := []struct {
		name  string
		typ   Type
		value any
		valid bool
	}{
		{"string", String(), "x", true},
		{"string rejects int", String(), 1, false},
		{"integer from int", Integer(), 3, true},
		{"integer from whole float", Integer(), 3.0, true},
		{"integer rejects string", Integer(), "3", false},
		{"boolean", Boolean(), false, true},
		{"boolean rejects string", Boolean(), "true", false},
		{"enum member", Enum("a", "b"), "b", true},
		{"enum non member", Enum("a", "b"), "c", false},
		{"env var", EnvVarName(), "AWS_REGION", true},
		{"env var invalid", EnvVarName(), "1BAD", false},
		{"executor name", Executor(), "base", true},
		{"executor mapping without name", Executor(), map[string]any{"tag": "x"}, false},
		{"steps list", Steps(), []domain.Step{{Command: "checkout"}}, true},
		{"steps rejects string", Steps(), "checkout", false},
		{"optional delegates", Optional(Integer()), "x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.typ.Validate(tt.value)
			if tt.valid && err != nil {
				t.Errorf("Validate(%v) = %v, want nil", tt.value, err)
			}
			if !tt.valid && err == nil {
				t.Errorf("Validate(%v) should fail", tt.value)
			}
		})
	}
}

func TestParseType(t *testing.T) {
	typ, err := ParseType(domain.ParameterSpec{Name: "n", Type: "integer", Default: 1})
	if err != nil {
		t.Fatalf("ParseType() error = %v", err)
	}
	if _, ok := typ.(*OptionalType); !ok {
		t.Errorf("a parameter with a default should be optional, got %T", typ)
	}
	if typ.Name() != "integer" {
		t.Errorf("Name() = %q, want integer", typ.Name())
	}

	if _, err := ParseType(domain.ParameterSpec{Type: "enum"}); err == nil {
		t.Error("an enum without values should fail")
	}
	if _, err := ParseType(domain.ParameterSpec{Type: "float"}); err == nil {
		t.Error("unsupported types should fail")
	}
}
