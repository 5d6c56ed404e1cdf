package compiler

import (
	"fmt"
	"maps"

	"github.com/aretw0/pipeforge/pkg/domain"
)

// shorthandKeys maps commands whose string form expands into a single named
// argument, e.g. "run: make test" is "run: {command: make test}".
var shorthandKeys = map[string]string{
	"run": "command",
}

// parseSteps decodes a list of steps. Each entry is either a bare command
// name ("checkout") or a single-key mapping of command name to arguments.
func parseSteps(raw any) ([]domain.Step, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("steps: expected a list, got %T", raw)
	}
	steps := make([]domain.Step, 0, len(list))
	for i, entry := range list {
		step, err := parseStep(entry)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		steps = append(steps, step)
	}
	if len(steps) == 0 {
		return nil, nil
	}
	return steps, nil
}

func parseStep(raw any) (domain.Step, error) {
	if name, ok := raw.(string); ok {
		if name == "" {
			return domain.Step{}, &domain.MissingRequiredFieldError{Field: "step"}
		}
		return domain.Step{Command: name}, nil
	}
	m, err := asMap(raw)
	if err != nil {
		return domain.Step{}, err
	}
	if len(m) != 1 {
		return domain.Step{}, fmt.Errorf("a step must have exactly one command, got %d", len(m))
	}
	for cmd, args := range m {
		switch v := args.(type) {
		case nil:
			return domain.Step{Command: cmd, Parameters: map[string]any{}}, nil
		case string:
			key, ok := shorthandKeys[cmd]
			if !ok {
				return domain.Step{}, fmt.Errorf("command %q does not accept a string argument", cmd)
			}
			return domain.Step{Command: cmd, Parameters: map[string]any{key: v}}, nil
		default:
			params, err := asMap(v)
			if err != nil {
				return domain.Step{}, fmt.Errorf("command %q: %w", cmd, err)
			}
			return domain.Step{Command: cmd, Parameters: maps.Clone(params)}, nil
		}
	}
	panic("unreachable")
}

func serializeSteps(steps []domain.Step) []any {
	out := make([]any, 0, len(steps))
	for _, s := range steps {
		out = append(out, serializeStep(s))
	}
	return out
}

func serializeStep(s domain.Step) any {
	if s.Parameters == nil {
		return s.Command
	}
	return map[string]any{s.Command: maps.Clone(s.Parameters)}
}
