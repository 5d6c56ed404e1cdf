package compiler

import (
	"fmt"
	"maps"

	"github.com/aretw0/pipeforge/pkg/domain"
)

// parseWorkflowJob decodes a staged job: either the bare source job name or
// a single-key mapping of source job name to its staging parameters.
// available must contain the job definitions the source may refer to.
func (p *Parser) parseWorkflowJob(raw any, available []domain.Definition) (*domain.WorkflowJob, error) {
	wj := &domain.WorkflowJob{}
	var params map[string]any

	if source, ok := raw.(string); ok {
		wj.Source = source
	} else {
		m, err := asMap(raw)
		if err != nil {
			return nil, err
		}
		if len(m) != 1 {
			return nil, fmt.Errorf("a staged job must name exactly one source job, got %d", len(m))
		}
		for source, v := range m {
			wj.Source = source
			if v != nil {
				if params, err = asMap(v); err != nil {
					return nil, fmt.Errorf("staged job %q: %w", source, err)
				}
			}
		}
	}
	if wj.Source == "" {
		return nil, &domain.MissingRequiredFieldError{Field: "source"}
	}

	def, ok := lookup(available, wj.Source)
	if !ok {
		return nil, fmt.Errorf("%w: job %q", domain.ErrReferenceNotFound, wj.Source)
	}
	job, ok := def.(*domain.Job)
	if !ok {
		return nil, fmt.Errorf("%w: %q is a %T, not a job", domain.ErrUnsupportedVariant, wj.Source, def)
	}
	wj.Job = job

	for k, v := range params {
		var err error
		switch k {
		case keyName:
			name, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("staged job %q: name must be a string, got %T", wj.Source, v)
			}
			wj.Name = name
		case keyPreSteps:
			wj.PreSteps, err = parseSteps(v)
		case keyPostSteps:
			wj.PostSteps, err = parseSteps(v)
		default:
			if wj.Parameters == nil {
				wj.Parameters = make(map[string]any)
			}
			wj.Parameters[k] = v
		}
		if err != nil {
			return nil, fmt.Errorf("staged job %q: %s: %w", wj.Source, k, err)
		}
	}
	return wj, nil
}

func serializeWorkflowJob(wj *domain.WorkflowJob) any {
	params := maps.Clone(wj.Parameters)
	if params == nil {
		params = make(map[string]any)
	}
	if wj.Name != "" {
		params[keyName] = wj.Name
	}
	if len(wj.PreSteps) > 0 {
		params[keyPreSteps] = serializeSteps(wj.PreSteps)
	}
	if len(wj.PostSteps) > 0 {
		params[keyPostSteps] = serializeSteps(wj.PostSteps)
	}
	if len(params) == 0 {
		return wj.Source
	}
	return map[string]any{wj.Source: params}
}
