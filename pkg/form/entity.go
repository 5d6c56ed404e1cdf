package form

import (
	"maps"
	"slices"

	"github.com/aretw0/pipeforge/pkg/domain"
)

// Value and list keys.
const (
	KeyName        = "name"
	KeyDescription = "description"
	KeySource      = "source"
	KeySteps       = "steps"
	KeyPreSteps    = "pre-steps"
	KeyPostSteps   = "post-steps"
)

// EditedEntity is the in-progress value of one editing frame.
type EditedEntity struct {
	Kind domain.Kind
	// Values holds scalar fields such as name and description.
	Values map[string]any
	// Lists holds the named step lists.
	Lists map[string][]domain.Step
	// Specs are the parameters the entity declares.
	Specs []domain.ParameterSpec
	// Parameters is the object-shaped argument map of a staged job. Keys set
	// to Unset are dropped on submit.
	Parameters map[string]any
	Executor   ExecutorSlot
}

// NewEntity returns an empty entity of a kind.
func NewEntity(kind domain.Kind) *EditedEntity {
	e := &EditedEntity{
		Kind:   kind,
		Values: map[string]any{},
		Lists:  map[string][]domain.Step{},
	}
	if kind == domain.KindWorkflowJob {
		e.Parameters = InitialWorkflowJobValues(nil)
	}
	return e
}

// Name returns the entity's name value, or "".
func (e *EditedEntity) Name() string {
	s, _ := e.Values[KeyName].(string)
	return s
}

// Clone returns a copy that shares no maps or slices with e. Executors and
// arbitrary parameter values are shared.
func (e *EditedEntity) Clone() *EditedEntity {
	c := &EditedEntity{
		Kind:       e.Kind,
		Values:     maps.Clone(e.Values),
		Lists:      make(map[string][]domain.Step, len(e.Lists)),
		Specs:      slices.Clone(e.Specs),
		Parameters: maps.Clone(e.Parameters),
		Executor:   e.Executor,
	}
	c.Executor.arguments = maps.Clone(e.Executor.arguments)
	for k, steps := range e.Lists {
		c.Lists[k] = cloneSteps(steps)
	}
	return c
}

// Apply merges edits into the entity's values in place. Keys set to Unset
// are removed; every other value, empty strings included, is stored.
func (e *EditedEntity) Apply(edits map[string]any) {
	if e.Values == nil {
		e.Values = map[string]any{}
	}
	mergeInto(e.Values, edits)
}

// ApplyParameters merges edits into the argument map in place, with the same
// rules as Apply.
func (e *EditedEntity) ApplyParameters(edits map[string]any) {
	if e.Parameters == nil {
		e.Parameters = map[string]any{}
	}
	mergeInto(e.Parameters, edits)
}

// SetList replaces a step list.
func (e *EditedEntity) SetList(key string, steps []domain.Step) {
	if e.Lists == nil {
		e.Lists = map[string][]domain.Step{}
	}
	e.Lists[key] = cloneSteps(steps)
}

func cloneSteps(steps []domain.Step) []domain.Step {
	if steps == nil {
		return nil
	}
	out := make([]domain.Step, len(steps))
	for i, s := range steps {
		out[i] = domain.Step{Command: s.Command, Parameters: maps.Clone(s.Parameters)}
	}
	return out
}
