package form

import (
	"maps"
	"slices"

	"github.com/aretw0/pipeforge/pkg/domain"
)

type unset struct{}

func (unset) String() string { return "<unset>" }

// Unset marks a value as absent. Merging a key set to Unset deletes it.
// An empty string is a value, not an absence.
var Unset any = unset{}

// IsUnset reports whether v is the Unset marker.
func IsUnset(v any) bool {
	_, ok := v.(unset)
	return ok
}

// Merge returns base overlaid with edits. Keys whose edit is Unset are
// removed from the result. Neither input is modified.
func Merge(base, edits map[string]any) map[string]any {
	out := maps.Clone(base)
	if out == nil {
		out = make(map[string]any, len(edits))
	}
	mergeInto(out, edits)
	return out
}

func mergeInto(dst, edits map[string]any) {
	for k, v := range edits {
		if IsUnset(v) {
			delete(dst, k)
			continue
		}
		dst[k] = v
	}
}

// Compact returns m without its Unset entries, or nil when nothing is left.
func Compact(m map[string]any) map[string]any {
	var out map[string]any
	for k, v := range m {
		if IsUnset(v) {
			continue
		}
		if out == nil {
			out = make(map[string]any, len(m))
		}
		out[k] = v
	}
	return out
}

// InitialWorkflowJobValues returns the staged-job form values: an unset name
// and empty pre/post step lists, overlaid with what existing already stages.
func InitialWorkflowJobValues(existing *domain.WorkflowJob) map[string]any {
	values := map[string]any{
		KeyName:      Unset,
		KeyPreSteps:  []domain.Step{},
		KeyPostSteps: []domain.Step{},
	}
	if existing == nil {
		return values
	}
	for k, v := range existing.Parameters {
		values[k] = v
	}
	if existing.Name != "" {
		values[KeyName] = existing.Name
	}
	if len(existing.PreSteps) > 0 {
		values[KeyPreSteps] = cloneSteps(existing.PreSteps)
	}
	if len(existing.PostSteps) > 0 {
		values[KeyPostSteps] = cloneSteps(existing.PostSteps)
	}
	return values
}

// stepsValue reads a step list stored in an argument map.
func stepsValue(v any) ([]domain.Step, bool) {
	steps, ok := v.([]domain.Step)
	if !ok {
		return nil, false
	}
	if len(steps) == 0 {
		return nil, true
	}
	return slices.Clone(steps), true
}
