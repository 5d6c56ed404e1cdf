// Package dto holds the JSON shapes the HTTP surface and the CLI exchange
// with clients.
package dto

import (
	"maps"

	"github.com/aretw0/pipeforge/pkg/domain"
	"github.com/aretw0/pipeforge/pkg/form"
	"github.com/aretw0/pipeforge/pkg/navigation"
)

// Step is a pipeline step.
type Step struct {
	Command    string         `json:"command"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Executor describes an executor slot.
type Executor struct {
	State     string         `json:"state"`
	Type      string         `json:"type,omitempty"`
	Reference string         `json:"reference,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Entity is the form state of the current frame.
type Entity struct {
	Kind       domain.Kind       `json:"kind"`
	Values     map[string]any    `json:"values"`
	Lists      map[string][]Step `json:"lists,omitempty"`
	Parameters map[string]any    `json:"parameters,omitempty"`
	Executor   *Executor         `json:"executor,omitempty"`
}

// Session is the externally visible state of an editor session.
type Session struct {
	ID          string             `json:"id"`
	Depth       int                `json:"depth"`
	Breadcrumbs []navigation.Crumb `json:"breadcrumbs"`
	Promotion   string             `json:"promotion"`
	Entity      *Entity            `json:"entity,omitempty"`
}

// Option is a selectable reference.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Confirmation is a pending yes/no gate.
type Confirmation struct {
	Header       string `json:"header"`
	Message      string `json:"message"`
	ConfirmLabel string `json:"confirm_label"`
}

// Notification is a user-visible message.
type Notification struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Severity string `json:"severity"`
}

// FromSteps converts domain steps.
func FromSteps(in []domain.Step) []Step {
	out := make([]Step, len(in))
	for i, s := range in {
		out[i] = Step{Command: s.Command, Parameters: maps.Clone(s.Parameters)}
	}
	return out
}

// ToSteps converts wire steps.
func ToSteps(in []Step) []domain.Step {
	out := make([]domain.Step, len(in))
	for i, s := range in {
		out[i] = domain.Step{Command: s.Command, Parameters: maps.Clone(s.Parameters)}
	}
	return out
}

// FromEntity renders an entity. Unset values are left out.
func FromEntity(e *form.EditedEntity) *Entity {
	if e == nil {
		return nil
	}
	out := &Entity{
		Kind:   e.Kind,
		Values: visible(e.Values),
	}
	if len(e.Lists) > 0 {
		out.Lists = make(map[string][]Step, len(e.Lists))
		for k, v := range e.Lists {
			out.Lists[k] = FromSteps(v)
		}
	}
	if e.Parameters != nil {
		out.Parameters = visible(e.Parameters)
		for k, v := range out.Parameters {
			if steps, ok := v.([]domain.Step); ok {
				out.Parameters[k] = FromSteps(steps)
			}
		}
	}
	if e.Kind == domain.KindJob {
		out.Executor = fromSlot(e.Executor)
	}
	return out
}

func fromSlot(slot form.ExecutorSlot) *Executor {
	out := &Executor{State: slot.State().String()}
	if exec, ok := slot.Embedded(); ok {
		out.Type = exec.ExecutorType()
	}
	if ref, ok := slot.Reference(); ok {
		out.Reference = ref
		out.Arguments = maps.Clone(slot.Arguments())
	}
	return out
}

func visible(values map[string]any) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		if form.IsUnset(v) {
			continue
		}
		out[k] = v
	}
	return out
}
