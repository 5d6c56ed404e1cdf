package navigation

import "github.com/aretw0/pipeforge/pkg/domain"

// Prop keys shared by the built-in components.
const (
	PropName       = "name"
	PropNodeID     = "id"
	PropSource     = "source"
	PropValues     = "values"
	PropParameters = "parameters"
	PropKind       = "kind"
)

// PropExecutorType is the variant of an inline executor (docker, machine or
// macos).
const PropExecutorType = "executorType"

// Pass-through keys.
const (
	PassDataType = "dataType"
	PassTarget   = "target"
)

// Descriptor is a Component built from plain functions.
type Descriptor struct {
	Name      string
	LabelFunc func(Props) string
	IconFunc  func(Props) string
}

func (d Descriptor) ID() string { return d.Name }

func (d Descriptor) Label(p Props) string {
	if d.LabelFunc == nil {
		return d.Name
	}
	return d.LabelFunc(p)
}

func (d Descriptor) Icon(p Props) string {
	if d.IconFunc == nil {
		return ""
	}
	return d.IconFunc(p)
}

func staticIcon(icon string) func(Props) string {
	return func(Props) string { return icon }
}

func nameOr(fallback string) func(Props) string {
	return func(p Props) string {
		if n := p.String(PropName); n != "" {
			return n
		}
		return fallback
	}
}

var (
	// DefinitionsRoot is the root frame listing every definition.
	DefinitionsRoot = Descriptor{Name: "definitions", LabelFunc: func(Props) string { return "Definitions" }, IconFunc: staticIcon("definitions")}

	// JobEditor edits a job definition.
	JobEditor = Descriptor{Name: "job-inspector", LabelFunc: nameOr("New Job"), IconFunc: staticIcon("job")}

	// ExecutorEditor edits an executor definition.
	ExecutorEditor = Descriptor{Name: "executor-inspector", LabelFunc: nameOr("New Executor"), IconFunc: executorIcon}

	// CommandEditor edits a reusable command.
	CommandEditor = Descriptor{Name: "command-inspector", LabelFunc: nameOr("New Command"), IconFunc: staticIcon("command")}

	// StepTypeMenu picks the type of a new step.
	StepTypeMenu = Descriptor{Name: "step-type-menu", LabelFunc: func(Props) string { return "Select Step Type" }, IconFunc: staticIcon("command")}

	// StagedJobEditor edits a job staged in a workflow. Its label is the staged
	// name when set, otherwise the source job's name.
	StagedJobEditor = Descriptor{Name: "staged-job-menu", LabelFunc: stagedJobLabel, IconFunc: staticIcon("job")}
)

// executorIcon shows the executor variant when the frame knows it.
func executorIcon(p Props) string {
	switch t := p.String(PropExecutorType); t {
	case domain.ExecutorDocker, domain.ExecutorMachine, domain.ExecutorMacOS:
		return t
	default:
		return "executor"
	}
}

func stagedJobLabel(p Props) string {
	if values, ok := p[PropValues].(map[string]any); ok {
		if params, ok := values[PropParameters].(map[string]any); ok {
			if name, ok := params[PropName].(string); ok && name != "" {
				return name
			}
		}
	}
	switch src := p[PropSource].(type) {
	case domain.Node:
		return src.NodeName()
	case string:
		return src
	}
	return ""
}

// SubTypeMenu builds the frame for a "choose a sub-type" menu. values are
// the parent's in-progress form values; passThrough tells the menu where the
// chosen entry must be inserted.
func SubTypeMenu(menu Component, values map[string]any, passThrough map[string]any) Frame {
	return Frame{
		Component:   menu,
		Props:       Props{PropValues: values},
		PassThrough: passThrough,
	}
}
