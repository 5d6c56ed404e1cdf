// Package document holds the in-memory configuration document the editor
// commits into. It addresses nodes by the same ids the navigation frames
// carry and is the default ports.DocumentSink.
package document

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/aretw0/pipeforge/pkg/domain"
	"github.com/aretw0/pipeforge/pkg/ports"
)

// ErrNodeNotFound is returned when an id addresses nothing in the document.
var ErrNodeNotFound = errors.New("document node not found")

// ErrInvalidID is returned for ids that do not follow the addressing scheme.
var ErrInvalidID = errors.New("invalid node id")

// OrbImport is an entry of the document's orbs section.
type OrbImport struct {
	// Namespace is the local alias the document uses ("node").
	Namespace string
	// Ref is the registry reference ("circleci/node@5.1.0").
	Ref string
}

// Version returns the part of Ref after "@", if any.
func (o OrbImport) Version() string {
	if _, v, ok := strings.Cut(o.Ref, "@"); ok {
		return v
	}
	return ""
}

// Workflow is a named list of staged jobs.
type Workflow struct {
	Name string
	Jobs []*domain.WorkflowJob
}

// Document is a parsed pipeline configuration. Sections keep document order.
type Document struct {
	Version   string
	Orbs      []OrbImport
	Executors []*domain.ReusableExecutor
	Commands  []*domain.Command
	Jobs      []*domain.Job
	Workflows []*Workflow
}

var (
	_ ports.DocumentSink      = (*Document)(nil)
	_ ports.ReferenceRewriter = (*Document)(nil)
)

// NodeID addresses a top-level definition.
func NodeID(kind domain.Kind, name string) string {
	return string(kind) + "/" + name
}

// WorkflowJobID addresses the index-th staged job of a workflow.
func WorkflowJobID(workflow string, index int) string {
	return "workflows/" + workflow + "/jobs/" + strconv.Itoa(index)
}

type address struct {
	kind     domain.Kind
	name     string
	workflow string
	index    int
}

func parseID(id string) (address, error) {
	parts := strings.Split(id, "/")
	switch {
	case len(parts) == 2 && domain.Kind(parts[0]).Registrable():
		return address{kind: domain.Kind(parts[0]), name: parts[1]}, nil
	case len(parts) == 4 && parts[0] == "workflows" && parts[2] == "jobs":
		i, err := strconv.Atoi(parts[3])
		if err != nil || i < 0 {
			return address{}, fmt.Errorf("%w: %q", ErrInvalidID, id)
		}
		return address{kind: domain.KindWorkflowJob, workflow: parts[1], index: i}, nil
	default:
		return address{}, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
}

// Node returns the node addressed by id.
func (d *Document) Node(id string) (domain.Node, error) {
	addr, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var node domain.Node
	switch addr.kind {
	case domain.KindExecutor:
		if i := indexByName(d.Executors, addr.name); i >= 0 {
			node = d.Executors[i]
		}
	case domain.KindCommand:
		if i := indexByName(d.Commands, addr.name); i >= 0 {
			node = d.Commands[i]
		}
	case domain.KindJob:
		if i := indexByName(d.Jobs, addr.name); i >= 0 {
			node = d.Jobs[i]
		}
	case domain.KindWorkflowJob:
		if wf := d.Workflow(addr.workflow); wf != nil && addr.index < len(wf.Jobs) {
			node = wf.Jobs[addr.index]
		}
	}
	if node == nil {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	return node, nil
}

// UpdateNode replaces the node addressed by id. A definition id whose name is
// not present yet appends a new definition; a renamed node keeps the position
// of the one it replaces. A staged job index equal to the workflow length
// appends.
func (d *Document) UpdateNode(id string, node domain.Node) error {
	addr, err := parseID(id)
	if err != nil {
		return err
	}
	if node == nil || node.NodeKind() != addr.kind {
		return fmt.Errorf("%w: cannot store %T at %s", domain.ErrKindMismatch, node, id)
	}
	switch n := node.(type) {
	case *domain.ReusableExecutor:
		d.Executors = upsert(d.Executors, addr.name, n)
	case *domain.Command:
		d.Commands = upsert(d.Commands, addr.name, n)
	case *domain.Job:
		d.Jobs = upsert(d.Jobs, addr.name, n)
	case *domain.WorkflowJob:
		wf := d.Workflow(addr.workflow)
		if wf == nil {
			return fmt.Errorf("%w: workflow %q", ErrNodeNotFound, addr.workflow)
		}
		switch {
		case addr.index < len(wf.Jobs):
			wf.Jobs[addr.index] = n
		case addr.index == len(wf.Jobs):
			wf.Jobs = append(wf.Jobs, n)
		default:
			return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
		}
	default:
		return fmt.Errorf("%w: %T", domain.ErrUnsupportedVariant, node)
	}
	return nil
}

// RenameReferences rewrites every use of the definition named from so that
// it points at to: staged jobs for jobs, executor references for executors
// and steps for commands. Nodes are updated in place.
func (d *Document) RenameReferences(kind domain.Kind, from string, to domain.Node) int {
	if to == nil || to.NodeKind() != kind {
		return 0
	}
	n := 0
	switch def := to.(type) {
	case *domain.Job:
		for _, wf := range d.Workflows {
			for _, wj := range wf.Jobs {
				if wj.Source == from {
					wj.Source, wj.Job = def.Name, def
					n++
				}
			}
		}
	case *domain.ReusableExecutor:
		for _, job := range d.Jobs {
			if ref, ok := job.Executor.(*domain.ExecutorRef); ok && ref.Name == from {
				ref.Name, ref.Definition = def.Name, def
				n++
			}
		}
	case *domain.Command:
		for _, c := range d.Commands {
			n += renameSteps(c.Steps, from, def.Name)
		}
		for _, job := range d.Jobs {
			n += renameSteps(job.Steps, from, def.Name)
		}
		for _, wf := range d.Workflows {
			for _, wj := range wf.Jobs {
				n += renameSteps(wj.PreSteps, from, def.Name)
				n += renameSteps(wj.PostSteps, from, def.Name)
			}
		}
	}
	return n
}

func renameSteps(steps []domain.Step, from, to string) int {
	n := 0
	for i := range steps {
		if steps[i].Command == from {
			steps[i].Command = to
			n++
		}
	}
	return n
}

// Workflow returns the named workflow, or nil.
func (d *Document) Workflow(name string) *Workflow {
	for _, wf := range d.Workflows {
		if wf.Name == name {
			return wf
		}
	}
	return nil
}

func indexByName[T domain.Node](nodes []T, name string) int {
	return slices.IndexFunc(nodes, func(n T) bool { return n.NodeName() == name })
}

func upsert[T domain.Node](nodes []T, name string, node T) []T {
	if i := indexByName(nodes, name); i >= 0 {
		nodes[i] = node
		return nodes
	}
	return append(nodes, node)
}
