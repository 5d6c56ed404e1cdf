package form

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/aretw0/pipeforge/internal/logging"
	"github.com/aretw0/pipeforge/pkg/domain"
	"github.com/aretw0/pipeforge/pkg/ports"
)

// Resolver is the view of the definition registry the bridge needs.
type Resolver interface {
	Resolve(kind domain.Kind, ref domain.Reference) (domain.Node, error)
	Available(kind domain.Kind) []domain.Definition
}

// Bridge converts between edited entities and typed nodes.
type Bridge struct {
	parser ports.Parser
	logger *slog.Logger
}

// Option configures the Bridge.
type Option func(*Bridge)

// WithLogger configures a logger for the Bridge.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// NewBridge creates a bridge backed by parser.
func NewBridge(parser ports.Parser, opts ...Option) *Bridge {
	b := &Bridge{parser: parser, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ToForm builds the editable value of a node. The executor slot gets exactly
// one variant populated. Nodes of unknown types, and executors other than the
// recognised inline ones or a reference, yield ErrUnsupportedVariant.
func (b *Bridge) ToForm(node domain.Node) (*EditedEntity, error) {
	var (
		e   *EditedEntity
		err error
	)
	switch n := node.(type) {
	case *domain.Job:
		e = NewEntity(domain.KindJob)
		e.Values[KeyName] = n.Name
		e.Lists[KeySteps] = cloneSteps(n.Steps)
		e.Specs = slices.Clone(n.Parameters)
		e.Executor, err = slotFrom(n.Executor)

	case *domain.Command:
		e = NewEntity(domain.KindCommand)
		e.Values[KeyName] = n.Name
		if n.Description != "" {
			e.Values[KeyDescription] = n.Description
		}
		e.Lists[KeySteps] = cloneSteps(n.Steps)
		e.Specs = slices.Clone(n.Parameters)

	case *domain.ReusableExecutor:
		if _, isRef := n.Executor.(*domain.ExecutorRef); isRef {
			return nil, fmt.Errorf("%w: executor definition %q wraps a reference", domain.ErrUnsupportedVariant, n.Name)
		}
		e = NewEntity(domain.KindExecutor)
		e.Values[KeyName] = n.Name
		e.Specs = slices.Clone(n.Parameters)
		e.Executor, err = slotFrom(n.Executor)

	case *domain.WorkflowJob:
		e = NewEntity(domain.KindWorkflowJob)
		e.Values[KeySource] = n.Source
		e.Parameters = InitialWorkflowJobValues(n)

	case domain.Executor:
		e = NewEntity(domain.KindExecutor)
		e.Executor, err = slotFrom(n)

	default:
		return nil, fmt.Errorf("%w: %T", domain.ErrUnsupportedVariant, node)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ToModel validates an entity and builds the typed node it describes.
//
// A referenced executor is resolved through reg first, so an unknown name
// fails with ErrReferenceNotFound. An unnamed executor entity stands for the
// slot itself: a reference returns the registry's node, an inline executor is
// returned as is. Everything else is drafted, serialized and parsed again
// with reg's definitions as context; parser failures come back as
// *domain.ParseError. The entity is never modified.
func (b *Bridge) ToModel(e *EditedEntity, reg Resolver) (domain.Node, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: nil entity", domain.ErrUnsupportedVariant)
	}

	if e.Kind == domain.KindWorkflowJob {
		return b.SubmitWorkflowJob(e, reg)
	}

	var resolved domain.Node
	if name, ok := e.Executor.Reference(); ok {
		ref, err := domain.ParseReference(name)
		if err != nil {
			return nil, err
		}
		if resolved, err = reg.Resolve(domain.KindExecutor, ref); err != nil {
			return nil, err
		}
	}

	var draft domain.Node
	switch e.Kind {
	case domain.KindJob:
		name, err := requiredValue(e, KeyName)
		if err != nil {
			return nil, err
		}
		if e.Executor.State() == SlotEmpty {
			return nil, &domain.MissingRequiredFieldError{Field: "executor"}
		}
		steps, err := requiredList(e, KeySteps)
		if err != nil {
			return nil, err
		}
		draft = &domain.Job{Name: name, Executor: e.Executor.draft(), Steps: steps, Parameters: slices.Clone(e.Specs)}

	case domain.KindCommand:
		name, err := requiredValue(e, KeyName)
		if err != nil {
			return nil, err
		}
		steps, err := requiredList(e, KeySteps)
		if err != nil {
			return nil, err
		}
		desc, _ := e.Values[KeyDescription].(string)
		draft = &domain.Command{Name: name, Description: desc, Steps: steps, Parameters: slices.Clone(e.Specs)}

	case domain.KindExecutor:
		if e.Name() == "" {
			switch e.Executor.State() {
			case SlotReferenced:
				return resolved, nil
			case SlotEmbedded:
				exec, _ := e.Executor.Embedded()
				return exec, nil
			default:
				return nil, &domain.MissingRequiredFieldError{Field: "executor"}
			}
		}
		exec, ok := e.Executor.Embedded()
		if !ok {
			return nil, fmt.Errorf("%w: executor definition %q needs an inline executor", domain.ErrUnsupportedVariant, e.Name())
		}
		draft = &domain.ReusableExecutor{Name: e.Name(), Executor: exec, Parameters: slices.Clone(e.Specs)}

	default:
		return nil, fmt.Errorf("%w: cannot build a %s", domain.ErrUnsupportedVariant, e.Kind.Noun())
	}

	return b.reparse(e.Kind, draft, reg.Available(domain.KindExecutor))
}

// SubmitWorkflowJob builds a staged job from its form values. The values are
// merged over the staged-job defaults, Unset keys are dropped and the result
// is parsed against the registry's jobs.
func (b *Bridge) SubmitWorkflowJob(e *EditedEntity, reg Resolver) (*domain.WorkflowJob, error) {
	source, err := requiredValue(e, KeySource)
	if err != nil {
		return nil, err
	}
	params := Compact(Merge(InitialWorkflowJobValues(nil), e.Parameters))

	draft := &domain.WorkflowJob{Source: source}
	for k, v := range params {
		switch k {
		case KeyName:
			name, ok := v.(string)
			if !ok {
				return nil, &domain.ParseError{Kind: domain.KindWorkflowJob, Err: fmt.Errorf("name must be a string, got %T", v)}
			}
			draft.Name = name
		case KeyPreSteps, KeyPostSteps:
			steps, ok := stepsValue(v)
			if !ok {
				return nil, &domain.ParseError{Kind: domain.KindWorkflowJob, Err: fmt.Errorf("%s must be a step list, got %T", k, v)}
			}
			if k == KeyPreSteps {
				draft.PreSteps = steps
			} else {
				draft.PostSteps = steps
			}
		default:
			if draft.Parameters == nil {
				draft.Parameters = make(map[string]any)
			}
			draft.Parameters[k] = v
		}
	}

	node, err := b.reparse(domain.KindWorkflowJob, draft, reg.Available(domain.KindJob))
	if err != nil {
		return nil, err
	}
	return node.(*domain.WorkflowJob), nil
}

func (b *Bridge) reparse(kind domain.Kind, draft domain.Node, available []domain.Definition) (domain.Node, error) {
	raw, err := b.parser.Serialize(draft)
	if err != nil {
		return nil, err
	}
	node, err := b.parser.Parse(kind, raw, available)
	if err != nil {
		b.logger.Debug("submit rejected by parser", "kind", kind, "name", draft.NodeName(), "err", err)
		return nil, err
	}
	return node, nil
}

func requiredValue(e *EditedEntity, key string) (string, error) {
	v, ok := e.Values[key]
	if !ok || IsUnset(v) {
		return "", &domain.MissingRequiredFieldError{Field: key}
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", &domain.MissingRequiredFieldError{Field: key}
	}
	return s, nil
}

func requiredList(e *EditedEntity, key string) ([]domain.Step, error) {
	steps := e.Lists[key]
	if len(steps) == 0 {
		return nil, &domain.MissingRequiredFieldError{Field: key}
	}
	return cloneSteps(steps), nil
}
