package compiler

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/pipeforge/internal/logging"
	"github.com/aretw0/pipeforge/pkg/domain"
	"github.com/aretw0/pipeforge/pkg/ports"
)

// Parser is responsible for converting raw configuration values into typed
// nodes and back. Raw values use the document's own shape: maps keyed by
// strings, slices and scalars, exactly as produced by a YAML decoder.
type Parser struct {
	logger *slog.Logger
}

var _ ports.Parser = (*Parser)(nil)

// Option configures the Parser.
type Option func(*Parser)

// WithLogger configures a logger for the Parser.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// NewParser creates a new parser instance.
func NewParser(opts ...Option) *Parser {
	p := &Parser{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse decodes raw into a node of the given kind. available is the ordered
// resolution context for references found inside raw: executors for jobs,
// jobs for workflow jobs.
func (p *Parser) Parse(kind domain.Kind, raw any, available []domain.Definition) (domain.Node, error) {
	var (
		node domain.Node
		err  error
	)
	switch kind {
	case domain.KindExecutor:
		node, err = p.parseReusableExecutor(raw)
	case domain.KindJob:
		node, err = p.parseJob(raw, available)
	case domain.KindCommand:
		node, err = p.parseCommand(raw)
	case domain.KindWorkflowJob:
		node, err = p.parseWorkflowJob(raw, available)
	default:
		err = fmt.Errorf("%w: cannot parse kind %q", domain.ErrUnsupportedVariant, kind)
	}
	if err != nil {
		p.logger.Debug("parse failed", "kind", kind, "err", err)
		return nil, &domain.ParseError{Kind: kind, Err: err}
	}
	return node, nil
}

// Serialize encodes a node back into its raw document shape.
func (p *Parser) Serialize(node domain.Node) (any, error) {
	switch n := node.(type) {
	case *domain.ReusableExecutor:
		return serializeReusableExecutor(n)
	case *domain.Job:
		return serializeJob(n)
	case *domain.Command:
		return serializeCommand(n), nil
	case *domain.WorkflowJob:
		return serializeWorkflowJob(n), nil
	case domain.Executor:
		return serializeExecutorUsage(n)
	default:
		return nil, fmt.Errorf("%w: cannot serialize %T", domain.ErrUnsupportedVariant, node)
	}
}

func (p *Parser) parseReusableExecutor(raw any) (*domain.ReusableExecutor, error) {
	m, err := asMap(raw)
	if err != nil {
		return nil, err
	}
	name, err := requiredString(m, keyName)
	if err != nil {
		return nil, err
	}
	exec, err := parseEmbeddedExecutor(m)
	if err != nil {
		return nil, err
	}
	if exec == nil {
		return nil, fmt.Errorf("executor %q declares none of %v", name, domain.EmbeddedExecutorTypes)
	}
	params, err := parseParameterSpecs(m[keyParameters])
	if err != nil {
		return nil, err
	}
	return &domain.ReusableExecutor{Name: name, Executor: exec, Parameters: params}, nil
}

func (p *Parser) parseJob(raw any, available []domain.Definition) (*domain.Job, error) {
	m, err := asMap(raw)
	if err != nil {
		return nil, err
	}
	name, err := requiredString(m, keyName)
	if err != nil {
		return nil, err
	}

	var exec domain.Executor
	embedded, err := parseEmbeddedExecutor(m)
	if err != nil {
		return nil, err
	}
	if ref, ok := m[keyExecutor]; ok {
		if embedded != nil {
			return nil, fmt.Errorf("job %q declares both a named and an embedded executor", name)
		}
		exec, err = parseExecutorRef(ref, available)
		if err != nil {
			return nil, err
		}
	} else if embedded != nil {
		exec = embedded
	} else {
		return nil, &domain.MissingRequiredFieldError{Field: keyExecutor}
	}

	steps, err := parseSteps(m[keySteps])
	if err != nil {
		return nil, fmt.Errorf("job %q: %w", name, err)
	}
	if len(steps) == 0 {
		return nil, &domain.MissingRequiredFieldError{Field: keySteps}
	}
	params, err := parseParameterSpecs(m[keyParameters])
	if err != nil {
		return nil, err
	}

	return &domain.Job{Name: name, Executor: exec, Steps: steps, Parameters: params}, nil
}

func (p *Parser) parseCommand(raw any) (*domain.Command, error) {
	m, err := asMap(raw)
	if err != nil {
		return nil, err
	}
	name, err := requiredString(m, keyName)
	if err != nil {
		return nil, err
	}
	steps, err := parseSteps(m[keySteps])
	if err != nil {
		return nil, fmt.Errorf("command %q: %w", name, err)
	}
	if len(steps) == 0 {
		return nil, &domain.MissingRequiredFieldError{Field: keySteps}
	}
	params, err := parseParameterSpecs(m[keyParameters])
	if err != nil {
		return nil, err
	}
	desc, _ := m[keyDescription].(string)
	return &domain.Command{Name: name, Description: desc, Steps: steps, Parameters: params}, nil
}

func serializeJob(j *domain.Job) (map[string]any, error) {
	out := map[string]any{keyName: j.Name}
	if j.Executor != nil {
		exec, err := serializeExecutorUsage(j.Executor)
		if err != nil {
			return nil, err
		}
		for k, v := range exec {
			out[k] = v
		}
	}
	out[keySteps] = serializeSteps(j.Steps)
	if len(j.Parameters) > 0 {
		out[keyParameters] = serializeParameterSpecs(j.Parameters)
	}
	return out, nil
}

func serializeCommand(c *domain.Command) map[string]any {
	out := map[string]any{
		keyName:  c.Name,
		keySteps: serializeSteps(c.Steps),
	}
	if c.Description != "" {
		out[keyDescription] = c.Description
	}
	if len(c.Parameters) > 0 {
		out[keyParameters] = serializeParameterSpecs(c.Parameters)
	}
	return out
}
