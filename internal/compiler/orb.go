package compiler

import (
	"fmt"

	"github.com/aretw0/pipeforge/pkg/domain"
	"gopkg.in/yaml.v3"
)

// DecodeOrb parses an orb manifest: a version plus executors, commands and
// jobs sections shaped like a document's. Jobs inside an orb resolve
// executors against the orb's own executors only.
func (p *Parser) DecodeOrb(namespace string, data []byte) (*domain.Orb, error) {
	root, err := decodeRoot(data)
	if err != nil {
		return nil, fmt.Errorf("orb %q: %w", namespace, err)
	}
	orb := &domain.Orb{Namespace: namespace}
	if v := section(root, sectionVersion); v != nil {
		orb.Version = v.Value
	}

	local := func(kind domain.Kind) []domain.Definition {
		var out []domain.Definition
		for _, n := range orb.Entities(kind) {
			out = append(out, domain.Definition{Name: n.NodeName(), Kind: kind, Value: n})
		}
		return out
	}
	for _, kind := range []domain.Kind{domain.KindExecutor, domain.KindCommand, domain.KindJob} {
		nodes, err := p.parseSection(root, kind, local)
		if err != nil {
			return nil, fmt.Errorf("orb %q: %w", namespace, err)
		}
		for _, n := range nodes {
			switch v := n.(type) {
			case *domain.ReusableExecutor:
				orb.Executors = append(orb.Executors, v)
			case *domain.Command:
				orb.Commands = append(orb.Commands, v)
			case *domain.Job:
				orb.Jobs = append(orb.Jobs, v)
			}
		}
	}
	return orb, nil
}

// EncodeOrb serializes an orb into its manifest form.
func (p *Parser) EncodeOrb(orb *domain.Orb) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	if orb.Version != "" {
		appendScalar(root, sectionVersion, orb.Version)
	}
	for _, kind := range []domain.Kind{domain.KindExecutor, domain.KindCommand, domain.KindJob} {
		if err := p.encodeSection(root, kind, orb.Entities(kind)); err != nil {
			return nil, fmt.Errorf("orb %q: %w", orb.Namespace, err)
		}
	}
	return encodeYAML(root)
}
