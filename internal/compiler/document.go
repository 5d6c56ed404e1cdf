package compiler

import (
	"bytes"
	"fmt"
	"maps"

	"github.com/aretw0/pipeforge/internal/document"
	"github.com/aretw0/pipeforge/pkg/domain"
	"github.com/aretw0/pipeforge/pkg/registry"
	"gopkg.in/yaml.v3"
)

const (
	sectionVersion   = "version"
	sectionOrbs      = "orbs"
	sectionWorkflows = "workflows"
)

type entry struct {
	key   string
	value *yaml.Node
}

func decodeRoot(data []byte) (*yaml.Node, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	if len(root.Content) == 0 {
		return &yaml.Node{Kind: yaml.MappingNode}, nil
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("document root must be a mapping")
	}
	return top, nil
}

// entries lists the pairs of a mapping node in document order. A missing or
// null section has no entries.
func entries(n *yaml.Node) ([]entry, error) {
	if n == nil || n.Tag == "!!null" {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping", n.Line)
	}
	out := make([]entry, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out = append(out, entry{key: n.Content[i].Value, value: n.Content[i+1]})
	}
	return out, nil
}

func section(root *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == key {
			return root.Content[i+1]
		}
	}
	return nil
}

// ScanImports returns the orbs a document imports without parsing anything
// else, so they can be materialized before the document is loaded.
func ScanImports(data []byte) ([]document.OrbImport, error) {
	root, err := decodeRoot(data)
	if err != nil {
		return nil, err
	}
	return parseImports(root)
}

func parseImports(root *yaml.Node) ([]document.OrbImport, error) {
	items, err := entries(section(root, sectionOrbs))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sectionOrbs, err)
	}
	var out []document.OrbImport
	for _, it := range items {
		if it.value.Kind != yaml.ScalarNode {
			// Inline orb bodies are not supported.
			return nil, fmt.Errorf("%s.%s: %w: inline orb", sectionOrbs, it.key, domain.ErrUnsupportedVariant)
		}
		out = append(out, document.OrbImport{Namespace: it.key, Ref: it.value.Value})
	}
	return out, nil
}

// ParseDocument decodes a configuration document and registers its
// definitions in reg as they are parsed: executors, then commands, then
// jobs, then workflows. Jobs and workflows therefore resolve against
// everything declared before them plus whatever orbs reg already holds.
func (p *Parser) ParseDocument(data []byte, reg *registry.Registry) (*document.Document, error) {
	root, err := decodeRoot(data)
	if err != nil {
		return nil, err
	}
	doc := &document.Document{}
	if v := section(root, sectionVersion); v != nil {
		doc.Version = v.Value
	}
	if doc.Orbs, err = parseImports(root); err != nil {
		return nil, err
	}
	for _, imp := range doc.Orbs {
		if _, ok := reg.Orb(imp.Namespace); !ok {
			reg.ImportOrb(&domain.Orb{Namespace: imp.Namespace, Version: imp.Version()})
		}
	}

	for _, kind := range []domain.Kind{domain.KindExecutor, domain.KindCommand, domain.KindJob} {
		nodes, err := p.parseSection(root, kind, reg.Available)
		if err != nil {
			return nil, err
		}
		for _, n := range nodes {
			if err := reg.Register(kind, n.NodeName(), n, false); err != nil {
				return nil, fmt.Errorf("%s: %w", kind, err)
			}
			switch v := n.(type) {
			case *domain.ReusableExecutor:
				doc.Executors = append(doc.Executors, v)
			case *domain.Command:
				doc.Commands = append(doc.Commands, v)
			case *domain.Job:
				doc.Jobs = append(doc.Jobs, v)
			}
		}
	}

	if doc.Workflows, err = p.parseWorkflows(root, reg.Available(domain.KindJob)); err != nil {
		return nil, err
	}
	p.logger.Debug("document parsed",
		"executors", len(doc.Executors), "commands", len(doc.Commands),
		"jobs", len(doc.Jobs), "workflows", len(doc.Workflows), "orbs", len(doc.Orbs))
	return doc, nil
}

// parseSection parses every named entity of a section. available is asked
// for the resolution context of the section's kind.
func (p *Parser) parseSection(root *yaml.Node, kind domain.Kind, available func(domain.Kind) []domain.Definition) ([]domain.Node, error) {
	items, err := entries(section(root, string(kind)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	var context []domain.Definition
	if kind == domain.KindJob {
		context = available(domain.KindExecutor)
	}
	nodes := make([]domain.Node, 0, len(items))
	for _, it := range items {
		raw, err := namedRaw(it)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", kind, it.key, err)
		}
		node, err := p.Parse(kind, raw, context)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", kind, it.key, err)
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// namedRaw decodes a section entry and injects its key as the name.
func namedRaw(it entry) (map[string]any, error) {
	var raw any
	if err := it.value.Decode(&raw); err != nil {
		return nil, err
	}
	m := map[string]any{}
	if raw != nil {
		decoded, err := asMap(raw)
		if err != nil {
			return nil, err
		}
		m = maps.Clone(decoded)
	}
	m[keyName] = it.key
	return m, nil
}

func (p *Parser) parseWorkflows(root *yaml.Node, jobs []domain.Definition) ([]*document.Workflow, error) {
	items, err := entries(section(root, sectionWorkflows))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sectionWorkflows, err)
	}
	var out []*document.Workflow
	for _, it := range items {
		// Skips legacy scalar entries such as "version: 2".
		if it.value.Kind != yaml.MappingNode {
			continue
		}
		wf := &document.Workflow{Name: it.key}
		staged := section(it.value, string(domain.KindJob))
		if staged != nil && staged.Tag != "!!null" {
			if staged.Kind != yaml.SequenceNode {
				return nil, fmt.Errorf("%s.%s.jobs: expected a list", sectionWorkflows, it.key)
			}
			for i, item := range staged.Content {
				var raw any
				if err := item.Decode(&raw); err != nil {
					return nil, fmt.Errorf("%s.%s.jobs[%d]: %w", sectionWorkflows, it.key, i, err)
				}
				node, err := p.Parse(domain.KindWorkflowJob, raw, jobs)
				if err != nil {
					return nil, fmt.Errorf("%s.%s.jobs[%d]: %w", sectionWorkflows, it.key, i, err)
				}
				wf.Jobs = append(wf.Jobs, node.(*domain.WorkflowJob))
			}
		}
		out = append(out, wf)
	}
	return out, nil
}

// EncodeDocument serializes a document. Sections and entities keep their
// document order.
func (p *Parser) EncodeDocument(doc *document.Document) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	if doc.Version != "" {
		appendScalar(root, sectionVersion, doc.Version)
	}
	if len(doc.Orbs) > 0 {
		orbs := &yaml.Node{Kind: yaml.MappingNode}
		for _, imp := range doc.Orbs {
			appendScalar(orbs, imp.Namespace, imp.Ref)
		}
		appendPair(root, sectionOrbs, orbs)
	}

	if err := p.encodeSection(root, domain.KindExecutor, nodesOf(doc.Executors)); err != nil {
		return nil, err
	}
	if err := p.encodeSection(root, domain.KindCommand, nodesOf(doc.Commands)); err != nil {
		return nil, err
	}
	if err := p.encodeSection(root, domain.KindJob, nodesOf(doc.Jobs)); err != nil {
		return nil, err
	}

	if len(doc.Workflows) > 0 {
		workflows := &yaml.Node{Kind: yaml.MappingNode}
		for _, wf := range doc.Workflows {
			list := &yaml.Node{Kind: yaml.SequenceNode}
			for _, wj := range wf.Jobs {
				n, err := toNode(serializeWorkflowJob(wj))
				if err != nil {
					return nil, err
				}
				list.Content = append(list.Content, n)
			}
			body := &yaml.Node{Kind: yaml.MappingNode}
			appendPair(body, string(domain.KindJob), list)
			appendPair(workflows, wf.Name, body)
		}
		appendPair(root, sectionWorkflows, workflows)
	}
	return encodeYAML(root)
}

func (p *Parser) encodeSection(root *yaml.Node, kind domain.Kind, nodes []domain.Node) error {
	if len(nodes) == 0 {
		return nil
	}
	sec := &yaml.Node{Kind: yaml.MappingNode}
	for _, n := range nodes {
		raw, err := p.Serialize(n)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", kind, n.NodeName(), err)
		}
		body := maps.Clone(raw.(map[string]any))
		delete(body, keyName)
		v, err := toNode(body)
		if err != nil {
			return err
		}
		appendPair(sec, n.NodeName(), v)
	}
	appendPair(root, string(kind), sec)
	return nil
}

func nodesOf[T domain.Node](in []T) []domain.Node {
	out := make([]domain.Node, 0, len(in))
	for _, n := range in {
		out = append(out, n)
	}
	return out
}

func toNode(v any) (*yaml.Node, error) {
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return &n, nil
}

func appendPair(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, value)
}

func appendScalar(m *yaml.Node, key, value string) {
	appendPair(m, key, &yaml.Node{Kind: yaml.ScalarNode, Value: value})
}

func encodeYAML(root *yaml.Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("failed to encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
