package registry

import (
	"github.com/aretw0/pipeforge/pkg/domain"
)

// ImportOrb adds or replaces an imported orb. Replacing keeps the orb's
// original position in option lists.
func (r *Registry) ImportOrb(orb *domain.Orb) {
	if orb == nil || orb.Namespace == "" {
		return
	}
	if _, exists := r.orbs[orb.Namespace]; !exists {
		r.orbSeq = append(r.orbSeq, orb.Namespace)
	}
	r.orbs[orb.Namespace] = orb
	r.version++
	r.logger.Debug("orb imported", "namespace", orb.Namespace, "version", orb.Version, "materialized", orb.Materialized())
}

// Orb returns an imported orb by namespace.
func (r *Registry) Orb(namespace string) (*domain.Orb, bool) {
	orb, ok := r.orbs[namespace]
	return orb, ok
}

// Orbs returns the imported orbs in import order.
func (r *Registry) Orbs() []*domain.Orb {
	out := make([]*domain.Orb, 0, len(r.orbSeq))
	for _, ns := range r.orbSeq {
		out = append(out, r.orbs[ns])
	}
	return out
}

// Choice is an entry of a selection list.
type Choice struct {
	// Value is the reference string stored when the option is picked.
	Value string
	Node  domain.Node
}

// Options lists every selectable reference of a kind: local definitions
// first, then orb entities as "namespace/name". Entries that do not resolve
// are treated as unavailable and left out.
func (r *Registry) Options(kind domain.Kind) []Choice {
	var out []Choice
	for def := range r.AllOfKind(kind) {
		out = append(out, Choice{Value: def.Name, Node: def.Value})
	}
	for _, orb := range r.Orbs() {
		for _, n := range orb.Entities(kind) {
			ref := domain.Namespaced(orb.Namespace, n.NodeName())
			node, err := r.Resolve(kind, ref)
			if err != nil {
				r.logger.Debug("option unavailable", "kind", kind, "ref", ref.String(), "err", err)
				continue
			}
			out = append(out, Choice{Value: ref.String(), Node: node})
		}
	}
	return out
}

// Available returns the ordered resolution context handed to the parser:
// local definitions under their own names, then orb entities under their
// namespaced names.
func (r *Registry) Available(kind domain.Kind) []domain.Definition {
	opts := r.Options(kind)
	out := make([]domain.Definition, 0, len(opts))
	for _, o := range opts {
		out = append(out, domain.Definition{Name: o.Value, Kind: kind, Value: o.Node})
	}
	return out
}
