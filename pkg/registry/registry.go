package registry

import (
	"fmt"
	"iter"
	"log/slog"
	"slices"

	"github.com/aretw0/pipeforge/internal/logging"
	"github.com/aretw0/pipeforge/pkg/domain"
)

// Registry holds the named reusable definitions of one open document and the
// orbs it imports. It is owned by a single editor session and is not safe for
// concurrent use.
type Registry struct {
	defs    map[domain.Kind]*table
	orbs    map[string]*domain.Orb
	orbSeq  []string
	version uint64
	logger  *slog.Logger
}

// table keeps one kind's definitions in registration order.
type table struct {
	order []string
	byKey map[string]domain.Node
}

func newTable() *table {
	return &table{byKey: make(map[string]domain.Node)}
}

// Option configures the Registry.
type Option func(*Registry)

// WithLogger configures a logger for the Registry.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New creates a new empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		defs:   make(map[domain.Kind]*table),
		orbs:   make(map[string]*domain.Orb),
		logger: logging.NewNop(),
	}
	for _, k := range domain.DefinitionKinds {
		r.defs[k] = newTable()
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a definition. If a definition with the same name exists it is
// overwritten in place when overwrite is true, otherwise ErrDuplicateName is
// returned and the registry is left unchanged.
func (r *Registry) Register(kind domain.Kind, name string, value domain.Node, overwrite bool) error {
	t, ok := r.defs[kind]
	if !ok {
		return fmt.Errorf("%w: %s is not a definition kind", domain.ErrKindMismatch, kind)
	}
	if name == "" {
		return &domain.MissingRequiredFieldError{Field: "name"}
	}
	if value == nil || value.NodeKind() != kind {
		return fmt.Errorf("%w: cannot register %T as %s", domain.ErrKindMismatch, value, kind.Noun())
	}

	if _, exists := t.byKey[name]; exists {
		if !overwrite {
			return fmt.Errorf("%w: %s %q", domain.ErrDuplicateName, kind.Noun(), name)
		}
	} else {
		t.order = append(t.order, name)
	}
	t.byKey[name] = value
	r.version++

	r.logger.Debug("definition registered", "kind", kind, "name", name, "overwrite", overwrite)
	return nil
}

// Rename replaces the definition stored under from with value stored under
// to, keeping its position in AllOfKind and Options. The registry is left
// unchanged on error.
func (r *Registry) Rename(kind domain.Kind, from, to string, value domain.Node) error {
	t, ok := r.defs[kind]
	if !ok {
		return fmt.Errorf("%w: %s is not a definition kind", domain.ErrKindMismatch, kind)
	}
	if to == "" {
		return &domain.MissingRequiredFieldError{Field: "name"}
	}
	if value == nil || value.NodeKind() != kind {
		return fmt.Errorf("%w: cannot register %T as %s", domain.ErrKindMismatch, value, kind.Noun())
	}
	i := slices.Index(t.order, from)
	if i < 0 {
		return fmt.Errorf("%w: %s %q", domain.ErrReferenceNotFound, kind.Noun(), from)
	}
	if _, exists := t.byKey[to]; exists && to != from {
		return fmt.Errorf("%w: %s %q", domain.ErrDuplicateName, kind.Noun(), to)
	}

	delete(t.byKey, from)
	t.order[i] = to
	t.byKey[to] = value
	r.version++

	r.logger.Debug("definition renamed", "kind", kind, "from", from, "to", to)
	return nil
}

// Remove deletes a definition. It reports whether anything was removed.
func (r *Registry) Remove(kind domain.Kind, name string) bool {
	t, ok := r.defs[kind]
	if !ok {
		return false
	}
	if _, exists := t.byKey[name]; !exists {
		return false
	}
	delete(t.byKey, name)
	for i, n := range t.order {
		if n == name {
			t.order = append(t.order[:i:i], t.order[i+1:]...)
			break
		}
	}
	r.version++
	return true
}

// Resolve looks up a reference of the given kind. Local references only see
// the document's own definitions; namespaced references only see the
// entities exposed by the named orb. Nothing is ever partially resolved.
func (r *Registry) Resolve(kind domain.Kind, ref domain.Reference) (domain.Node, error) {
	if !ref.IsNamespaced() {
		t, ok := r.defs[kind]
		if !ok {
			return nil, fmt.Errorf("%w: %s %q", domain.ErrReferenceNotFound, kind.Noun(), ref)
		}
		if node, ok := t.byKey[ref.Name]; ok {
			return node, nil
		}
		return nil, fmt.Errorf("%w: %s %q", domain.ErrReferenceNotFound, kind.Noun(), ref)
	}

	orb, ok := r.orbs[ref.Namespace]
	if !ok {
		return nil, fmt.Errorf("%w: orb %q is not imported", domain.ErrReferenceNotFound, ref.Namespace)
	}
	node, ok := orb.Lookup(kind, ref.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %s %q", domain.ErrReferenceNotFound, kind.Noun(), ref)
	}
	return node, nil
}

// ResolveString parses raw and resolves it.
func (r *Registry) ResolveString(kind domain.Kind, raw string) (domain.Node, error) {
	ref, err := domain.ParseReference(raw)
	if err != nil {
		return nil, err
	}
	return r.Resolve(kind, ref)
}

// Get returns a local definition.
func (r *Registry) Get(kind domain.Kind, name string) (domain.Definition, bool) {
	node, err := r.Resolve(kind, domain.Local(name))
	if err != nil {
		return domain.Definition{}, false
	}
	return domain.Definition{Name: name, Kind: kind, Value: node}, true
}

// AllOfKind yields the local definitions of a kind in registration order.
// The sequence can be ranged over repeatedly and yields the same definitions
// until the registry is mutated.
func (r *Registry) AllOfKind(kind domain.Kind) iter.Seq[domain.Definition] {
	return func(yield func(domain.Definition) bool) {
		t, ok := r.defs[kind]
		if !ok {
			return
		}
		for _, name := range t.order {
			node, ok := t.byKey[name]
			if !ok {
				continue
			}
			if !yield(domain.Definition{Name: name, Kind: kind, Value: node}) {
				return
			}
		}
	}
}

// Len returns the number of local definitions of a kind.
func (r *Registry) Len(kind domain.Kind) int {
	if t, ok := r.defs[kind]; ok {
		return len(t.order)
	}
	return 0
}

// Version increases on every mutation.
func (r *Registry) Version() uint64 {
	return r.version
}

// Close tears the registry down. Every definition and orb is dropped.
func (r *Registry) Close() {
	for _, k := range domain.DefinitionKinds {
		r.defs[k] = newTable()
	}
	r.orbs = make(map[string]*domain.Orb)
	r.orbSeq = nil
	r.version++
}
