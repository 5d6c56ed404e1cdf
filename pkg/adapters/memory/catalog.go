package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/pipeforge/internal/compiler"
	"github.com/aretw0/pipeforge/pkg/domain"
)

// Catalog implements ports.OrbCatalog in memory.
// Orbs are kept as encoded manifests so callers never share pointers with
// the catalog. Safe for concurrent use.
type Catalog struct {
	data   map[string][]byte
	parser *compiler.Parser
	mu     sync.RWMutex
}

// NewCatalog creates an in-memory catalog seeded with orbs.
func NewCatalog(orbs ...*domain.Orb) (*Catalog, error) {
	c := &Catalog{
		data:   make(map[string][]byte),
		parser: compiler.NewParser(),
	}
	for _, orb := range orbs {
		if err := c.Publish(context.Background(), orb); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Publish stores or replaces an orb.
func (c *Catalog) Publish(ctx context.Context, orb *domain.Orb) error {
	if orb == nil || orb.Namespace == "" {
		return &domain.MissingRequiredFieldError{Field: "namespace"}
	}
	data, err := c.parser.EncodeOrb(orb)
	if err != nil {
		return fmt.Errorf("failed to encode orb %s: %w", orb.Namespace, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[orb.Namespace] = data
	return nil
}

// Fetch decodes a fresh copy of the orb.
func (c *Catalog) Fetch(ctx context.Context, namespace string) (*domain.Orb, error) {
	c.mu.RLock()
	data, ok := c.data[namespace]
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrbNotFound, namespace)
	}
	return c.parser.DecodeOrb(namespace, data)
}

// Delete removes the orb.
func (c *Catalog) Delete(ctx context.Context, namespace string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, namespace)
	return nil
}

// List returns the stored namespaces, sorted.
func (c *Catalog) List(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	namespaces := make([]string, 0, len(c.data))
	for ns := range c.data {
		namespaces = append(namespaces, ns)
	}
	slices.Sort(namespaces)
	return namespaces, nil
}
