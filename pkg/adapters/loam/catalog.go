package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/pipeforge/internal/compiler"
	"github.com/aretw0/pipeforge/pkg/domain"
	"github.com/aretw0/pipeforge/pkg/ports"
)

// OrbMetadata is the front matter of an orb document. The body holds the
// orb manifest.
type OrbMetadata struct {
	Namespace string `json:"namespace" mapstructure:"namespace"`
	Version   string `json:"version" mapstructure:"version"`
}

// Catalog serves orbs from a Loam repository, one document per namespace.
type Catalog struct {
	Repo   *loam.TypedRepository[OrbMetadata]
	parser *compiler.Parser
}

var _ ports.OrbSource = (*Catalog)(nil)

// New creates a catalog backed by repo.
func New(repo *loam.TypedRepository[OrbMetadata]) *Catalog {
	return &Catalog{
		Repo:   repo,
		parser: compiler.NewParser(),
	}
}

// Open initialises a Loam repository at dir and wraps it.
func Open(dir string, opts ...loam.Option) (*Catalog, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	opts = append([]loam.Option{loam.WithVersioning(false)}, opts...)
	repo, err := loam.Init(absPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[OrbMetadata](repo)), nil
}

// Fetch decodes the orb stored for namespace.
func (c *Catalog) Fetch(ctx context.Context, namespace string) (*domain.Orb, error) {
	docs, err := c.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}
	for _, doc := range docs {
		if namespaceOf(doc.ID, doc.Data) != namespace {
			continue
		}
		orb, err := c.parser.DecodeOrb(namespace, []byte(doc.Content))
		if err != nil {
			return nil, err
		}
		if orb.Version == "" {
			orb.Version = doc.Data.Version
		}
		return orb, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrOrbNotFound, namespace)
}

// List returns the namespaces found in the repository, sorted.
func (c *Catalog) List(ctx context.Context) ([]string, error) {
	docs, err := c.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	namespaces := make([]string, 0, len(docs))
	for _, doc := range docs {
		ns := namespaceOf(doc.ID, doc.Data)
		if existing, ok := seen[ns]; ok {
			return nil, fmt.Errorf("collision detected: orb %q is defined in both '%s' and '%s'", ns, existing, doc.ID)
		}
		seen[ns] = doc.ID
		namespaces = append(namespaces, ns)
	}
	slices.Sort(namespaces)
	return namespaces, nil
}

// Publish writes the orb manifest as a document named after its namespace.
func (c *Catalog) Publish(ctx context.Context, orb *domain.Orb) error {
	if orb == nil || orb.Namespace == "" {
		return &domain.MissingRequiredFieldError{Field: "namespace"}
	}
	manifest, err := c.parser.EncodeOrb(orb)
	if err != nil {
		return fmt.Errorf("failed to encode orb %s: %w", orb.Namespace, err)
	}
	return c.Repo.Save(ctx, &loam.DocumentModel[OrbMetadata]{
		ID:      orb.Namespace,
		Content: string(manifest),
		Data:    OrbMetadata{Namespace: orb.Namespace, Version: orb.Version},
	})
}

// namespaceOf prefers the front matter and falls back to the file name.
func namespaceOf(id string, meta OrbMetadata) string {
	if meta.Namespace != "" {
		return meta.Namespace
	}
	base := filepath.Base(id)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
