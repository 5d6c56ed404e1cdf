package pipeforge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/pipeforge/internal/compiler"
	"github.com/aretw0/pipeforge/internal/document"
	"github.com/aretw0/pipeforge/internal/logging"
	"github.com/aretw0/pipeforge/pkg/domain"
	"github.com/aretw0/pipeforge/pkg/editor"
	"github.com/aretw0/pipeforge/pkg/materialize"
	"github.com/aretw0/pipeforge/pkg/ports"
	"github.com/aretw0/pipeforge/pkg/registry"
)

// Workspace is the high-level entry point of the library. It holds one
// loaded pipeline document, the registry built from it, and opens editing
// sessions over them.
type Workspace struct {
	Name     string
	Path     string
	Document *document.Document
	Registry *registry.Registry

	parser       *compiler.Parser
	materializer *materialize.Materializer
	source       ports.OrbSource
	hooks        domain.LifecycleHooks
	logger       *slog.Logger
}

// Option defines a functional option for configuring the Workspace.
type Option func(*Workspace)

// WithLifecycleHooks registers observability hooks on every session.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(w *Workspace) {
		w.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the workspace.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workspace) {
		w.logger = logger
	}
}

// WithMaterializer sets where imported orbs are fetched from.
func WithMaterializer(m *materialize.Materializer) Option {
	return func(w *Workspace) {
		w.materializer = m
	}
}

// WithOrbSource is a shortcut for WithMaterializer(materialize.New(src)).
func WithOrbSource(src ports.OrbSource) Option {
	return func(w *Workspace) {
		w.source = src
	}
}

// Open reads and loads the document at path.
func Open(ctx context.Context, path string, opts ...Option) (*Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	w, err := Load(ctx, data, opts...)
	if err != nil {
		return nil, err
	}
	w.Path = path
	w.Name = filepath.Base(path)
	w.logger = w.logger.With("document", w.Name)
	return w, nil
}

// Load parses a document held in memory. Imported orbs are materialized
// before parsing so definitions may reference their entities; an orb the
// source does not know stays declared but empty.
func Load(ctx context.Context, data []byte, opts ...Option) (*Workspace, error) {
	w := &Workspace{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(w)
	}
	if w.materializer == nil && w.source != nil {
		w.materializer = materialize.New(w.source, materialize.WithLogger(w.logger))
	}
	w.parser = compiler.NewParser(compiler.WithLogger(w.logger))
	w.Registry = registry.New(registry.WithLogger(w.logger))

	imports, err := compiler.ScanImports(data)
	if err != nil {
		return nil, err
	}
	namespaces := make([]string, 0, len(imports))
	for _, imp := range imports {
		w.Registry.ImportOrb(&domain.Orb{Namespace: imp.Namespace, Version: imp.Version()})
		namespaces = append(namespaces, imp.Namespace)
	}
	if w.materializer != nil && len(namespaces) > 0 {
		if err := w.materializer.Import(ctx, w.Registry, namespaces...); err != nil {
			return nil, fmt.Errorf("failed to materialize orbs: %w", err)
		}
	}

	w.Document, err = w.parser.ParseDocument(data, w.Registry)
	if err != nil {
		return nil, err
	}
	w.logger.Debug("document loaded",
		"executors", len(w.Document.Executors),
		"jobs", len(w.Document.Jobs),
		"commands", len(w.Document.Commands),
		"orbs", len(w.Document.Orbs))
	return w, nil
}

// Parser returns the parser the workspace loaded with.
func (w *Workspace) Parser() *compiler.Parser {
	return w.parser
}

// Session opens an editing session that commits into the workspace's
// document. Extra options are applied after the workspace defaults.
func (w *Workspace) Session(opts ...editor.Option) *editor.Session {
	base := []editor.Option{
		editor.WithLogger(w.logger),
		editor.WithLifecycleHooks(w.hooks),
	}
	return editor.New(w.Registry, w.parser, w.Document, append(base, opts...)...)
}

// Sync materializes the orbs a session subscribed to since the last call.
func (w *Workspace) Sync(ctx context.Context, s *editor.Session) (int, error) {
	if w.materializer == nil {
		return 0, nil
	}
	return w.materializer.Sync(ctx, s.Registry(), s.Ledger())
}

// Encode serializes the document, including every committed edit.
func (w *Workspace) Encode() ([]byte, error) {
	return w.parser.EncodeDocument(w.Document)
}

// Save writes the document back to the path it was opened from.
func (w *Workspace) Save() error {
	if w.Path == "" {
		return fmt.Errorf("workspace was not opened from a file")
	}
	data, err := w.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(w.Path, data, 0o644)
}
