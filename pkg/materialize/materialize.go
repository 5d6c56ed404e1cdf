// Package materialize fetches the entities of imported orbs and merges them
// into a registry. It runs outside the editing core: the editor only records
// which orb entities were referenced, and Sync makes them resolvable.
package materialize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/pipeforge/internal/logging"
	"github.com/aretw0/pipeforge/pkg/domain"
	"github.com/aretw0/pipeforge/pkg/ledger"
	"github.com/aretw0/pipeforge/pkg/ports"
	"github.com/aretw0/pipeforge/pkg/registry"
	gocache "github.com/patrickmn/go-cache"
)

const (
	DefaultExpiration      = 10 * time.Minute
	DefaultCleanupInterval = 30 * time.Minute
)

// Materializer fetches orbs from a source and caches them by namespace.
type Materializer struct {
	source ports.OrbSource
	cache  *gocache.Cache
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures the Materializer.
type Option func(*Materializer)

// WithLogger configures a logger for the Materializer.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Materializer) {
		m.logger = logger
	}
}

// WithCacheTTL sets how long fetched orbs are reused. A negative ttl
// disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(m *Materializer) {
		m.ttl = ttl
	}
}

// New creates a Materializer over source.
func New(source ports.OrbSource, opts ...Option) *Materializer {
	m := &Materializer{
		source: source,
		ttl:    DefaultExpiration,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.cache = gocache.New(m.ttl, DefaultCleanupInterval)
	return m
}

// Fetch returns the orb for namespace, from cache when possible.
func (m *Materializer) Fetch(ctx context.Context, namespace string) (*domain.Orb, error) {
	if m.ttl >= 0 {
		if v, found := m.cache.Get(namespace); found {
			if orb, ok := v.(*domain.Orb); ok {
				m.logger.Debug("orb cache hit", "namespace", namespace)
				return orb, nil
			}
		}
	}

	orb, err := m.source.Fetch(ctx, namespace)
	if err != nil {
		return nil, err
	}
	if m.ttl >= 0 {
		m.cache.Set(namespace, orb, m.ttl)
	}
	return orb, nil
}

// Invalidate drops cached orbs. With no namespaces the whole cache is flushed.
func (m *Materializer) Invalidate(namespaces ...string) {
	if len(namespaces) == 0 {
		m.cache.Flush()
		return
	}
	for _, ns := range namespaces {
		m.cache.Delete(ns)
	}
}

// Import materializes the given namespaces into reg, keeping the version the
// document declared. Unknown namespaces stay unmaterialized and are logged;
// any other failure is returned after the remaining namespaces are tried.
func (m *Materializer) Import(ctx context.Context, reg *registry.Registry, namespaces ...string) error {
	_, err := m.importAll(ctx, reg, namespaces)
	return err
}

func (m *Materializer) importAll(ctx context.Context, reg *registry.Registry, namespaces []string) (int, error) {
	var (
		errs     []error
		imported int
	)
	for _, ns := range namespaces {
		orb, err := m.Fetch(ctx, ns)
		if errors.Is(err, domain.ErrOrbNotFound) {
			m.logger.Warn("orb not available", "namespace", ns)
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("orb %s: %w", ns, err))
			continue
		}

		copied := *orb
		if declared, ok := reg.Orb(ns); ok && declared.Version != "" {
			copied.Version = declared.Version
		}
		reg.ImportOrb(&copied)
		imported++
	}
	return imported, errors.Join(errs...)
}

// Sync materializes the orbs behind every recorded subscription that does
// not resolve yet, and returns how many namespaces were imported.
func (m *Materializer) Sync(ctx context.Context, reg *registry.Registry, l *ledger.Ledger) (int, error) {
	pending := l.Pending(func(s domain.Subscription) bool {
		_, err := reg.ResolveString(s.Type, s.Name)
		return err == nil
	})

	var namespaces []string
	seen := make(map[string]bool)
	for _, s := range pending {
		ref, err := domain.ParseReference(s.Name)
		if err != nil || !ref.IsNamespaced() || seen[ref.Namespace] {
			continue
		}
		seen[ref.Namespace] = true
		namespaces = append(namespaces, ref.Namespace)
	}
	if len(namespaces) == 0 {
		return 0, nil
	}

	imported, err := m.importAll(ctx, reg, namespaces)
	m.logger.Debug("subscriptions synced", "namespaces", namespaces, "imported", imported)
	return imported, err
}
