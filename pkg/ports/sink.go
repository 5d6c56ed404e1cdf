package ports

import (
	"context"
	"time"

	"github.com/aretw0/pipeforge/pkg/domain"
)

// DocumentSink receives the node produced by every successful save.
type DocumentSink interface {
	// UpdateNode replaces the node addressed by id.
	UpdateNode(id string, node domain.Node) error
}

// ReferenceRewriter is implemented by sinks that can follow a renamed
// definition. RenameReferences points every use of the definition previously
// named from at to and returns how many uses were rewritten.
type ReferenceRewriter interface {
	RenameReferences(kind domain.Kind, from string, to domain.Node) int
}

// OrbSource fetches the exposed entities of imported orbs.
type OrbSource interface {
	// Fetch returns the materialized orb for a namespace.
	// Returns domain.ErrOrbNotFound if the namespace is unknown.
	Fetch(ctx context.Context, namespace string) (*domain.Orb, error)

	// List returns the namespaces the source can serve.
	List(ctx context.Context) ([]string, error)
}

// OrbCatalog is a writable OrbSource.
type OrbCatalog interface {
	OrbSource
	Publish(ctx context.Context, orb *domain.Orb) error
	Delete(ctx context.Context, namespace string) error
}

// UnlockFunc releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker provides cross-process locks keyed by session id.
type DistributedLocker interface {
	// Lock blocks until the lock is held or ctx is done. The lock expires
	// after ttl if it is never released.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
