package main

import (
	"context"
	"fmt"

	"github.com/aretw0/pipeforge"
	loamadapter "github.com/aretw0/pipeforge/pkg/adapters/loam"
	redisadapter "github.com/aretw0/pipeforge/pkg/adapters/redis"
	"github.com/aretw0/pipeforge/pkg/domain"
	"github.com/aretw0/pipeforge/pkg/materialize"
	"github.com/aretw0/pipeforge/pkg/ports"
)

// catalog is an orb source that accepts new manifests.
type catalog interface {
	ports.OrbSource
	Publish(ctx context.Context, orb *domain.Orb) error
}

// openCatalog builds the orb catalog the configuration selects. It returns
// nil when none is configured. The returned func releases its connections.
func openCatalog() (catalog, func(), error) {
	switch {
	case cfg.Orbs.RedisAddr != "":
		c := redisadapter.New(cfg.Orbs.RedisAddr, redisadapter.WithPrefix(cfg.Orbs.RedisPrefix))
		return c, func() { _ = c.Client().Close() }, nil
	case cfg.Orbs.Dir != "":
		c, err := loamadapter.Open(cfg.Orbs.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open orbs dir: %w", err)
		}
		return c, func() {}, nil
	default:
		return nil, func() {}, nil
	}
}

// openWorkspace loads the configured document, materializing its orbs from
// the configured catalog.
func openWorkspace(ctx context.Context, opts ...pipeforge.Option) (*pipeforge.Workspace, func(), error) {
	src, closeFn, err := openCatalog()
	if err != nil {
		return nil, nil, err
	}
	base := []pipeforge.Option{pipeforge.WithLogger(logger)}
	if src != nil {
		m := materialize.New(src,
			materialize.WithLogger(logger),
			materialize.WithCacheTTL(cfg.Orbs.CacheTTL))
		base = append(base, pipeforge.WithMaterializer(m))
	}
	ws, err := pipeforge.Open(ctx, cfg.Document, append(base, opts...)...)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return ws, closeFn, nil
}

func parseKind(s string) (domain.Kind, error) {
	k := domain.Kind(s)
	if !k.Registrable() {
		return "", fmt.Errorf("%w: unknown kind %q (want executors, jobs or commands)", domain.ErrUnsupportedVariant, s)
	}
	return k, nil
}
