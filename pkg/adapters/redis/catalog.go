package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aretw0/pipeforge/internal/compiler"
	"github.com/aretw0/pipeforge/pkg/domain"
	"github.com/aretw0/pipeforge/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

const defaultPrefix = "pipeforge:orbs:"

// Catalog implements ports.OrbCatalog on Redis. Every orb is stored as its
// YAML manifest under prefix+namespace, and a sorted set at prefix+"index"
// tracks the published namespaces scored by expiry.
type Catalog struct {
	client backend.UniversalClient
	parser *compiler.Parser
	prefix string
	ttl    time.Duration
}

var _ ports.OrbCatalog = (*Catalog)(nil)

// Option configures the Catalog.
type Option func(*Catalog)

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *Catalog) {
		c.prefix = prefix
	}
}

// WithTTL makes published orbs expire. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(c *Catalog) {
		c.ttl = ttl
	}
}

// New connects to addr and returns a catalog.
func New(addr string, opts ...Option) *Catalog {
	return NewFromClient(backend.NewClient(&backend.Options{Addr: addr}), opts...)
}

// NewFromClient wraps an existing client.
func NewFromClient(client backend.UniversalClient, opts ...Option) *Catalog {
	c := &Catalog{
		client: client,
		parser: compiler.NewParser(),
		prefix: defaultPrefix,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Client exposes the underlying client, for sharing with a Locker.
func (c *Catalog) Client() backend.UniversalClient {
	return c.client
}

func (c *Catalog) key(namespace string) string {
	return c.prefix + namespace
}

func (c *Catalog) indexKey() string {
	return c.prefix + "index"
}

// Publish stores the orb manifest and indexes its namespace.
func (c *Catalog) Publish(ctx context.Context, orb *domain.Orb) error {
	if orb == nil || orb.Namespace == "" {
		return &domain.MissingRequiredFieldError{Field: "namespace"}
	}
	data, err := c.parser.EncodeOrb(orb)
	if err != nil {
		return fmt.Errorf("failed to encode orb %s: %w", orb.Namespace, err)
	}

	score := float64(1<<53 - 1)
	if c.ttl > 0 {
		score = float64(time.Now().Add(c.ttl).Unix())
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, c.key(orb.Namespace), data, c.ttl)
	pipe.ZAdd(ctx, c.indexKey(), backend.Z{Score: score, Member: orb.Namespace})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish orb %s: %w", orb.Namespace, err)
	}
	return nil
}

// Fetch loads and decodes an orb.
func (c *Catalog) Fetch(ctx context.Context, namespace string) (*domain.Orb, error) {
	data, err := c.client.Get(ctx, c.key(namespace)).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrbNotFound, namespace)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orb %s: %w", namespace, err)
	}
	return c.parser.DecodeOrb(namespace, data)
}

// Delete removes the orb and its index entry.
func (c *Catalog) Delete(ctx context.Context, namespace string) error {
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, c.key(namespace))
	pipe.ZRem(ctx, c.indexKey(), namespace)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete orb %s: %w", namespace, err)
	}
	return nil
}

// List returns the live namespaces. Expired index entries are pruned lazily.
func (c *Catalog) List(ctx context.Context) ([]string, error) {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	if err := c.client.ZRemRangeByScore(ctx, c.indexKey(), "-inf", "("+now).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune orb index: %w", err)
	}
	namespaces, err := c.client.ZRange(ctx, c.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list orbs: %w", err)
	}
	return namespaces, nil
}
