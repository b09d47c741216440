package cache

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/akarpova/vacancyhub/pkg/logging"
	"github.com/akarpova/vacancyhub/pkg/upstream"
)

// Getter is the transport-shaped dependency the cache wraps.
type Getter interface {
	Get(ctx context.Context, endpoint string, params upstream.Params) ([]byte, error)
}

// Cache is one provider's read-through response cache. Concurrent fetches of
// the same fingerprint are collapsed into a single upstream call; a failed
// call is never cached, so the next fetch retries the network.
type Cache struct {
	provider string
	store    Store
	getter   Getter
	logger   *logging.Logger
	flight   singleflight.Group
}

// New builds a provider-scoped cache around store and getter.
func New(provider string, store Store, getter Getter, logger *logging.Logger) (*Cache, error) {
	if provider == "" {
		return nil, fmt.Errorf("cache: provider id is required")
	}
	if store == nil {
		return nil, fmt.Errorf("cache: store is required")
	}
	if getter == nil {
		return nil, fmt.Errorf("cache: getter is required")
	}

	return &Cache{
		provider: provider,
		store:    store,
		getter:   getter,
		logger:   logger,
	}, nil
}

// Provider returns the namespace this cache serves.
func (c *Cache) Provider() string {
	return c.provider
}

// Fetch answers from the store when the entry is still fresh, otherwise calls
// the upstream and records the result before returning it.
func (c *Cache) Fetch(ctx context.Context, endpoint string, params upstream.Params) ([]byte, error) {
	key := Fingerprint(c.provider, endpoint, params)

	if e, err := c.store.Load(ctx, c.provider, key); err == nil && e != nil {
		return e.Body, nil
	}

	v, err, _ := c.flight.Do(key, func() (any, error) {
		// Another fetch may have completed while we queued.
		if e, err := c.store.Load(ctx, c.provider, key); err == nil && e != nil {
			return e.Body, nil
		}

		body, err := c.getter.Get(ctx, endpoint, params)
		if err != nil {
			return nil, err
		}

		if err := c.store.Save(ctx, c.provider, key, body); err != nil && c.logger != nil {
			c.logger.Warn("cache write failed", "provider", c.provider, "err", err)
		}

		return body, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]byte), nil
}

// Invalidate drops every cached entry in this provider's namespace.
func (c *Cache) Invalidate(ctx context.Context) error {
	return c.store.Clear(ctx, c.provider)
}
