package datasource

import (
	"context"
	"slices"

	"github.com/cockroachdb/errors"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/singleflight"

	"github.com/roach88/qrelax/internal/ir"
)

// DefaultCacheSize bounds the number of memoized lookups.
const DefaultCacheSize = 4096

// Cached memoizes statistics and ontology lookups of a Source.
//
// Concurrent Expand tasks ask for the same broader terms and frequencies
// repeatedly. The LRU keeps results for the lifetime of the wrapper and
// singleflight collapses concurrent misses for one key into one call.
// Errors are never cached. Evaluate and Count pass straight through.
//
// Thread-safe: the LRU has its own lock, singleflight.Group is safe for
// concurrent use.
type Cached struct {
	inner  Source
	cache  *lru.Cache
	flight singleflight.Group
}

// NewCached wraps src with a cache of size entries. size <= 0 uses
// DefaultCacheSize.
func NewCached(src Source, size int) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "create lookup cache")
	}
	return &Cached{inner: src, cache: cache}, nil
}

func (c *Cached) Evaluate(ctx context.Context, q *ir.Query) (ResultSet, error) {
	return c.inner.Evaluate(ctx, q)
}

func (c *Cached) Count(ctx context.Context, q *ir.Query, limit int) (int, error) {
	return c.inner.Count(ctx, q, limit)
}

func (c *Cached) ClassFrequency(ctx context.Context, class ir.Term) (Frequency, error) {
	v, err := c.lookup("class-frequency", class, func() (any, error) {
		return c.inner.ClassFrequency(ctx, class)
	})
	if err != nil {
		return Frequency{}, err
	}
	return v.(Frequency), nil
}

func (c *Cached) PropertyFrequency(ctx context.Context, property ir.Term) (Frequency, error) {
	v, err := c.lookup("property-frequency", property, func() (any, error) {
		return c.inner.PropertyFrequency(ctx, property)
	})
	if err != nil {
		return Frequency{}, err
	}
	return v.(Frequency), nil
}

func (c *Cached) BroaderClasses(ctx context.Context, class ir.Term) ([]ir.Term, error) {
	v, err := c.lookup("broader-classes", class, func() (any, error) {
		return c.inner.BroaderClasses(ctx, class)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]ir.Term)), nil
}

func (c *Cached) BroaderProperties(ctx context.Context, property ir.Term) ([]ir.Term, error) {
	v, err := c.lookup("broader-properties", property, func() (any, error) {
		return c.inner.BroaderProperties(ctx, property)
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.([]ir.Term)), nil
}

func (c *Cached) lookup(kind string, t ir.Term, load func() (any, error)) (any, error) {
	key := kind + "|" + t.String()
	if v, ok := c.cache.Get(key); ok {
		return v, nil
	}
	v, err, _ := c.flight.Do(key, func() (any, error) {
		// Another caller may have filled the entry while we waited.
		if v, ok := c.cache.Get(key); ok {
			return v, nil
		}
		v, err := load()
		if err != nil {
			return nil, err
		}
		c.cache.Add(key, v)
		return v, nil
	})
	return v, err
}
