package fx

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/eugenenazirov/nuts-optimizer/internal/currency"
)

// DefaultCacheTTL is how long a fetched rate stays fresh.
const DefaultCacheTTL = 5 * time.Minute

// DefaultLookupTimeout bounds a shared upstream lookup once it no longer
// follows any single caller's context.
const DefaultLookupTimeout = 30 * time.Second

// Cache memoises successful lookups of the wrapped Provider for a fixed TTL.
// Concurrent misses for the same key share one upstream lookup. The shared
// lookup outlives a caller that gives up; each caller waits only as long as
// its own context allows.
type Cache struct {
	next          Provider
	entries       *cache.Cache
	group         singleflight.Group
	recorder      Recorder
	lookupTimeout time.Duration
}

// CacheOption configures Cache behaviour.
type CacheOption func(*Cache)

// WithLookupTimeout bounds each shared upstream lookup. Non-positive values are ignored.
func WithLookupTimeout(d time.Duration) CacheOption {
	return func(c *Cache) {
		if d > 0 {
			c.lookupTimeout = d
		}
	}
}

// NewCache wraps next. A non-positive ttl selects DefaultCacheTTL.
func NewCache(next Provider, ttl time.Duration, recorder Recorder, opts ...CacheOption) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	c := &Cache{
		next:          next,
		entries:       cache.New(ttl, 2*ttl),
		recorder:      recorder,
		lookupTimeout: DefaultLookupTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) RateToBase(ctx context.Context, code currency.Code) (float64, error) {
	key := "rate:" + string(code)
	if v, ok := c.entries.Get(key); ok {
		c.recorder.ObserveCache(OutcomeHit)
		return v.(float64), nil
	}
	c.recorder.ObserveCache(OutcomeMiss)

	v, err := c.shared(ctx, key, func(lookupCtx context.Context) (interface{}, error) {
		return c.next.RateToBase(lookupCtx, code)
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

func (c *Cache) RatesFromBase(ctx context.Context, codes ...currency.Code) (map[currency.Code]float64, error) {
	key := previewKey(codes)
	if v, ok := c.entries.Get(key); ok {
		c.recorder.ObserveCache(OutcomeHit)
		return maps.Clone(v.(map[currency.Code]float64)), nil
	}
	c.recorder.ObserveCache(OutcomeMiss)

	v, err := c.shared(ctx, key, func(lookupCtx context.Context) (interface{}, error) {
		return c.next.RatesFromBase(lookupCtx, codes...)
	})
	if err != nil {
		return nil, err
	}
	return maps.Clone(v.(map[currency.Code]float64)), nil
}

// shared runs fetch once per key across concurrent callers and stores a
// successful value. fetch runs detached from ctx, bounded by lookupTimeout.
func (c *Cache) shared(ctx context.Context, key string, fetch func(context.Context) (interface{}, error)) (interface{}, error) {
	ch := c.group.DoChan(key, func() (interface{}, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.lookupTimeout)
		defer cancel()

		v, err := fetch(lookupCtx)
		if err != nil {
			return nil, err
		}
		c.entries.SetDefault(key, v)
		return v, nil
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Flush drops every cached rate.
func (c *Cache) Flush() {
	c.entries.Flush()
}

func previewKey(codes []currency.Code) string {
	sorted := make([]string, len(codes))
	for i, code := range codes {
		sorted[i] = string(code)
	}
	slices.Sort(sorted)
	return "preview:" + strings.Join(slices.Compact(sorted), ",")
}
