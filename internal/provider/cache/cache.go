package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"stocktracker/internal/metrics"
	"stocktracker/internal/provider"
)

// entry stores a cached series for a single symbol with expiry.
type entry struct {
	expiresAt time.Time
	series    provider.Series
}

// Provider caches results per symbol for a TTL.
// Concurrent misses for the same symbol share one upstream request, and an
// expired entry is served if the refetch fails.
type Provider struct {
	P        provider.Provider
	TTL      time.Duration
	MaxItems int

	mu    sync.RWMutex
	items map[string]entry // key: symbol
	group singleflight.Group
}

func (c *Provider) Name() string { return c.P.Name() }

// DailySeries returns the series of symbol using cache when valid.
func (c *Provider) DailySeries(ctx context.Context, symbol string) (provider.Series, error) {
	if c.TTL <= 0 {
		return c.P.DailySeries(ctx, symbol)
	}

	now := time.Now()
	c.mu.RLock()
	e, cached := c.items[symbol]
	c.mu.RUnlock()
	if cached && now.Before(e.expiresAt) {
		metrics.LookupCalls.WithLabelValues(c.P.Name(), "cache_hit").Inc()
		return e.series, nil
	}

	v, err, _ := c.group.Do(symbol, func() (any, error) {
		return c.P.DailySeries(ctx, symbol)
	})
	if err != nil {
		// serve the stale entry rather than failing entirely
		if cached {
			metrics.LookupCalls.WithLabelValues(c.P.Name(), "stale").Inc()
			return e.series, nil
		}
		return provider.Series{}, err
	}
	fresh := v.(provider.Series)
	c.store(symbol, fresh, time.Now().Add(c.TTL))
	return fresh, nil
}

func (c *Provider) store(symbol string, s provider.Series, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil {
		c.items = make(map[string]entry)
	}
	c.items[symbol] = entry{expiresAt: expiresAt, series: s}

	// best-effort cap cache size
	if c.MaxItems > 0 && len(c.items) > c.MaxItems {
		// remove expired first, then arbitrary
		now := time.Now()
		for k, v := range c.items {
			if len(c.items) <= c.MaxItems {
				break
			}
			if k != symbol && now.After(v.expiresAt) {
				delete(c.items, k)
			}
		}
		for k := range c.items {
			if len(c.items) <= c.MaxItems {
				break
			}
			if k != symbol {
				delete(c.items, k)
			}
		}
	}
}

// Len returns the number of cached symbols, expired ones included.
func (c *Provider) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
