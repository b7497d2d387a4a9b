package provider

import (
	"context"
	"strconv"
	"sync"
	"time"

	"etfdash/pkg/model"
)

type cacheEntry struct {
	snapshot *model.Snapshot
	expires  time.Time
}

// CachingProvider wraps a Provider with a short-lived in-memory cache.
// Serve mode hits the same benchmark on every request.
type CachingProvider struct {
	inner Provider
	ttl   time.Duration
	now   func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewCachingProvider creates a caching wrapper. A non-positive ttl
// disables caching.
func NewCachingProvider(inner Provider, ttl time.Duration) *CachingProvider {
	return &CachingProvider{
		inner: inner,
		ttl:   ttl,
		now:   time.Now,
		cache: make(map[string]cacheEntry),
	}
}

func (p *CachingProvider) Name() string { return p.inner.Name() }

// GetDailyHistory returns a private copy of a cached snapshot when one is
// still fresh, otherwise fetches and stores it. Errors are never cached.
func (p *CachingProvider) GetDailyHistory(ctx context.Context, symbol string, days int) (*model.Snapshot, error) {
	if p.ttl <= 0 {
		return p.inner.GetDailyHistory(ctx, symbol, days)
	}

	key := symbol + "|" + strconv.Itoa(days)

	p.mu.Lock()
	if e, ok := p.cache[key]; ok && p.now().Before(e.expires) {
		p.mu.Unlock()
		return e.snapshot.Clone(), nil
	}
	p.mu.Unlock()

	snap, err := p.inner.GetDailyHistory(ctx, symbol, days)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.cache[key] = cacheEntry{snapshot: snap.Clone(), expires: p.now().Add(p.ttl)}
	p.mu.Unlock()

	return snap, nil
}

// Purge drops expired entries
func (p *CachingProvider) Purge() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := 0
	now := p.now()
	for k, e := range p.cache {
		if !now.Before(e.expires) {
			delete(p.cache, k)
			n++
		}
	}
	return n
}
