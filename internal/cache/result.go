package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/veridict/veridict/internal/model"
)

// ComputeFunc produces an analysis result on a cache miss
type ComputeFunc func(ctx context.Context) (*model.AnalysisResult, error)

// flight tracks one in-progress computation that concurrent callers share
type flight struct {
	done   chan struct{}
	result *model.AnalysisResult
	err    error
}

// ResultCache caches analysis results by composite key and coalesces
// concurrent requests: while a computation for a key is in flight, later
// callers await its result instead of starting their own. The flight is
// removed once complete (success or failure), so expired or failed
// entries recompute rather than await a stale promise.
type ResultCache struct {
	store Store // nil degrades to compute-without-caching
	ttl   time.Duration

	mu       sync.Mutex
	inflight map[string]*flight
}

// NewResultCache wraps a byte store. A nil store disables persistence
// but keeps the coalescing guarantee.
func NewResultCache(store Store, ttl time.Duration) *ResultCache {
	return &ResultCache{
		store:    store,
		ttl:      ttl,
		inflight: make(map[string]*flight),
	}
}

// GetOrCompute returns the cached result for key, or runs fn exactly once
// across all concurrent callers and caches its result. If the caller's
// context is cancelled while waiting, the computation keeps running to
// populate the cache; only this caller's wait is abandoned.
func (c *ResultCache) GetOrCompute(ctx context.Context, key string, fn ComputeFunc) (*model.AnalysisResult, error) {
	if cached, ok := c.lookup(key); ok {
		return cached, nil
	}

	c.mu.Lock()
	if f, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		return c.await(ctx, f)
	}

	f := &flight{done: make(chan struct{})}
	c.inflight[key] = f
	c.mu.Unlock()

	// Detach the computation from the caller so a client disconnect
	// cannot abort cache population for the other waiters.
	go func() {
		result, err := fn(context.WithoutCancel(ctx))

		f.result = result
		f.err = err
		if err == nil && result != nil {
			c.put(key, result)
		}

		c.mu.Lock()
		delete(c.inflight, key)
		c.mu.Unlock()

		close(f.done)
	}()

	return c.await(ctx, f)
}

// Invalidate drops a cached entry
func (c *ResultCache) Invalidate(key string) {
	if c.store != nil {
		_ = c.store.Delete(key)
	}
}

func (c *ResultCache) await(ctx context.Context, f *flight) (*model.AnalysisResult, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *ResultCache) lookup(key string) (*model.AnalysisResult, bool) {
	if c.store == nil {
		return nil, false
	}
	data, found := c.store.Get(key)
	if !found {
		return nil, false
	}
	var result model.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		// Corrupt entry: drop it and recompute
		_ = c.store.Delete(key)
		return nil, false
	}
	return &result, true
}

func (c *ResultCache) put(key string, result *model.AnalysisResult) {
	if c.store == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	// Store failures degrade to compute-without-caching, never fail the request
	_ = c.store.Set(key, data, c.ttl)
}
