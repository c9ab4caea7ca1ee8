// Package dedup holds the process-local result cache and the set of cache keys
// currently being evaluated. A Coordinator is built once at startup and shared
// by reference.
package dedup

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/tonecheck/pkg/domain/model"
	"github.com/secmon-lab/tonecheck/pkg/utils/async"
	"github.com/secmon-lab/tonecheck/pkg/utils/logging"
)

const (
	DefaultMaxEntries = 500
	DefaultTTL        = 24 * time.Hour
)

// Status is the answer of Resolve when no result is returned
type Status int

const (
	// StatusReady means a cached result was returned
	StatusReady Status = iota
	// StatusProcessing means the result is being computed in the background
	StatusProcessing
)

// String returns the string representation of Status
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusProcessing:
		return "processing"
	default:
		return "unknown"
	}
}

// ComputeFunc evaluates one key. It runs on a context detached from the request.
type ComputeFunc func(ctx context.Context) (*model.EvaluationResult, error)

// Coordinator is a single-flight front of an LRU cache with expiring entries
type Coordinator struct {
	mu       sync.Mutex
	cache    *expirable.LRU[model.CacheKey, *model.EvaluationResult]
	inFlight map[model.CacheKey]struct{}
	tasks    sync.WaitGroup

	maxEntries int
	ttl        time.Duration
}

// Option is a functional option for Coordinator
type Option func(*Coordinator)

// WithMaxEntries bounds the number of cached results
func WithMaxEntries(n int) Option {
	return func(c *Coordinator) {
		c.maxEntries = n
	}
}

// WithTTL sets how long a cached result lives without being read
func WithTTL(ttl time.Duration) Option {
	return func(c *Coordinator) {
		c.ttl = ttl
	}
}

// New creates a Coordinator
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		inFlight:   make(map[model.CacheKey]struct{}),
		maxEntries: DefaultMaxEntries,
		ttl:        DefaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.maxEntries <= 0 {
		c.maxEntries = DefaultMaxEntries
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}

	c.cache = expirable.NewLRU[model.CacheKey, *model.EvaluationResult](c.maxEntries, nil, c.ttl)
	return c
}

// Resolve returns the cached result of key, or starts fn in the background when
// key is neither cached nor in flight. At most one fn runs per key at a time.
// The returned result is a copy.
func (c *Coordinator) Resolve(ctx context.Context, key model.CacheKey, fn ComputeFunc) (*model.EvaluationResult, Status) {
	c.mu.Lock()
	if result, ok := c.getLocked(key); ok {
		c.mu.Unlock()
		return result.Clone(), StatusReady
	}
	if _, ok := c.inFlight[key]; ok {
		c.mu.Unlock()
		logging.From(ctx).Debug("evaluation already in flight", "key", key)
		return nil, StatusProcessing
	}
	c.inFlight[key] = struct{}{}
	c.tasks.Add(1)
	c.mu.Unlock()

	logging.From(ctx).Info("dispatching evaluation", "key", key)

	async.Go(ctx, func(ctx context.Context) error {
		result, err := fn(ctx)
		if err != nil {
			return goerr.Wrap(err, "evaluation failed", goerr.V("key", key))
		}
		if result == nil {
			return goerr.New("evaluation returned no result", goerr.V("key", key))
		}
		c.Store(key, result)
		return nil
	}, func(error) {
		c.mu.Lock()
		delete(c.inFlight, key)
		c.mu.Unlock()
		c.tasks.Done()
	})

	return nil, StatusProcessing
}

// Get returns a copy of the cached result of key and refreshes its TTL
func (c *Coordinator) Get(key model.CacheKey) (*model.EvaluationResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	result, ok := c.getLocked(key)
	if !ok {
		return nil, false
	}
	return result.Clone(), true
}

// Store caches a copy of result under key
func (c *Coordinator) Store(key model.CacheKey, result *model.EvaluationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Add(key, result.Clone())
}

// InFlight reports whether key is being computed
func (c *Coordinator) InFlight(key model.CacheKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inFlight[key]
	return ok
}

// Len returns the number of cached results
func (c *Coordinator) Len() int {
	return c.cache.Len()
}

// Limit returns the maximum number of cached results
func (c *Coordinator) Limit() int {
	return c.maxEntries
}

// InFlightCount returns the number of keys being computed
func (c *Coordinator) InFlightCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inFlight)
}

// Wait blocks until every dispatched computation has finished or ctx is done
func (c *Coordinator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.tasks.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return goerr.Wrap(ctx.Err(), "gave up waiting for evaluations", goerr.V("in_flight", c.InFlightCount()))
	}
}

// getLocked reads key and re-adds it so its TTL restarts. Caller holds c.mu.
func (c *Coordinator) getLocked(key model.CacheKey) (*model.EvaluationResult, bool) {
	result, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	c.cache.Add(key, result)
	return result, true
}
