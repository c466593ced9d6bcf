package services

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/usdinspect/internal/core/domain"
	"github.com/custodia-labs/usdinspect/internal/logger"
)

const (
	tableResolve = "resolve"
	tableSample  = "sample"
)

var cacheLog = logger.For("cache")

type resolveKey struct {
	path     domain.Path
	property string
}

type sampleKey struct {
	path     domain.Path
	property string
	time     domain.TimeCode
}

// cached is a memoized result. Absent results (found == false) are cached
// like any other; errors never are.
type cached[V any] struct {
	value V
	found bool
}

// CacheStats is a point-in-time snapshot of cache activity.
type CacheStats struct {
	Hits          int64
	Misses        int64
	Computations  int64
	Invalidations int64
	Resolutions   int
	Samples       int
}

// CacheOption configures a ResolutionCache.
type CacheOption func(*ResolutionCache)

// WithCacheDisabled turns memoization off. Every lookup computes directly;
// results are identical, only latency changes.
func WithCacheDisabled() CacheOption {
	return func(c *ResolutionCache) {
		c.enabled = false
	}
}

// WithRegisterer registers the cache's collectors with reg.
func WithRegisterer(reg prometheus.Registerer) CacheOption {
	return func(c *ResolutionCache) {
		c.registerer = reg
	}
}

// ResolutionCache memoizes resolutions keyed by (path, property) and samples
// keyed by (path, property, time).
//
// Thread Safety:
//
//	ResolutionCache is safe for concurrent use. At most one computation per
//	key is in flight; late callers wait for the first one's result. A caller
//	that gives up (context cancelled) does not cancel the computation, whose
//	result is still cached. InvalidateAll bumps a generation so computations
//	started before it never repopulate the cache.
type ResolutionCache struct {
	enabled    bool
	registerer prometheus.Registerer

	mu          sync.RWMutex
	generation  uint64
	resolutions map[resolveKey]cached[domain.ResolvedOpinionSet]
	samples     map[sampleKey]cached[domain.SampledValue]
	flight      singleflight.Group

	hits          atomic.Int64
	misses        atomic.Int64
	computations  atomic.Int64
	invalidations atomic.Int64

	lookups     *prometheus.CounterVec
	computed    *prometheus.CounterVec
	invalidated prometheus.Counter
}

// NewResolutionCache creates an empty cache.
func NewResolutionCache(opts ...CacheOption) *ResolutionCache {
	c := &ResolutionCache{
		enabled:     true,
		resolutions: make(map[resolveKey]cached[domain.ResolvedOpinionSet]),
		samples:     make(map[sampleKey]cached[domain.SampledValue]),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "usdinspect",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by table and result (hit or miss).",
		}, []string{"table", "result"}),
		computed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "usdinspect",
			Subsystem: "cache",
			Name:      "computations_total",
			Help:      "Underlying document computations by table.",
		}, []string{"table"}),
		invalidated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "usdinspect",
			Subsystem: "cache",
			Name:      "invalidations_total",
			Help:      "Number of full cache invalidations (document reloads).",
		}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.registerer != nil {
		c.registerer.MustRegister(c.lookups, c.computed, c.invalidated)
	}
	return c
}

// Enabled reports whether memoization is active.
func (c *ResolutionCache) Enabled() bool {
	return c != nil && c.enabled
}

// Resolution returns the memoized resolution of (path, property), running
// compute on a miss.
func (c *ResolutionCache) Resolution(
	ctx context.Context,
	path domain.Path,
	property string,
	compute func(context.Context) (domain.ResolvedOpinionSet, bool, error),
) (domain.ResolvedOpinionSet, bool, error) {
	return c.View().Resolution(ctx, path, property, compute)
}

// Sample returns the memoized sample of (path, property, t), running compute
// on a miss.
func (c *ResolutionCache) Sample(
	ctx context.Context,
	path domain.Path,
	property string,
	t domain.TimeCode,
	compute func(context.Context) (domain.SampledValue, bool, error),
) (domain.SampledValue, bool, error) {
	return c.View().Sample(ctx, path, property, t, compute)
}

// CacheView is a ResolutionCache bound to the generation current when the
// view was taken. After the cache is invalidated past that generation the
// view computes directly and stores nothing.
type CacheView struct {
	cache *ResolutionCache
	gen   uint64
}

// View returns a view bound to the current generation. A nil cache gives a
// nil view, which always computes directly.
func (c *ResolutionCache) View() *CacheView {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return &CacheView{cache: c, gen: c.generation}
}

// Current reports whether the view's generation is still the cache's.
func (v *CacheView) Current() bool {
	if v == nil {
		return false
	}
	v.cache.mu.RLock()
	defer v.cache.mu.RUnlock()
	return v.cache.generation == v.gen
}

// Resolution is ResolutionCache.Resolution within the view's generation.
func (v *CacheView) Resolution(
	ctx context.Context,
	path domain.Path,
	property string,
	compute func(context.Context) (domain.ResolvedOpinionSet, bool, error),
) (domain.ResolvedOpinionSet, bool, error) {
	if v == nil || !v.cache.Enabled() {
		v.countComputation(tableResolve)
		return compute(ctx)
	}
	c := v.cache
	key := resolveKey{path: path, property: property}
	return memoize(ctx, c, v.gen, tableResolve, flightKey(tableResolve, path, property, ""),
		func() (cached[domain.ResolvedOpinionSet], bool) {
			e, ok := c.resolutions[key]
			return e, ok
		},
		func(e cached[domain.ResolvedOpinionSet]) {
			c.resolutions[key] = e
		},
		compute)
}

// Sample is ResolutionCache.Sample within the view's generation.
func (v *CacheView) Sample(
	ctx context.Context,
	path domain.Path,
	property string,
	t domain.TimeCode,
	compute func(context.Context) (domain.SampledValue, bool, error),
) (domain.SampledValue, bool, error) {
	if v == nil || !v.cache.Enabled() {
		v.countComputation(tableSample)
		return compute(ctx)
	}
	c := v.cache
	key := sampleKey{path: path, property: property, time: t}
	return memoize(ctx, c, v.gen, tableSample, flightKey(tableSample, path, property, t.String()),
		func() (cached[domain.SampledValue], bool) {
			e, ok := c.samples[key]
			return e, ok
		},
		func(e cached[domain.SampledValue]) {
			c.samples[key] = e
		},
		compute)
}

func (v *CacheView) countComputation(table string) {
	if v == nil {
		return
	}
	v.cache.countComputation(table)
}

// InvalidateAll drops every entry. It must be called on document reload.
func (c *ResolutionCache) InvalidateAll() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.generation++
	clear(c.resolutions)
	clear(c.samples)
	c.mu.Unlock()

	c.invalidations.Add(1)
	c.invalidated.Inc()
	cacheLog.Debug("invalidated all entries")
}

// Stats returns a snapshot of cache activity.
func (c *ResolutionCache) Stats() CacheStats {
	if c == nil {
		return CacheStats{}
	}
	c.mu.RLock()
	resolutions, samples := len(c.resolutions), len(c.samples)
	c.mu.RUnlock()

	return CacheStats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Computations:  c.computations.Load(),
		Invalidations: c.invalidations.Load(),
		Resolutions:   resolutions,
		Samples:       samples,
	}
}

// Collectors returns the cache's Prometheus collectors.
func (c *ResolutionCache) Collectors() []prometheus.Collector {
	return []prometheus.Collector{c.lookups, c.computed, c.invalidated}
}

func (c *ResolutionCache) countComputation(table string) {
	if c == nil {
		return
	}
	c.computations.Add(1)
	c.computed.WithLabelValues(table).Inc()
}

// memoize implements the lookup / single-flight / store sequence shared by
// both tables for generation gen. get and put are called with c.mu held.
func memoize[V any](
	ctx context.Context,
	c *ResolutionCache,
	gen uint64,
	table, key string,
	get func() (cached[V], bool),
	put func(cached[V]),
	compute func(context.Context) (V, bool, error),
) (V, bool, error) {
	c.mu.RLock()
	stale := c.generation != gen
	var (
		entry cached[V]
		ok    bool
	)
	if !stale {
		entry, ok = get()
	}
	c.mu.RUnlock()

	// A view from before the last invalidation belongs to a previous
	// document: compute without touching the tables.
	if stale {
		c.countComputation(table)
		return compute(ctx)
	}

	if ok {
		c.hits.Add(1)
		c.lookups.WithLabelValues(table, "hit").Inc()
		return entry.value, entry.found, nil
	}
	c.misses.Add(1)
	c.lookups.WithLabelValues(table, "miss").Inc()

	// The generation is part of the flight key so callers arriving after a
	// reload never join a computation against the previous document.
	ch := c.flight.DoChan(strconv.FormatUint(gen, 10)+"\x00"+key, func() (any, error) {
		c.mu.RLock()
		entry, ok := get()
		ok = ok && c.generation == gen
		c.mu.RUnlock()
		if ok {
			return entry, nil
		}

		c.countComputation(table)
		cacheLog.Debug("miss %s", key)
		value, found, err := compute(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		entry = cached[V]{value: value, found: found}
		c.mu.Lock()
		if c.generation == gen {
			put(entry)
		}
		c.mu.Unlock()
		return entry, nil
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, false, res.Err
		}
		entry := res.Val.(cached[V])
		return entry.value, entry.found, nil
	}
}

func flightKey(table string, path domain.Path, property, suffix string) string {
	return table + "\x00" + string(path) + "\x00" + property + "\x00" + suffix
}
