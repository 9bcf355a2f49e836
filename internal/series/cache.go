package series

import (
	"sync"

	"github.com/google/uuid"
)

// enrichedKey identifies one enriched-series computation. Every
// parameter that influences the result is part of the key, so a lookup
// can never return a result computed for a different window or band
// width. Dataset identity is a fresh UUID per upload, which makes
// staleness impossible without any time-based invalidation.
type enrichedKey struct {
	dataset uuid.UUID
	city    string
	window  int
	sigma   float64
}

type baselineKey struct {
	dataset uuid.UUID
	city    string
	sigma   float64
}

type baselineEntry struct {
	baseline Baseline
	ok       bool
}

// Cache memoizes enriched series and seasonal baselines per dataset.
// Safe for concurrent use.
type Cache struct {
	mu        sync.RWMutex
	enriched  map[enrichedKey]EnrichedSeries
	baselines map[baselineKey]baselineEntry
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{
		enriched:  make(map[enrichedKey]EnrichedSeries),
		baselines: make(map[baselineKey]baselineEntry),
	}
}

// Enriched returns the anomaly-annotated series for (dataset, city,
// window, sigma), computing and memoizing it on first use.
func (c *Cache) Enriched(dataset uuid.UUID, city string, s Series, window int, sigma float64) EnrichedSeries {
	key := enrichedKey{dataset: dataset, city: city, window: window, sigma: sigma}

	c.mu.RLock()
	es, ok := c.enriched[key]
	c.mu.RUnlock()
	if ok {
		return es
	}

	es = DetectAnomalies(ComputeRollingStats(s, window), sigma)

	c.mu.Lock()
	c.enriched[key] = es
	c.mu.Unlock()
	return es
}

// Baseline returns the seasonal baseline for (dataset, city, sigma),
// computing and memoizing it on first use. The negative outcome (no
// baseline derivable) is memoized too.
func (c *Cache) Baseline(dataset uuid.UUID, city string, s Series, sigma float64) (Baseline, bool) {
	key := baselineKey{dataset: dataset, city: city, sigma: sigma}

	c.mu.RLock()
	e, ok := c.baselines[key]
	c.mu.RUnlock()
	if ok {
		return e.baseline, e.ok
	}

	b, derived := ComputeBaseline(s, sigma)

	c.mu.Lock()
	c.baselines[key] = baselineEntry{baseline: b, ok: derived}
	c.mu.Unlock()
	return b, derived
}

// Invalidate drops all memoized results for a dataset, e.g. when the
// store evicts it.
func (c *Cache) Invalidate(dataset uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.enriched {
		if k.dataset == dataset {
			delete(c.enriched, k)
		}
	}
	for k := range c.baselines {
		if k.dataset == dataset {
			delete(c.baselines, k)
		}
	}
}
