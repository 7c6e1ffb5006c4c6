package lod

import (
	"container/list"
	"sync"

	"github.com/paulmach/orb"

	"github.com/ScottMoore0/boundaries-website/internal/geometry"
)

// resourceKey identifies one fetchable geometry payload.
type resourceKey struct {
	datasetID    string
	featureIndex int
	level        DetailLevel
}

// FeatureCache stores decoded feature payloads keyed by
// (dataset, feature index, detail level).
//
// Entries are write-once per key and never mutated. With the default
// zero memory limit nothing is evicted; entries only leave the cache
// through an explicit per-dataset clear (dataset unload or a forced
// detail-level rebuild). An optional memory limit adds LRU eviction for
// hosts that keep many datasets resident.
//
// Memory estimation is approximate, based on coordinate and property
// counts.
type FeatureCache struct {
	maxMemory  int64 // 0 = unlimited
	usedMemory int64
	features   map[resourceKey]*cacheEntry
	lru        *list.List // most recent at front
	mu         sync.RWMutex
}

// cacheEntry tracks a cached feature and its LRU position.
type cacheEntry struct {
	key        resourceKey
	feature    *geometry.Feature
	memorySize int64
	element    *list.Element
}

// NewFeatureCache creates a cache with the given memory limit in bytes.
//
// A limit of 0 disables eviction entirely, matching the engine's
// default behavior.
func NewFeatureCache(maxMemoryBytes int64) *FeatureCache {
	return &FeatureCache{
		maxMemory: maxMemoryBytes,
		features:  make(map[resourceKey]*cacheEntry),
		lru:       list.New(),
	}
}

// Get returns the cached feature for an exact resource key.
func (c *FeatureCache) Get(datasetID string, featureIndex int, level DetailLevel) (*geometry.Feature, bool) {
	key := resourceKey{datasetID, featureIndex, level}

	c.mu.RLock()
	entry, ok := c.features[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if c.maxMemory > 0 {
		c.mu.Lock()
		c.lru.MoveToFront(entry.element)
		c.mu.Unlock()
	}
	return entry.feature, true
}

// Put stores a decoded feature.
//
// Keys are write-once: a second Put for the same key is a no-op, so
// racing fetch settlements cannot replace a payload something already
// holds a reference to.
func (c *FeatureCache) Put(datasetID string, featureIndex int, level DetailLevel, feature *geometry.Feature) {
	key := resourceKey{datasetID, featureIndex, level}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.features[key]; ok {
		return
	}

	memSize := estimateFeatureMemory(feature)
	if c.maxMemory > 0 {
		for c.usedMemory+memSize > c.maxMemory && c.lru.Len() > 0 {
			c.evictLRU()
		}
	}

	entry := &cacheEntry{
		key:        key,
		feature:    feature,
		memorySize: memSize,
	}
	entry.element = c.lru.PushFront(entry)
	c.features[key] = entry
	c.usedMemory += memSize
}

// HasAtOrAbove reports whether the feature is cached at minLevel or any
// higher fidelity tier.
//
// The result is monotonic: once true for a level it stays true until an
// explicit per-dataset clear, regardless of which level is currently
// displayed.
func (c *FeatureCache) HasAtOrAbove(datasetID string, featureIndex int, minLevel DetailLevel) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for level := minLevel; level <= DetailFull; level++ {
		if _, ok := c.features[resourceKey{datasetID, featureIndex, level}]; ok {
			return true
		}
	}
	return false
}

// evictLRU removes the least recently used feature.
// Must be called with c.mu locked.
func (c *FeatureCache) evictLRU() {
	elem := c.lru.Back()
	if elem == nil {
		return
	}

	entry := elem.Value.(*cacheEntry)
	c.lru.Remove(elem)
	delete(c.features, entry.key)
	c.usedMemory -= entry.memorySize
}

// ClearDataset removes every cached feature of one dataset at every
// detail level.
func (c *FeatureCache) ClearDataset(datasetID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.features {
		if key.datasetID != datasetID {
			continue
		}
		c.lru.Remove(entry.element)
		delete(c.features, key)
		c.usedMemory -= entry.memorySize
	}
}

// Stats returns cache statistics.
func (c *FeatureCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return CacheStats{
		FeatureCount: len(c.features),
		UsedMemory:   c.usedMemory,
		MaxMemory:    c.maxMemory,
	}
}

// CacheStats holds cache metrics.
type CacheStats struct {
	FeatureCount int   // Number of cached feature payloads
	UsedMemory   int64 // Estimated memory usage in bytes
	MaxMemory    int64 // Memory limit in bytes (0 = unlimited)
}

// estimateFeatureMemory estimates memory usage for a decoded feature.
//
// Approximate: base overhead plus 16 bytes per coordinate and 64 bytes
// per property. Actual usage varies with geometry nesting and string
// lengths.
func estimateFeatureMemory(feature *geometry.Feature) int64 {
	if feature == nil {
		return 0
	}

	size := int64(256)
	if feature.Geometry != nil {
		size += int64(coordinateCount(feature.Geometry)) * 16
	}
	size += int64(len(feature.Properties)) * 64
	return size
}

// coordinateCount counts the coordinate pairs in a geometry.
func coordinateCount(g orb.Geometry) int {
	switch geom := g.(type) {
	case orb.Point:
		return 1
	case orb.MultiPoint:
		return len(geom)
	case orb.LineString:
		return len(geom)
	case orb.MultiLineString:
		n := 0
		for _, line := range geom {
			n += len(line)
		}
		return n
	case orb.Ring:
		return len(geom)
	case orb.Polygon:
		n := 0
		for _, ring := range geom {
			n += len(ring)
		}
		return n
	case orb.MultiPolygon:
		n := 0
		for _, poly := range geom {
			n += coordinateCount(poly)
		}
		return n
	case orb.Bound:
		return 2
	case orb.Collection:
		n := 0
		for _, member := range geom {
			n += coordinateCount(member)
		}
		return n
	}
	return 0
}
