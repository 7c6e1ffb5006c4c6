package lod

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/paulmach/orb"

	"github.com/ScottMoore0/boundaries-website/internal/geometry"
)

// Engine ties the spatial index, detail policy, feature cache and fetch
// coordinator into one viewport-driven streaming instance.
//
// An Engine is an explicit instance, not process-wide state: construct
// one per manifest (and as many as you need for tests), parameterized
// by Options.
//
// Example:
//
//	manifest, err := lod.LoadManifestFile("data/manifest.json")
//	if err != nil {
//	    log.Printf("progressive loading disabled: %v", err)
//	}
//	source := lod.NewHTTPFeatureSource("https://example.org/boundaries", nil)
//	engine := lod.NewEngine(manifest, source, lod.DefaultOptions())
//
//	result, err := engine.SyncViewport(ctx, "wards", viewport, 10.5)
type Engine struct {
	manifest *Manifest
	index    *SpatialIndex
	cache    *FeatureCache
	fetcher  *FetchCoordinator
	source   FeatureSource
	logger   *slog.Logger
	onReset  func(datasetID string, previous, next DetailLevel)

	mu        sync.Mutex
	displayed map[string]DetailLevel
}

// Options configures engine behavior.
type Options struct {
	// BatchWidth is the number of feature fetches in flight at once.
	// Default: 50
	BatchWidth int

	// BufferFraction expands query viewports for prefetch.
	// Default: 0.20
	BufferFraction float64

	// DetailThreshold is the minimum feature count for progressive
	// per-feature loading.
	// Default: 50
	DetailThreshold int

	// CacheMemoryLimit bounds the feature cache in bytes with LRU
	// eviction. 0 keeps the cache unbounded, which matches the
	// reference behavior; entries then leave only via ClearDataset.
	// Default: 0
	CacheMemoryLimit int64

	// OnLevelReset is called when a dataset's displayed detail level
	// changes, before its cache is cleared and re-fetched. The render
	// layer should drop all geometry for the dataset here: mixed
	// detail levels on one dataset draw misaligned outlines.
	OnLevelReset func(datasetID string, previous, next DetailLevel)

	// Logger receives engine lifecycle and fetch failure records.
	// Default: slog.Default()
	Logger *slog.Logger
}

// DefaultOptions returns engine options with defaults.
func DefaultOptions() Options {
	return Options{
		BatchWidth:       50,
		BufferFraction:   0.20,
		DetailThreshold:  50,
		CacheMemoryLimit: 0,
	}
}

// NewEngine creates an engine over a manifest and feature source.
//
// The manifest may be nil (startup with an unavailable manifest); the
// engine then reports progressive loading as unsupported for every
// dataset rather than failing.
func NewEngine(manifest *Manifest, source FeatureSource, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	cache := NewFeatureCache(opts.CacheMemoryLimit)
	return &Engine{
		manifest: manifest,
		index: BuildSpatialIndex(manifest, IndexOptions{
			BufferFraction:  opts.BufferFraction,
			DetailThreshold: opts.DetailThreshold,
		}),
		cache: cache,
		fetcher: NewFetchCoordinator(cache, source, FetchOptions{
			BatchWidth: opts.BatchWidth,
			Logger:     opts.Logger,
		}),
		source:    source,
		logger:    opts.Logger,
		onReset:   opts.OnLevelReset,
		displayed: make(map[string]DetailLevel),
	}
}

// SupportsDetail reports whether a dataset supports progressive
// per-feature loading.
func (e *Engine) SupportsDetail(datasetID string) bool {
	return e.index.SupportsDetail(datasetID)
}

// FeatureCount returns a dataset's indexed feature count (0 if unknown).
func (e *Engine) FeatureCount(datasetID string) int {
	return e.index.FeatureCount(datasetID)
}

// QueryVisible returns the indices of features whose bounding box
// intersects the buffered viewport.
func (e *Engine) QueryVisible(datasetID string, viewport Bounds) []int {
	return e.index.QueryIndices(datasetID, viewport)
}

// EnsureLoaded fetches the listed features at the given level, settling
// once every index has been attempted. See FetchCoordinator.EnsureLoaded.
func (e *Engine) EnsureLoaded(ctx context.Context, datasetID string, indices []int, level DetailLevel) error {
	return e.fetcher.EnsureLoaded(ctx, datasetID, indices, level)
}

// SyncResult reports what one viewport pass decided and loaded.
type SyncResult struct {
	Level   DetailLevel // level the dataset is now displayed at
	Visible []int       // feature indices visible in the buffered viewport
	Reset   bool        // true if a detail-level change forced a rebuild
}

// SyncViewport drives one viewport/zoom pass for a dataset: picks the
// detail level, performs the hard-cut rebuild on a level change, and
// loads everything visible.
//
// On a level change the engine does not top up incrementally. It
// notifies OnLevelReset (so the render layer drops the dataset's
// geometry), clears the dataset's cache and in-flight bookkeeping,
// recomputes the visible set and issues one fresh full pass at the new
// level.
func (e *Engine) SyncViewport(ctx context.Context, datasetID string, viewport Bounds, zoom float64) (SyncResult, error) {
	level := LevelForZoom(zoom)

	e.mu.Lock()
	previous, seen := e.displayed[datasetID]
	reset := seen && previous != level
	e.displayed[datasetID] = level
	e.mu.Unlock()

	if reset {
		e.logger.Debug("detail level changed",
			"dataset", datasetID,
			"previous", previous.String(),
			"next", level.String())
		if e.onReset != nil {
			e.onReset(datasetID, previous, level)
		}
		e.cache.ClearDataset(datasetID)
		e.fetcher.ClearDataset(datasetID)
	}

	visible := e.QueryVisible(datasetID, viewport)
	err := e.EnsureLoaded(ctx, datasetID, visible, level)
	return SyncResult{Level: level, Visible: visible, Reset: reset}, err
}

// DisplayedLevel returns the level a dataset is currently displayed at.
func (e *Engine) DisplayedLevel(datasetID string) (DetailLevel, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	level, ok := e.displayed[datasetID]
	return level, ok
}

// LoadDatasetWholesale fetches an entire dataset in one request at the
// given level. Intended for datasets below the detail threshold, where
// per-feature requests are not worth their overhead.
//
// Requires a source implementing BulkFeatureSource.
func (e *Engine) LoadDatasetWholesale(ctx context.Context, datasetID string, level DetailLevel) error {
	bulk, ok := e.source.(BulkFeatureSource)
	if !ok {
		return fmt.Errorf("load dataset %s: source does not support wholesale loading", datasetID)
	}

	features, err := bulk.FetchDataset(ctx, datasetID, level)
	if err != nil {
		return &ErrResourceFetch{DatasetID: datasetID, Level: level, Err: err}
	}

	for index, feature := range features {
		e.cache.Put(datasetID, index, level, feature)
	}

	e.mu.Lock()
	e.displayed[datasetID] = level
	e.mu.Unlock()
	return nil
}

// ClearDataset drops a dataset's cached features and in-flight
// bookkeeping. Issued on dataset unload or ahead of a forced rebuild.
func (e *Engine) ClearDataset(datasetID string) {
	e.cache.ClearDataset(datasetID)
	e.fetcher.ClearDataset(datasetID)

	e.mu.Lock()
	delete(e.displayed, datasetID)
	e.mu.Unlock()
}

// Feature returns a loaded feature's geometry and properties at the
// dataset's displayed level.
func (e *Engine) Feature(datasetID string, featureIndex int) (orb.Geometry, map[string]interface{}, bool) {
	level, ok := e.DisplayedLevel(datasetID)
	if !ok {
		return nil, nil, false
	}

	feature, ok := e.cache.Get(datasetID, featureIndex, level)
	if !ok {
		return nil, nil, false
	}
	return feature.Geometry, feature.Properties, true
}

// LabelCandidatesFor builds label candidates from the loaded, visible
// features of one dataset, if it declares a label field.
//
// Text comes from the label field, falling back to the manifest's
// feature name; priority from the priority field (default 0). Features
// not yet loaded at the displayed level are skipped; they become
// candidates on a later pass once their fetch settles.
func (e *Engine) LabelCandidatesFor(datasetID string, viewport Bounds) []LabelCandidate {
	if e.manifest == nil {
		return nil
	}
	info, ok := e.manifest.Dataset(datasetID)
	if !ok || info.LabelField == "" {
		return nil
	}
	level, ok := e.DisplayedLevel(datasetID)
	if !ok {
		return nil
	}

	records := e.manifest.RecordsFor(datasetID)
	var candidates []LabelCandidate
	for _, entry := range e.index.Query(datasetID, viewport) {
		feature, ok := e.cache.Get(datasetID, entry.FeatureIndex, level)
		if !ok {
			continue
		}

		text, ok := geometry.StringProperty(feature.Properties, info.LabelField)
		if !ok && entry.FeatureIndex < len(records) {
			text = records[entry.FeatureIndex].FeatureName
		}
		if text == "" {
			continue
		}

		priority := 0.0
		if info.PriorityField != "" {
			if n, ok := geometry.NumberProperty(feature.Properties, info.PriorityField); ok {
				priority = n
			}
		}

		geom := feature.Geometry
		candidates = append(candidates, LabelCandidate{
			DatasetID:    datasetID,
			FeatureIndex: entry.FeatureIndex,
			Text:         text,
			Color:        info.LabelColor,
			Priority:     priority,
			Geometry: func() (orb.Geometry, error) {
				return geom, nil
			},
		})
	}
	return candidates
}

// Stats returns engine statistics.
func (e *Engine) Stats() EngineStats {
	e.mu.Lock()
	displayed := len(e.displayed)
	e.mu.Unlock()

	return EngineStats{
		Cache:             e.cache.Stats(),
		PendingFetches:    e.fetcher.PendingCount(),
		DisplayedDatasets: displayed,
	}
}

// EngineStats holds engine metrics.
type EngineStats struct {
	Cache             CacheStats
	PendingFetches    int
	DisplayedDatasets int
}
