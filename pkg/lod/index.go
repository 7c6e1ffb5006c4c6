package lod

import (
	"sort"

	"github.com/dhconnelly/rtreego"
)

// SpatialIndex answers viewport-rectangle range queries over the
// feature bounding boxes declared in the manifest.
//
// One R-tree is built per dataset at construction time; the index is
// immutable and safe for concurrent reads afterwards.
//
// Spatial queries are O(log N) with the R-tree, compared to O(N) with
// linear scan.
//
// Example:
//
//	idx := lod.BuildSpatialIndex(manifest, lod.DefaultIndexOptions())
//	viewport := lod.Bounds{
//	    MinLon: -7.0, MaxLon: -6.0,
//	    MinLat: 54.0, MaxLat: 54.5,
//	}
//	entries := idx.Query("wards", viewport)
type SpatialIndex struct {
	datasets map[string]*datasetIndex
	opts     IndexOptions
}

// datasetIndex holds one dataset's entries and their R-tree.
type datasetIndex struct {
	entries []IndexEntry
	rtree   *rtreego.Rtree
}

// IndexEntry identifies one feature and its geographic bounding box.
type IndexEntry struct {
	DatasetID    string
	FeatureIndex int
	GeoBounds    Bounds
}

// Bounds method for rtreego.Spatial interface.
func (e IndexEntry) Bounds() rtreego.Rect {
	return e.GeoBounds.rect()
}

// IndexOptions controls spatial index behavior.
type IndexOptions struct {
	// BufferFraction expands query viewports symmetrically by this
	// fraction of their width and height, prefetching just-offscreen
	// features for smoother panning.
	// Default: 0.20
	BufferFraction float64

	// DetailThreshold is the feature count a dataset must exceed for
	// progressive per-feature loading to be worth its overhead.
	// Smaller datasets should be fetched wholesale instead.
	// Default: 50
	DetailThreshold int
}

// DefaultIndexOptions returns index options with defaults.
func DefaultIndexOptions() IndexOptions {
	return IndexOptions{
		BufferFraction:  0.20,
		DetailThreshold: 50,
	}
}

// BuildSpatialIndex builds per-dataset R-trees from manifest records.
//
// A nil manifest yields an empty index: every query returns nothing and
// no dataset supports progressive detail.
func BuildSpatialIndex(manifest *Manifest, opts IndexOptions) *SpatialIndex {
	if opts.BufferFraction <= 0 {
		opts.BufferFraction = 0.20
	}
	if opts.DetailThreshold <= 0 {
		opts.DetailThreshold = 50
	}

	idx := &SpatialIndex{
		datasets: make(map[string]*datasetIndex),
		opts:     opts,
	}
	if manifest == nil {
		return idx
	}

	for _, record := range manifest.Records {
		ds := idx.datasets[record.DatasetID]
		if ds == nil {
			// 2D R-tree, 25-50 children per node
			ds = &datasetIndex{rtree: rtreego.NewTree(2, 25, 50)}
			idx.datasets[record.DatasetID] = ds
		}

		entry := IndexEntry{
			DatasetID:    record.DatasetID,
			FeatureIndex: len(ds.entries),
			GeoBounds:    record.Bounds(),
		}
		ds.entries = append(ds.entries, entry)
		ds.rtree.Insert(entry)
	}

	return idx
}

// SupportsDetail reports whether a dataset is large enough for
// progressive per-feature loading.
//
// Below the threshold the per-request overhead outweighs the savings;
// callers should load such datasets wholesale.
func (idx *SpatialIndex) SupportsDetail(datasetID string) bool {
	return idx.FeatureCount(datasetID) > idx.opts.DetailThreshold
}

// FeatureCount returns the number of indexed features in a dataset.
//
// An unknown dataset id returns 0; it is not an error.
func (idx *SpatialIndex) FeatureCount(datasetID string) int {
	if ds, ok := idx.datasets[datasetID]; ok {
		return len(ds.entries)
	}
	return 0
}

// Query returns the entries whose bounding box intersects the viewport
// expanded by the buffer fraction.
//
// Results are fresh copies sorted by feature index; they never alias
// index storage.
func (idx *SpatialIndex) Query(datasetID string, viewport Bounds) []IndexEntry {
	ds, ok := idx.datasets[datasetID]
	if !ok {
		return nil
	}

	buffered := viewport.Buffer(idx.opts.BufferFraction)
	spatials := ds.rtree.SearchIntersect(buffered.rect())

	result := make([]IndexEntry, 0, len(spatials))
	for _, spatial := range spatials {
		result = append(result, spatial.(IndexEntry))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].FeatureIndex < result[j].FeatureIndex
	})
	return result
}

// QueryIndices returns just the feature indices of Query.
func (idx *SpatialIndex) QueryIndices(datasetID string, viewport Bounds) []int {
	entries := idx.Query(datasetID, viewport)
	if entries == nil {
		return nil
	}

	indices := make([]int, len(entries))
	for i, entry := range entries {
		indices[i] = entry.FeatureIndex
	}
	return indices
}
