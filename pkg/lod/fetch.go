package lod

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ScottMoore0/boundaries-website/internal/geometry"
)

// FetchCoordinator resolves which resources a viewport pass actually
// needs, de-duplicates in-flight requests, and executes fixed-width
// sequential batches against a FeatureSource.
//
// Batch N+1 starts only once every member of batch N has settled
// (succeeded or failed), bounding outstanding requests to the batch
// width. This is deliberate admission control: a fast pan can demand
// hundreds of resources in a burst, and the batch width caps how many
// hit the transport at once while still pipelining within a batch.
type FetchCoordinator struct {
	cache      *FeatureCache
	source     FeatureSource
	batchWidth int
	logger     *slog.Logger

	mu      sync.Mutex
	pending map[resourceKey]*pendingRequest
}

// pendingRequest is the shared handle for one in-flight fetch.
// Every waiter observes the same settlement.
type pendingRequest struct {
	done    chan struct{}
	feature *geometry.Feature
	err     error
}

// FetchOptions controls fetch execution.
type FetchOptions struct {
	// BatchWidth is the number of requests in flight at once.
	// Default: 50
	BatchWidth int

	// Logger receives per-resource failure and lifecycle records.
	// Default: slog.Default()
	Logger *slog.Logger
}

// DefaultFetchOptions returns fetch options with defaults.
func DefaultFetchOptions() FetchOptions {
	return FetchOptions{
		BatchWidth: 50,
		Logger:     slog.Default(),
	}
}

// NewFetchCoordinator creates a coordinator over a cache and source.
func NewFetchCoordinator(cache *FeatureCache, source FeatureSource, opts FetchOptions) *FetchCoordinator {
	if opts.BatchWidth <= 0 {
		opts.BatchWidth = 50
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &FetchCoordinator{
		cache:      cache,
		source:     source,
		batchWidth: opts.BatchWidth,
		logger:     opts.Logger,
		pending:    make(map[resourceKey]*pendingRequest),
	}
}

// ResolveFetchSet returns the subset of visible indices not already
// cache-satisfied at or above the target level, in input order.
func (fc *FetchCoordinator) ResolveFetchSet(datasetID string, visible []int, target DetailLevel) []int {
	fetchSet := make([]int, 0, len(visible))
	for _, index := range visible {
		if !fc.cache.HasAtOrAbove(datasetID, index, target) {
			fetchSet = append(fetchSet, index)
		}
	}
	return fetchSet
}

// EnsureLoaded fetches every listed feature at the given level,
// settling once each one has been attempted.
//
// Failed resources are logged and skipped; they do not block the
// surrounding batch or surface to the caller, and remain eligible for
// re-fetch on a later pass. The only returned error is context
// cancellation between batches.
//
// Calling EnsureLoaded twice with the same arguments issues exactly one
// transport operation per resource key: already-cached keys are skipped
// and in-flight keys are joined rather than re-requested.
func (fc *FetchCoordinator) EnsureLoaded(ctx context.Context, datasetID string, indices []int, level DetailLevel) error {
	fetchSet := fc.ResolveFetchSet(datasetID, indices, level)

	for start := 0; start < len(fetchSet); start += fc.batchWidth {
		end := start + fc.batchWidth
		if end > len(fetchSet) {
			end = len(fetchSet)
		}

		var wg sync.WaitGroup
		for _, index := range fetchSet[start:end] {
			wg.Add(1)
			go func(index int) {
				defer wg.Done()
				if _, err := fc.fetchOne(ctx, datasetID, index, level); err != nil {
					fc.logger.Warn("feature fetch failed",
						"dataset", datasetID,
						"feature", index,
						"level", level.String(),
						"error", err)
				}
			}(index)
		}
		wg.Wait()

		if err := ctx.Err(); err != nil {
			return err
		}
	}

	return nil
}

// fetchOne fetches a single resource, joining any in-flight request for
// the same key.
func (fc *FetchCoordinator) fetchOne(ctx context.Context, datasetID string, index int, level DetailLevel) (*geometry.Feature, error) {
	key := resourceKey{datasetID, index, level}

	if feature, ok := fc.cache.Get(datasetID, index, level); ok {
		return feature, nil
	}

	fc.mu.Lock()
	if inflight, ok := fc.pending[key]; ok {
		fc.mu.Unlock()
		<-inflight.done
		return inflight.feature, inflight.err
	}
	request := &pendingRequest{done: make(chan struct{})}
	fc.pending[key] = request
	fc.mu.Unlock()

	feature, err := fc.source.FetchFeature(ctx, datasetID, index, level)
	if err != nil {
		request.err = &ErrResourceFetch{
			DatasetID:    datasetID,
			FeatureIndex: index,
			Level:        level,
			Err:          err,
		}
	} else {
		// A superseded fetch still lands here: the result is stale
		// but harmless, available to the next placement pass.
		fc.cache.Put(datasetID, index, level, feature)
		request.feature = feature
	}

	fc.mu.Lock()
	// ClearDataset may have replaced this entry with a newer one;
	// only remove our own handle.
	if current, ok := fc.pending[key]; ok && current == request {
		delete(fc.pending, key)
	}
	fc.mu.Unlock()
	close(request.done)

	return request.feature, request.err
}

// ClearDataset drops in-flight bookkeeping for one dataset.
//
// Fetches already running still settle and populate the cache, but new
// requests for the same keys are issued fresh rather than joined.
func (fc *FetchCoordinator) ClearDataset(datasetID string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	for key := range fc.pending {
		if key.datasetID == datasetID {
			delete(fc.pending, key)
		}
	}
}

// PendingCount returns the number of in-flight requests.
func (fc *FetchCoordinator) PendingCount() int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return len(fc.pending)
}
