package lod

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/ScottMoore0/boundaries-website/internal/geometry"
)

// mockSource counts transport operations per resource key and records
// call order, so tests can assert de-duplication and batch sequencing.
type mockSource struct {
	mu       sync.Mutex
	calls    map[string]int
	sequence []int
	failing  map[int]bool
	active   int
	peak     int
	release  chan struct{} // non-nil blocks every fetch until closed
}

func newMockSource() *mockSource {
	return &mockSource{
		calls:   make(map[string]int),
		failing: make(map[int]bool),
	}
}

func (m *mockSource) FetchFeature(ctx context.Context, datasetID string, featureIndex int, level DetailLevel) (*geometry.Feature, error) {
	m.mu.Lock()
	m.calls[ResourcePath(datasetID, featureIndex, level)]++
	m.sequence = append(m.sequence, featureIndex)
	m.active++
	if m.active > m.peak {
		m.peak = m.active
	}
	release := m.release
	m.mu.Unlock()

	if release != nil {
		<-release
	}

	m.mu.Lock()
	m.active--
	failed := m.failing[featureIndex]
	m.mu.Unlock()

	if failed {
		return nil, fmt.Errorf("simulated transport failure")
	}
	return testFeature(fmt.Sprintf("%s-%d", datasetID, featureIndex)), nil
}

func (m *mockSource) totalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func indexRange(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return indices
}

func TestEnsureLoadedIdempotent(t *testing.T) {
	source := newMockSource()
	cache := NewFeatureCache(0)
	fc := NewFetchCoordinator(cache, source, FetchOptions{Logger: quietLogger()})

	indices := indexRange(10)
	if err := fc.EnsureLoaded(context.Background(), "wards", indices, DetailMedium); err != nil {
		t.Fatalf("first pass failed: %v", err)
	}
	if err := fc.EnsureLoaded(context.Background(), "wards", indices, DetailMedium); err != nil {
		t.Fatalf("second pass failed: %v", err)
	}

	for _, i := range indices {
		key := ResourcePath("wards", i, DetailMedium)
		if source.calls[key] != 1 {
			t.Errorf("expected exactly 1 transport operation for %s, got %d", key, source.calls[key])
		}
	}
}

func TestBatchSequencing(t *testing.T) {
	source := newMockSource()
	source.failing[60] = true // inside batch 2

	cache := NewFeatureCache(0)
	fc := NewFetchCoordinator(cache, source, FetchOptions{BatchWidth: 50, Logger: quietLogger()})

	// 120 indices, batch width 50 -> batches of 50/50/20
	err := fc.EnsureLoaded(context.Background(), "wards", indexRange(120), DetailCoarse)
	if err != nil {
		t.Fatalf("a per-resource failure must not surface as an overall failure: %v", err)
	}

	if source.totalCalls() != 120 {
		t.Fatalf("expected 120 transport operations, got %d", source.totalCalls())
	}
	if source.peak > 50 {
		t.Errorf("outstanding requests exceeded batch width: peak %d", source.peak)
	}

	// Batches settle strictly in order: positions 0-49 of the call
	// sequence are exactly batch 1, and so on. Order within a batch is
	// unspecified.
	batches := [][2]int{{0, 50}, {50, 100}, {100, 120}}
	for b, bounds := range batches {
		seen := make(map[int]bool)
		for _, index := range source.sequence[bounds[0]:bounds[1]] {
			seen[index] = true
		}
		for want := bounds[0]; want < bounds[1]; want++ {
			if !seen[want] {
				t.Errorf("batch %d missing feature %d", b+1, want)
			}
		}
	}

	// The failed resource is excluded from the cache but the rest of
	// its batch, and the following batch, loaded normally.
	if cache.HasAtOrAbove("wards", 60, DetailCoarse) {
		t.Errorf("failed resource must not be cached")
	}
	if !cache.HasAtOrAbove("wards", 61, DetailCoarse) || !cache.HasAtOrAbove("wards", 119, DetailCoarse) {
		t.Errorf("failure inside batch 2 blocked later fetches")
	}

	// The failed key stays eligible: a later pass re-fetches it.
	source.mu.Lock()
	source.failing[60] = false
	source.mu.Unlock()
	if err := fc.EnsureLoaded(context.Background(), "wards", []int{60}, DetailCoarse); err != nil {
		t.Fatalf("retry pass failed: %v", err)
	}
	if !cache.HasAtOrAbove("wards", 60, DetailCoarse) {
		t.Errorf("retry did not populate the cache")
	}
}

func TestInFlightDeduplication(t *testing.T) {
	source := newMockSource()
	source.release = make(chan struct{})

	cache := NewFeatureCache(0)
	fc := NewFetchCoordinator(cache, source, FetchOptions{Logger: quietLogger()})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fc.EnsureLoaded(context.Background(), "wards", []int{7}, DetailFull)
		}()
	}

	// Let every caller reach the in-flight table, then release the
	// single underlying fetch.
	for {
		source.mu.Lock()
		started := len(source.sequence) > 0
		source.mu.Unlock()
		if started {
			break
		}
	}
	close(source.release)
	wg.Wait()

	if got := source.calls[ResourcePath("wards", 7, DetailFull)]; got != 1 {
		t.Errorf("concurrent callers issued %d transport operations, want 1", got)
	}
	if !cache.HasAtOrAbove("wards", 7, DetailFull) {
		t.Errorf("deduplicated fetch did not populate the cache")
	}
}

func TestResolveFetchSet(t *testing.T) {
	source := newMockSource()
	cache := NewFeatureCache(0)
	fc := NewFetchCoordinator(cache, source, FetchOptions{Logger: quietLogger()})

	cache.Put("wards", 1, DetailFull, testFeature("a"))   // satisfied above target
	cache.Put("wards", 2, DetailMedium, testFeature("b")) // satisfied at target
	cache.Put("wards", 3, DetailCoarse, testFeature("c")) // below target, still needed

	got := fc.ResolveFetchSet("wards", []int{0, 1, 2, 3}, DetailMedium)
	want := []int{0, 3}
	if len(got) != len(want) {
		t.Fatalf("fetch set %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("fetch set %v, want %v", got, want)
			break
		}
	}
}

func TestClearDatasetDropsPendingBookkeeping(t *testing.T) {
	source := newMockSource()
	source.release = make(chan struct{})

	cache := NewFeatureCache(0)
	fc := NewFetchCoordinator(cache, source, FetchOptions{Logger: quietLogger()})

	done := make(chan struct{})
	go func() {
		fc.EnsureLoaded(context.Background(), "wards", []int{0}, DetailCoarse)
		close(done)
	}()

	for fc.PendingCount() == 0 {
	}

	fc.ClearDataset("wards")
	if fc.PendingCount() != 0 {
		t.Errorf("pending bookkeeping not dropped")
	}

	// The superseded fetch still settles and lands in the cache.
	close(source.release)
	<-done
	if !cache.HasAtOrAbove("wards", 0, DetailCoarse) {
		t.Errorf("superseded fetch should still populate the cache")
	}
}
