package lod

import (
	"fmt"
	"math"
	"math/rand"
	"testing"
)

// testManifest builds a manifest with n features for one dataset,
// using the given bbox generator.
func testManifest(datasetID string, n int, bbox func(i int) [4]float64) *Manifest {
	m := &Manifest{
		Datasets: []DatasetInfo{{DatasetID: datasetID, LabelField: "name"}},
	}
	for i := 0; i < n; i++ {
		m.Records = append(m.Records, ManifestRecord{
			FeatureName: fmt.Sprintf("%s-%d", datasetID, i),
			DatasetID:   datasetID,
			Bbox:        bbox(i),
		})
	}
	return m
}

func TestQueryMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	manifest := testManifest("wards", 200, func(i int) [4]float64 {
		minLon := -10 + rng.Float64()*10
		minLat := 50 + rng.Float64()*8
		return [4]float64{minLon, minLat, minLon + rng.Float64(), minLat + rng.Float64()}
	})

	idx := BuildSpatialIndex(manifest, DefaultIndexOptions())

	viewports := []Bounds{
		{MinLon: -7.0, MaxLon: -6.0, MinLat: 54.0, MaxLat: 54.5},
		{MinLon: -9.5, MaxLon: -3.0, MinLat: 50.5, MaxLat: 57.5},
		{MinLon: -5.0, MaxLon: -4.9, MinLat: 52.0, MaxLat: 52.1},
	}

	for _, viewport := range viewports {
		got := idx.QueryIndices("wards", viewport)

		// Brute force against the buffered viewport
		buffered := viewport.Buffer(0.20)
		var want []int
		for i, record := range manifest.Records {
			if buffered.Intersects(record.Bounds()) {
				want = append(want, i)
			}
		}

		if len(got) != len(want) {
			t.Fatalf("viewport %+v: got %d entries, want %d", viewport, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("viewport %+v: entry %d is feature %d, want %d", viewport, i, got[i], want[i])
			}
		}
	}
}

func TestQueryBufferedViewport(t *testing.T) {
	manifest := testManifest("wards", 2, func(i int) [4]float64 {
		if i == 0 {
			return [4]float64{-6.5, 54.1, -6.4, 54.2} // inside buffered rect
		}
		return [4]float64{-8.0, 54.1, -7.5, 54.2} // outside buffered rect
	})
	idx := BuildSpatialIndex(manifest, DefaultIndexOptions())

	// [-7.0,54.0,-6.0,54.5] with 20% buffer -> [-7.2,53.9,-5.8,54.6]
	viewport := Bounds{MinLon: -7.0, MaxLon: -6.0, MinLat: 54.0, MaxLat: 54.5}
	buffered := viewport.Buffer(0.20)
	const eps = 1e-9
	if math.Abs(buffered.MinLon-(-7.2)) > eps || math.Abs(buffered.MaxLon-(-5.8)) > eps {
		t.Errorf("buffered lon range [%f, %f], want [-7.2, -5.8]", buffered.MinLon, buffered.MaxLon)
	}
	if math.Abs(buffered.MinLat-53.9) > eps || math.Abs(buffered.MaxLat-54.6) > eps {
		t.Errorf("buffered lat range [%f, %f], want [53.9, 54.6]", buffered.MinLat, buffered.MaxLat)
	}

	indices := idx.QueryIndices("wards", viewport)
	if len(indices) != 1 || indices[0] != 0 {
		t.Errorf("expected only feature 0 visible, got %v", indices)
	}
}

func TestSupportsDetailThreshold(t *testing.T) {
	inIreland := func(i int) [4]float64 {
		return [4]float64{-7.0, 54.0, -6.9, 54.1}
	}

	manifest := testManifest("wards", 120, inIreland)
	manifest.Records = append(manifest.Records, testManifest("rivers", 10, inIreland).Records...)

	idx := BuildSpatialIndex(manifest, DefaultIndexOptions())

	if !idx.SupportsDetail("wards") {
		t.Errorf("wards (120 features) should support detail")
	}
	if idx.SupportsDetail("rivers") {
		t.Errorf("rivers (10 features) should not support detail")
	}
}

func TestFeatureCountUnknownDataset(t *testing.T) {
	idx := BuildSpatialIndex(testManifest("wards", 5, func(i int) [4]float64 {
		return [4]float64{0, 0, 1, 1}
	}), DefaultIndexOptions())

	if count := idx.FeatureCount("wards"); count != 5 {
		t.Errorf("expected 5 features, got %d", count)
	}
	if count := idx.FeatureCount("nonexistent"); count != 0 {
		t.Errorf("unknown dataset should count 0, got %d", count)
	}
	if idx.SupportsDetail("nonexistent") {
		t.Errorf("unknown dataset should not support detail")
	}
}

func TestQueryResultsDoNotAliasIndex(t *testing.T) {
	idx := BuildSpatialIndex(testManifest("wards", 3, func(i int) [4]float64 {
		return [4]float64{0, 0, 1, 1}
	}), DefaultIndexOptions())

	viewport := Bounds{MinLon: 0, MaxLon: 1, MinLat: 0, MaxLat: 1}
	first := idx.Query("wards", viewport)
	first[0].GeoBounds = Bounds{MinLon: 99, MaxLon: 100, MinLat: 99, MaxLat: 100}
	first[0].FeatureIndex = 99

	second := idx.Query("wards", viewport)
	if second[0].FeatureIndex != 0 || second[0].GeoBounds.MinLon != 0 {
		t.Errorf("mutating a query result leaked into index storage: %+v", second[0])
	}
}

func TestNilManifestIndex(t *testing.T) {
	idx := BuildSpatialIndex(nil, DefaultIndexOptions())

	if idx.SupportsDetail("anything") {
		t.Errorf("nil manifest should not support detail")
	}
	if entries := idx.Query("anything", Bounds{MinLon: -180, MaxLon: 180, MinLat: -90, MaxLat: 90}); entries != nil {
		t.Errorf("nil manifest query should return nil, got %v", entries)
	}
}
