package main

import (
	"context"
	"fmt"
	"log"

	"github.com/ScottMoore0/boundaries-website/pkg/lod"
)

func main() {
	manifest, err := lod.LoadManifestFile("data/manifest.json")
	if err != nil {
		log.Fatal(err)
	}

	source := lod.NewDirFeatureSource("data/tiers")

	opts := lod.DefaultOptions()
	opts.BatchWidth = 25 // gentler admission control for a slow link
	opts.OnLevelReset = func(datasetID string, previous, next lod.DetailLevel) {
		// The render layer must drop the dataset's geometry here:
		// coarse and fine outlines don't align, so a level change is
		// a hard cut.
		fmt.Printf("rebuilding %s: %s -> %s\n", datasetID, previous, next)
	}
	engine := lod.NewEngine(manifest, source, opts)

	// Simulate a pan-and-zoom session. Each step is one render pass:
	// query the index, pick the level, fetch what's missing.
	steps := []struct {
		viewport lod.Bounds
		zoom     float64
	}{
		{lod.Bounds{MinLon: -8.0, MaxLon: -5.0, MinLat: 53.5, MaxLat: 55.5}, 6},  // overview
		{lod.Bounds{MinLon: -7.0, MaxLon: -6.0, MinLat: 54.0, MaxLat: 54.5}, 10}, // regional
		{lod.Bounds{MinLon: -6.7, MaxLon: -6.5, MinLat: 54.3, MaxLat: 54.4}, 13}, // street level
	}

	for _, step := range steps {
		for _, datasetID := range manifest.DatasetIDs() {
			if !engine.SupportsDetail(datasetID) {
				// Small datasets aren't worth per-feature requests.
				if err := engine.LoadDatasetWholesale(context.Background(), datasetID, lod.LevelForZoom(step.zoom)); err != nil {
					log.Printf("wholesale load %s: %v", datasetID, err)
				}
				continue
			}

			result, err := engine.SyncViewport(context.Background(), datasetID, step.viewport, step.zoom)
			if err != nil {
				log.Fatal(err)
			}
			fmt.Printf("zoom %.0f: %s shows %d features at %s detail\n",
				step.zoom, datasetID, len(result.Visible), result.Level)
		}
	}

	stats := engine.Stats()
	fmt.Printf("cache: %d features, ~%d KB\n", stats.Cache.FeatureCount, stats.Cache.UsedMemory/1024)
}
