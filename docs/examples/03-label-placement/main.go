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

	engine := lod.NewEngine(manifest, lod.NewDirFeatureSource("data/tiers"), lod.DefaultOptions())

	viewport := lod.Bounds{
		MinLon: -7.0, MaxLon: -6.0,
		MinLat: 54.0, MaxLat: 54.5,
	}
	if _, err := engine.SyncViewport(context.Background(), "wards", viewport, 10); err != nil {
		log.Fatal(err)
	}

	// Labels are recomputed from scratch on every viewport, zoom, load
	// or unload event. Candidates come from loaded, visible features of
	// datasets that declare a label field; higher priority places
	// first, and overlapping lower-priority labels silently yield.
	const widthPx, heightPx = 1280, 800
	placer := lod.NewLabelPlacer(
		lod.ViewportProjection(viewport, widthPx, heightPx),
		widthPx, heightPx,
		lod.DefaultLabelOptions(),
	)

	candidates := engine.LabelCandidatesFor("wards", viewport)
	placements := placer.ComputeLabelLayout(candidates)

	fmt.Printf("%d candidates, %d labels placed\n", len(candidates), len(placements))
	for _, label := range placements {
		fmt.Printf("  %s/%d at (%.0f,%.0f): %v\n",
			label.DatasetID, label.FeatureIndex, label.AnchorX, label.AnchorY, label.Lines)
	}
}
