package main

import (
	"context"
	"fmt"
	"log"

	"github.com/ScottMoore0/boundaries-website/pkg/lod"
)

func main() {
	// Load the dataset manifest. A missing manifest is not fatal: the
	// engine simply reports progressive loading as unsupported.
	manifest, err := lod.LoadManifestFile("data/manifest.json")
	if err != nil {
		log.Printf("progressive loading disabled: %v", err)
	}

	// Feature resources are pre-baked at three detail levels and
	// served as static files.
	source := lod.NewHTTPFeatureSource("https://example.org/boundaries", nil)
	engine := lod.NewEngine(manifest, source, lod.DefaultOptions())

	// One pass for the current viewport and zoom.
	viewport := lod.Bounds{
		MinLon: -7.0, MaxLon: -6.0,
		MinLat: 54.0, MaxLat: 54.5,
	}
	result, err := engine.SyncViewport(context.Background(), "wards", viewport, 10.5)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Displaying %d features at %s detail\n", len(result.Visible), result.Level)

	for _, index := range result.Visible {
		if geom, props, ok := engine.Feature("wards", index); ok {
			fmt.Printf("  wards/%d: %s (%d properties)\n", index, geom.GeometryType(), len(props))
		}
	}
}
