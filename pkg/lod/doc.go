// Package lod implements the viewport-adaptive feature streaming engine
// behind the boundary viewer.
//
// As the user pans and zooms, the engine decides which geometry to
// fetch, at which of three pre-baked fidelity tiers, how many requests
// may be outstanding at once, and what is already cached. Once features
// are on screen, the label placer decides which of them get a text
// label without overlapping another label.
//
// # Basic Usage
//
//	manifest, err := lod.LoadManifestFile("data/manifest.json")
//	if err != nil {
//	    log.Printf("progressive loading disabled: %v", err)
//	}
//
//	source := lod.NewHTTPFeatureSource("https://example.org/boundaries", nil)
//	engine := lod.NewEngine(manifest, source, lod.DefaultOptions())
//
// # Viewport Workflow
//
// The render loop drives one pass per viewport or zoom change:
//
//	viewport := lod.Bounds{
//	    MinLon: -7.0, MaxLon: -6.0,
//	    MinLat: 54.0, MaxLat: 54.5,
//	}
//
//	// Pick a level, hard-cut rebuild on level change, load what's visible.
//	result, err := engine.SyncViewport(ctx, "wards", viewport, 10.5)
//
//	// Render loaded geometry.
//	for _, index := range result.Visible {
//	    if geom, props, ok := engine.Feature("wards", index); ok {
//	        render(geom, props)
//	    }
//	}
//
// # Label Placement
//
// Labels are laid out per pass, greedy and priority-ordered, with
// pairwise collision tests in pixel space:
//
//	placer := lod.NewLabelPlacer(
//	    lod.ViewportProjection(viewport, 1280, 800),
//	    1280, 800,
//	    lod.DefaultLabelOptions(),
//	)
//	placements := placer.ComputeLabelLayout(
//	    engine.LabelCandidatesFor("wards", viewport),
//	)
//
// # Failure Model
//
// Nothing in this package propagates a hard error to the host. A failed
// manifest degrades progressive loading; a failed or undecodable
// resource is logged and retried on a later pass; a candidate whose
// geometry errors loses its label. The worst observable outcome is
// missing features or missing labels.
package lod
