package geometry

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// PointOnSurface returns an anchor point guaranteed to lie on or inside
// the geometry.
//
// A bounding-box centroid can land outside concave or multi-part
// shapes, so polygons fall back to a scanline interior point when the
// area centroid misses, and multi-polygons anchor on their largest
// part. Point features anchor on themselves.
func PointOnSurface(g orb.Geometry) (orb.Point, error) {
	switch geom := g.(type) {
	case orb.Point:
		return geom, nil

	case orb.MultiPoint:
		if len(geom) == 0 {
			return orb.Point{}, &ErrEmptyGeometry{Type: geom.GeoJSONType()}
		}
		return geom[len(geom)/2], nil

	case orb.LineString:
		if len(geom) == 0 {
			return orb.Point{}, &ErrEmptyGeometry{Type: geom.GeoJSONType()}
		}
		return geom[len(geom)/2], nil

	case orb.MultiLineString:
		// Anchor on the part with the most vertices.
		best := -1
		for i, line := range geom {
			if best < 0 || len(line) > len(geom[best]) {
				best = i
			}
		}
		if best < 0 || len(geom[best]) == 0 {
			return orb.Point{}, &ErrEmptyGeometry{Type: geom.GeoJSONType()}
		}
		return PointOnSurface(geom[best])

	case orb.Ring:
		return PointOnSurface(orb.Polygon{geom})

	case orb.Polygon:
		return polygonAnchor(geom)

	case orb.MultiPolygon:
		// Anchor on the largest part.
		best := -1
		bestArea := 0.0
		for i, poly := range geom {
			area := planar.Area(poly)
			if area < 0 {
				area = -area
			}
			if best < 0 || area > bestArea {
				best, bestArea = i, area
			}
		}
		if best < 0 {
			return orb.Point{}, &ErrEmptyGeometry{Type: geom.GeoJSONType()}
		}
		return polygonAnchor(geom[best])

	case orb.Bound:
		return geom.Center(), nil

	case orb.Collection:
		for _, member := range geom {
			if p, err := PointOnSurface(member); err == nil {
				return p, nil
			}
		}
		return orb.Point{}, &ErrEmptyGeometry{Type: geom.GeoJSONType()}
	}

	return orb.Point{}, &ErrUnsupportedGeometry{Type: g.GeoJSONType()}
}

// polygonAnchor prefers the area centroid, falling back to a scanline
// interior point when the centroid falls outside (concave shapes).
func polygonAnchor(poly orb.Polygon) (orb.Point, error) {
	if len(poly) == 0 || len(poly[0]) == 0 {
		return orb.Point{}, &ErrEmptyGeometry{Type: poly.GeoJSONType()}
	}

	centroid, _ := planar.CentroidArea(poly)
	if planar.PolygonContains(poly, centroid) {
		return centroid, nil
	}

	return scanlineAnchor(poly)
}

// scanlineAnchor intersects a horizontal line at the bbox vertical
// midpoint with every ring edge and returns the midpoint of the widest
// interior interval.
func scanlineAnchor(poly orb.Polygon) (orb.Point, error) {
	bound := poly.Bound()
	y := (bound.Min[1] + bound.Max[1]) / 2

	var xs []float64
	for _, ring := range poly {
		for i := 0; i+1 < len(ring); i++ {
			y1, y2 := ring[i][1], ring[i+1][1]
			if (y1 > y) == (y2 > y) {
				continue
			}
			x1, x2 := ring[i][0], ring[i+1][0]
			t := (y - y1) / (y2 - y1)
			xs = append(xs, x1+t*(x2-x1))
		}
	}

	if len(xs) < 2 {
		// Degenerate ring; the centroid is the best remaining guess.
		centroid, _ := planar.CentroidArea(poly)
		return centroid, nil
	}

	sort.Float64s(xs)

	// Crossings pair up into inside intervals.
	bestWidth := -1.0
	var anchor orb.Point
	for i := 0; i+1 < len(xs); i += 2 {
		width := xs[i+1] - xs[i]
		if width > bestWidth {
			bestWidth = width
			anchor = orb.Point{(xs[i] + xs[i+1]) / 2, y}
		}
	}
	return anchor, nil
}
