package lod

import (
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// Bounds represents a geographic bounding box in WGS-84 coordinates.
//
// Coordinates are in decimal degrees.
type Bounds struct {
	MinLon float64 // Western edge
	MaxLon float64 // Eastern edge
	MinLat float64 // Southern edge
	MaxLat float64 // Northern edge
}

// Contains returns true if the point (lon, lat) is within the bounds.
func (b Bounds) Contains(lon, lat float64) bool {
	return lon >= b.MinLon && lon <= b.MaxLon &&
		lat >= b.MinLat && lat <= b.MaxLat
}

// Intersects returns true if the given bounds intersects with this bounds.
func (b Bounds) Intersects(other Bounds) bool {
	return !(other.MaxLon < b.MinLon ||
		other.MinLon > b.MaxLon ||
		other.MaxLat < b.MinLat ||
		other.MinLat > b.MaxLat)
}

// Buffer returns a new Bounds expanded symmetrically by the given
// fraction of its own width and height.
//
// A fraction of 0.20 on a 1.0°-wide viewport adds 0.2° on each side.
// This is the prefetch margin used for viewport queries, so features
// just offscreen are already loading when a pan brings them in.
func (b Bounds) Buffer(fraction float64) Bounds {
	lonMargin := (b.MaxLon - b.MinLon) * fraction
	latMargin := (b.MaxLat - b.MinLat) * fraction
	return Bounds{
		MinLon: b.MinLon - lonMargin,
		MaxLon: b.MaxLon + lonMargin,
		MinLat: b.MinLat - latMargin,
		MaxLat: b.MaxLat + latMargin,
	}
}

// Union returns the smallest bounds containing both b and other.
func (b Bounds) Union(other Bounds) Bounds {
	out := b
	if other.MinLon < out.MinLon {
		out.MinLon = other.MinLon
	}
	if other.MaxLon > out.MaxLon {
		out.MaxLon = other.MaxLon
	}
	if other.MinLat < out.MinLat {
		out.MinLat = other.MinLat
	}
	if other.MaxLat > out.MaxLat {
		out.MaxLat = other.MaxLat
	}
	return out
}

// BoundsOf returns the bounding box of a geometry.
func BoundsOf(g orb.Geometry) Bounds {
	bound := g.Bound()
	return Bounds{
		MinLon: bound.Min[0],
		MaxLon: bound.Max[0],
		MinLat: bound.Min[1],
		MaxLat: bound.Max[1],
	}
}

// rtreego rejects zero-length rectangle sides, which point features
// produce. Pad degenerate sides by a sliver well below coordinate
// precision.
const minRectLength = 1e-9

// rect converts bounds to an R-tree rectangle.
func (b Bounds) rect() rtreego.Rect {
	lengths := []float64{
		b.MaxLon - b.MinLon,
		b.MaxLat - b.MinLat,
	}
	for i := range lengths {
		if lengths[i] < minRectLength {
			lengths[i] = minRectLength
		}
	}

	rect, _ := rtreego.NewRect(rtreego.Point{b.MinLon, b.MinLat}, lengths)
	return rect
}
