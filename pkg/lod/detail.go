package lod

// DetailLevel identifies one of the three pre-generated geometry
// fidelity tiers of a dataset.
//
// The tiers are baked upstream; there is no intermediate simplification
// to request, so the zoom thresholds are fixed rather than configurable.
type DetailLevel int

const (
	// DetailCoarse is the heavily simplified tier used at low zoom.
	DetailCoarse DetailLevel = 0

	// DetailMedium is the mid-fidelity tier for regional zoom levels.
	DetailMedium DetailLevel = 1

	// DetailFull is the full-fidelity tier used when zoomed in.
	DetailFull DetailLevel = 2
)

// String returns the human-readable name of the detail level.
func (l DetailLevel) String() string {
	switch l {
	case DetailCoarse:
		return "Coarse"
	case DetailMedium:
		return "Medium"
	case DetailFull:
		return "Full"
	default:
		return "Unknown"
	}
}

// LevelForZoom maps a zoom scalar to a detail level.
//
//	zoom >= 12        -> DetailFull
//	8 <= zoom < 12    -> DetailMedium
//	zoom < 8          -> DetailCoarse
func LevelForZoom(zoom float64) DetailLevel {
	switch {
	case zoom >= 12:
		return DetailFull
	case zoom >= 8:
		return DetailMedium
	default:
		return DetailCoarse
	}
}
