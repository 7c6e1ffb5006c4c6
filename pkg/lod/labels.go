package lod

import (
	"log/slog"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/paulmach/orb"

	"github.com/ScottMoore0/boundaries-website/internal/geometry"
)

// GeometryAccessor lazily resolves a candidate's anchor geometry.
// An accessor error skips the candidate; the pass continues.
type GeometryAccessor func() (orb.Geometry, error)

// LabelCandidate is one feature eligible for a label in the current
// placement pass.
type LabelCandidate struct {
	DatasetID    string
	FeatureIndex int
	Text         string
	Color        string
	Priority     float64 // higher places first; default 0
	Geometry     GeometryAccessor
}

// Box is a committed label rectangle in pixel space, valid only within
// one placement pass.
type Box struct {
	Left   float64
	Right  float64
	Top    float64
	Bottom float64
}

// Overlaps reports axis-aligned overlap with another box.
func (b Box) Overlaps(other Box) bool {
	return !(other.Right < b.Left ||
		other.Left > b.Right ||
		other.Bottom < b.Top ||
		other.Top > b.Bottom)
}

// PlacedLabel is one committed label placement.
type PlacedLabel struct {
	DatasetID    string
	FeatureIndex int
	Lines        []string // wrapped label text, top to bottom
	Color        string
	AnchorX      float64 // pixel position of the anchor point
	AnchorY      float64
	Box          Box
}

// Projection maps a geographic coordinate to pixel coordinates.
type Projection func(lon, lat float64) (x, y float64)

// ViewportProjection maps geographic coordinates linearly onto a pixel
// viewport, north up. Hosts with a real map projection supply their
// own Projection instead.
func ViewportProjection(viewport Bounds, widthPx, heightPx float64) Projection {
	lonSpan := viewport.MaxLon - viewport.MinLon
	latSpan := viewport.MaxLat - viewport.MinLat
	return func(lon, lat float64) (float64, float64) {
		x := (lon - viewport.MinLon) / lonSpan * widthPx
		y := (viewport.MaxLat - lat) / latSpan * heightPx
		return x, y
	}
}

// LabelOptions controls label footprint estimation.
type LabelOptions struct {
	// CharWidth is the estimated average glyph width in pixels.
	// Default: 7
	CharWidth float64

	// LineHeight is the line height in pixels.
	// Default: 14
	LineHeight float64

	// Padding is added on every side of the wrapped text block.
	// Default: 4
	Padding float64

	// MaxWidth clamps the wrapped block width in pixels.
	// Default: 180
	MaxWidth float64

	// Logger receives per-candidate skip records.
	// Default: slog.Default()
	Logger *slog.Logger
}

// DefaultLabelOptions returns label options with defaults.
func DefaultLabelOptions() LabelOptions {
	return LabelOptions{
		CharWidth:  7,
		LineHeight: 14,
		Padding:    4,
		MaxWidth:   180,
		Logger:     slog.Default(),
	}
}

// LabelPlacer lays out text labels for one render pass: greedy,
// priority-ordered, collision-avoiding.
//
// Placement state is rebuilt from scratch on every viewport, zoom,
// load or unload event; nothing is incremental.
type LabelPlacer struct {
	project  Projection
	widthPx  float64
	heightPx float64
	opts     LabelOptions
}

// NewLabelPlacer creates a placer for one pixel viewport.
func NewLabelPlacer(project Projection, widthPx, heightPx float64, opts LabelOptions) *LabelPlacer {
	if opts.CharWidth <= 0 {
		opts.CharWidth = 7
	}
	if opts.LineHeight <= 0 {
		opts.LineHeight = 14
	}
	if opts.Padding < 0 {
		opts.Padding = 4
	}
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = 180
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &LabelPlacer{
		project:  project,
		widthPx:  widthPx,
		heightPx: heightPx,
		opts:     opts,
	}
}

// goldenRatio shapes wrapped labels into a landscape block: long names
// wrap instead of running as a single line or stacking into a tower.
const goldenRatio = 1.618033988749895

// ComputeLabelLayout places labels for the given candidates.
//
// Candidates are stable-sorted by priority descending (ties keep input
// order) and placed greedily: each candidate anchors on a
// point-on-surface of its geometry, gets a wrapped-text pixel box
// centered on the anchor and extending downward, and is committed only
// if it overlaps no already-committed box. Losers are silently dropped
// for this pass.
//
// The overlap test is pairwise against every committed box. Candidate
// counts are viewport-bounded (typically low hundreds), so no spatial
// acceleration structure is warranted.
func (p *LabelPlacer) ComputeLabelLayout(candidates []LabelCandidate) []PlacedLabel {
	ordered := make([]LabelCandidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	committed := make([]Box, 0, len(ordered))
	placed := make([]PlacedLabel, 0, len(ordered))

	for _, candidate := range ordered {
		if candidate.Text == "" || candidate.Geometry == nil {
			continue
		}

		geom, err := candidate.Geometry()
		if err != nil {
			p.opts.Logger.Debug("label geometry unavailable",
				"dataset", candidate.DatasetID,
				"feature", candidate.FeatureIndex,
				"error", err)
			continue
		}

		anchor, err := geometry.PointOnSurface(geom)
		if err != nil {
			p.opts.Logger.Debug("label anchor failed",
				"dataset", candidate.DatasetID,
				"feature", candidate.FeatureIndex,
				"error", err)
			continue
		}

		x, y := p.project(anchor[0], anchor[1])
		if x < 0 || x > p.widthPx || y < 0 || y > p.heightPx {
			continue
		}

		lines, blockWidth := p.wrap(candidate.Text)
		if len(lines) == 0 {
			continue
		}

		width := blockWidth + 2*p.opts.Padding
		height := float64(len(lines))*p.opts.LineHeight + 2*p.opts.Padding
		box := Box{
			Left:   x - width/2,
			Right:  x + width/2,
			Top:    y,
			Bottom: y + height,
		}

		overlaps := false
		for _, other := range committed {
			if box.Overlaps(other) {
				overlaps = true
				break
			}
		}
		if overlaps {
			continue
		}

		committed = append(committed, box)
		placed = append(placed, PlacedLabel{
			DatasetID:    candidate.DatasetID,
			FeatureIndex: candidate.FeatureIndex,
			Lines:        lines,
			Color:        candidate.Color,
			AnchorX:      x,
			AnchorY:      y,
			Box:          box,
		})
	}

	return placed
}

// wrap splits text into lines targeting a golden-ratio landscape block:
// targetWidth² ≈ totalTextWidth × lineHeight × φ, clamped to
// [longestWordWidth, MaxWidth]. Returns the lines and the widest line's
// pixel width.
func (p *LabelPlacer) wrap(text string) ([]string, float64) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, 0
	}

	longestWord := 0.0
	for _, word := range words {
		if w := p.textWidth(word); w > longestWord {
			longestWord = w
		}
	}

	totalWidth := p.textWidth(text)
	target := math.Sqrt(totalWidth * p.opts.LineHeight * goldenRatio)
	if target > p.opts.MaxWidth {
		target = p.opts.MaxWidth
	}
	if target < longestWord {
		target = longestWord
	}

	var lines []string
	current := words[0]
	for _, word := range words[1:] {
		if p.textWidth(current)+p.textWidth(" ")+p.textWidth(word) <= target {
			current += " " + word
		} else {
			lines = append(lines, current)
			current = word
		}
	}
	lines = append(lines, current)

	widest := 0.0
	for _, line := range lines {
		if w := p.textWidth(line); w > widest {
			widest = w
		}
	}
	return lines, widest
}

// textWidth estimates the pixel width of a string.
func (p *LabelPlacer) textWidth(s string) float64 {
	return float64(utf8.RuneCountInString(s)) * p.opts.CharWidth
}
