// Package geometry decodes per-feature geometry payloads and provides
// the planar math used for label anchoring and bounding boxes.
package geometry

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Feature is one decoded geometry payload: a typed geometry plus a
// properties map restricted to a closed set of scalar value kinds
// (string, float64, bool, nil).
type Feature struct {
	Geometry   orb.Geometry
	Properties map[string]interface{}
}

// Decode parses a single GeoJSON feature payload.
//
// Property values outside the closed scalar set are dropped rather than
// rejected: payloads are open-shaped, but downstream code only ever
// reads scalar kinds.
func Decode(data []byte) (*Feature, error) {
	f, err := geojson.UnmarshalFeature(data)
	if err != nil {
		return nil, fmt.Errorf("decode feature payload: %w", err)
	}
	if f.Geometry == nil {
		return nil, fmt.Errorf("decode feature payload: missing geometry")
	}
	return &Feature{
		Geometry:   f.Geometry,
		Properties: sanitizeProperties(f.Properties),
	}, nil
}

// DecodeCollection parses a GeoJSON feature collection payload.
//
// Used for wholesale dataset loads, where one resource carries every
// feature of a small dataset. Feature order in the payload is preserved.
func DecodeCollection(data []byte) ([]*Feature, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}

	features := make([]*Feature, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f.Geometry == nil {
			continue
		}
		features = append(features, &Feature{
			Geometry:   f.Geometry,
			Properties: sanitizeProperties(f.Properties),
		})
	}
	return features, nil
}

// sanitizeProperties keeps only scalar property values.
// encoding/json decodes JSON numbers as float64, so the integer cases
// only matter for features constructed in-process.
func sanitizeProperties(props geojson.Properties) map[string]interface{} {
	out := make(map[string]interface{}, len(props))
	for k, v := range props {
		switch val := v.(type) {
		case string, bool, nil, float64:
			out[k] = val
		case int:
			out[k] = float64(val)
		case int64:
			out[k] = float64(val)
		case float32:
			out[k] = float64(val)
		}
	}
	return out
}

// StringProperty returns the named property if present and a string.
func StringProperty(props map[string]interface{}, name string) (string, bool) {
	if v, ok := props[name]; ok {
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	return "", false
}

// NumberProperty returns the named property if present and numeric.
func NumberProperty(props map[string]interface{}, name string) (float64, bool) {
	if v, ok := props[name]; ok {
		if n, ok := v.(float64); ok {
			return n, true
		}
	}
	return 0, false
}
