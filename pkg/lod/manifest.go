package lod

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Manifest describes every dataset and feature resource available to
// the engine. It is loaded once at startup and read-only afterwards.
//
// A feature's index is its encounter order within its dataset's
// records; that index addresses the per-feature resource
// ({datasetId}/{featureIndex}-lod-{detailLevel}) for every detail level.
//
// A missing manifest is not fatal: without one the engine simply
// reports progressive loading as unsupported for every dataset.
type Manifest struct {
	Datasets []DatasetInfo    `json:"datasets"`
	Records  []ManifestRecord `json:"records"`
}

// DatasetInfo carries per-dataset metadata.
type DatasetInfo struct {
	// DatasetID is the stable identifier used in resource paths.
	DatasetID string `json:"datasetId"`

	// LabelField names the property carrying label text.
	// Datasets without a label field produce no label candidates.
	LabelField string `json:"labelField,omitempty"`

	// PriorityField names the numeric property used as label priority.
	// Features without it default to priority 0.
	PriorityField string `json:"priorityField,omitempty"`

	// LabelColor is the color applied to this dataset's labels.
	LabelColor string `json:"labelColor,omitempty"`
}

// ManifestRecord describes one feature resource.
type ManifestRecord struct {
	FeatureName string     `json:"featureName"`
	DatasetID   string     `json:"datasetId"`
	Bbox        [4]float64 `json:"bbox"` // [minLon, minLat, maxLon, maxLat]
}

// Bounds returns the record's bounding box.
func (r ManifestRecord) Bounds() Bounds {
	return Bounds{
		MinLon: r.Bbox[0],
		MinLat: r.Bbox[1],
		MaxLon: r.Bbox[2],
		MaxLat: r.Bbox[3],
	}
}

// LoadManifest reads a JSON manifest.
func LoadManifest(r io.Reader) (*Manifest, error) {
	var manifest Manifest
	if err := json.NewDecoder(r).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &manifest, nil
}

// LoadManifestFile reads a JSON manifest from disk.
//
// Returns ErrManifestUnavailable if the file cannot be read or parsed.
// Callers should treat this as a degraded capability, not a fatal
// error: NewEngine accepts a nil manifest.
//
// Example:
//
//	manifest, err := lod.LoadManifestFile("data/manifest.json")
//	if err != nil {
//	    log.Printf("progressive loading disabled: %v", err)
//	}
//	engine := lod.NewEngine(manifest, source, lod.DefaultOptions())
func LoadManifestFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ErrManifestUnavailable{Path: path, Err: err}
	}
	defer f.Close()

	manifest, err := LoadManifest(f)
	if err != nil {
		return nil, &ErrManifestUnavailable{Path: path, Err: err}
	}
	return manifest, nil
}

// Dataset returns the metadata for a dataset id.
func (m *Manifest) Dataset(datasetID string) (DatasetInfo, bool) {
	for _, info := range m.Datasets {
		if info.DatasetID == datasetID {
			return info, true
		}
	}
	return DatasetInfo{}, false
}

// RecordsFor returns the records of one dataset in encounter order,
// which is also feature-index order.
func (m *Manifest) RecordsFor(datasetID string) []ManifestRecord {
	var records []ManifestRecord
	for _, record := range m.Records {
		if record.DatasetID == datasetID {
			records = append(records, record)
		}
	}
	return records
}

// DatasetIDs returns every dataset id that has at least one record,
// in first-encounter order.
func (m *Manifest) DatasetIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, record := range m.Records {
		if !seen[record.DatasetID] {
			seen[record.DatasetID] = true
			ids = append(ids, record.DatasetID)
		}
	}
	return ids
}
