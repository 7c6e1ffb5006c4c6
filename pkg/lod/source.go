package lod

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ScottMoore0/boundaries-website/internal/geometry"
)

// FeatureSource fetches one geometry payload by resource key.
//
// The wire encoding is GeoJSON, one feature per resource. Transports
// own their timeouts; a timeout surfaces as an ordinary per-resource
// fetch error.
type FeatureSource interface {
	FetchFeature(ctx context.Context, datasetID string, featureIndex int, level DetailLevel) (*geometry.Feature, error)
}

// BulkFeatureSource is optionally implemented by sources that can serve
// an entire dataset in one request. Used for datasets below the detail
// threshold, where per-feature requests are not worth their overhead.
type BulkFeatureSource interface {
	FetchDataset(ctx context.Context, datasetID string, level DetailLevel) ([]*geometry.Feature, error)
}

// ResourcePath returns the relative path of one feature resource:
// {datasetId}/{featureIndex}-lod-{detailLevel}.
func ResourcePath(datasetID string, featureIndex int, level DetailLevel) string {
	return fmt.Sprintf("%s/%d-lod-%d", datasetID, featureIndex, int(level))
}

// datasetResourcePath addresses a wholesale dataset payload.
func datasetResourcePath(datasetID string, level DetailLevel) string {
	return fmt.Sprintf("%s/all-lod-%d", datasetID, int(level))
}

// HTTPFeatureSource fetches feature resources over HTTP.
//
// Resources are addressed deterministically under a base URL using
// ResourcePath, so any static file server or object store can serve
// pre-baked detail tiers.
//
// Example:
//
//	source := lod.NewHTTPFeatureSource("https://example.org/boundaries", nil)
//	engine := lod.NewEngine(manifest, source, lod.DefaultOptions())
type HTTPFeatureSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPFeatureSource creates an HTTP source.
//
// If client is nil, http.DefaultClient is used.
func NewHTTPFeatureSource(baseURL string, client *http.Client) *HTTPFeatureSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFeatureSource{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

// FetchFeature downloads and decodes one feature resource.
func (s *HTTPFeatureSource) FetchFeature(ctx context.Context, datasetID string, featureIndex int, level DetailLevel) (*geometry.Feature, error) {
	data, err := s.get(ctx, ResourcePath(datasetID, featureIndex, level))
	if err != nil {
		return nil, err
	}

	feature, err := geometry.Decode(data)
	if err != nil {
		return nil, &ErrGeometryDecode{
			DatasetID:    datasetID,
			FeatureIndex: featureIndex,
			Level:        level,
			Err:          err,
		}
	}
	return feature, nil
}

// FetchDataset downloads a wholesale dataset payload (one GeoJSON
// feature collection, features in index order).
func (s *HTTPFeatureSource) FetchDataset(ctx context.Context, datasetID string, level DetailLevel) ([]*geometry.Feature, error) {
	data, err := s.get(ctx, datasetResourcePath(datasetID, level))
	if err != nil {
		return nil, err
	}
	return geometry.DecodeCollection(data)
}

func (s *HTTPFeatureSource) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/"+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch resource: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch resource: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read resource: %w", err)
	}
	return data, nil
}

// DirFeatureSource reads feature resources from a local directory tree
// laid out with the same deterministic paths the HTTP source uses.
//
// Useful for pre-baked tiers shipped on disk, and for tests.
type DirFeatureSource struct {
	root string
}

// NewDirFeatureSource creates a directory-backed source.
func NewDirFeatureSource(root string) *DirFeatureSource {
	return &DirFeatureSource{root: root}
}

// FetchFeature reads and decodes one feature resource.
func (s *DirFeatureSource) FetchFeature(ctx context.Context, datasetID string, featureIndex int, level DetailLevel) (*geometry.Feature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(ResourcePath(datasetID, featureIndex, level))))
	if err != nil {
		return nil, fmt.Errorf("read resource: %w", err)
	}

	feature, err := geometry.Decode(data)
	if err != nil {
		return nil, &ErrGeometryDecode{
			DatasetID:    datasetID,
			FeatureIndex: featureIndex,
			Level:        level,
			Err:          err,
		}
	}
	return feature, nil
}

// FetchDataset reads a wholesale dataset payload.
func (s *DirFeatureSource) FetchDataset(ctx context.Context, datasetID string, level DetailLevel) ([]*geometry.Feature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(datasetResourcePath(datasetID, level))))
	if err != nil {
		return nil, fmt.Errorf("read resource: %w", err)
	}
	return geometry.DecodeCollection(data)
}
