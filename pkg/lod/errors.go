package lod

import (
	"fmt"
)

// ErrManifestUnavailable indicates the dataset manifest could not be
// loaded. Progressive loading degrades to unsupported for the affected
// datasets; this is not a fatal condition.
type ErrManifestUnavailable struct {
	Path string
	Err  error
}

func (e *ErrManifestUnavailable) Error() string {
	return fmt.Sprintf("manifest unavailable: %s: %v", e.Path, e.Err)
}

func (e *ErrManifestUnavailable) Unwrap() error {
	return e.Err
}

// ErrResourceFetch indicates one feature resource could not be fetched.
// The failure is per-resource: it is logged, excluded from the cache,
// and the key stays eligible for a later re-fetch.
type ErrResourceFetch struct {
	DatasetID    string
	FeatureIndex int
	Level        DetailLevel
	Err          error
}

func (e *ErrResourceFetch) Error() string {
	return fmt.Sprintf("fetch %s: %v",
		ResourcePath(e.DatasetID, e.FeatureIndex, e.Level), e.Err)
}

func (e *ErrResourceFetch) Unwrap() error {
	return e.Err
}

// ErrGeometryDecode indicates a fetched payload could not be decoded.
// Handled exactly like a fetch failure.
type ErrGeometryDecode struct {
	DatasetID    string
	FeatureIndex int
	Level        DetailLevel
	Err          error
}

func (e *ErrGeometryDecode) Error() string {
	return fmt.Sprintf("decode %s: %v",
		ResourcePath(e.DatasetID, e.FeatureIndex, e.Level), e.Err)
}

func (e *ErrGeometryDecode) Unwrap() error {
	return e.Err
}
