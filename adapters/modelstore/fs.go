// Package modelstore loads serialized model bundles from the local
// filesystem and caches them for the process lifetime.
//
// Bundle files are JSON documents produced by the training pipeline:
//
//	{
//	  "id": "SBJ01",
//	  "reducer": {"mean": [...], "components": [[...], ...]},
//	  "classifier": {"kind": "logistic", "weights": [...], "intercept": 0.0}
//	}
//
// The reducer block is optional; without it features pass through to
// the classifier unchanged.
package modelstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"neurosense/domain/core"
	"neurosense/domain/model"
	"neurosense/ports"
)

type bundleFile struct {
	ID         string          `json:"id"`
	Reducer    *reducerBlock   `json:"reducer,omitempty"`
	Classifier classifierBlock `json:"classifier"`
}

type reducerBlock struct {
	Mean       []float64   `json:"mean"`
	Components [][]float64 `json:"components"`
}

type classifierBlock struct {
	Kind      string    `json:"kind"`
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// FileStore reads bundles from disk.
type FileStore struct{}

// NewFileStore creates a filesystem bundle store.
func NewFileStore() *FileStore {
	return &FileStore{}
}

// LoadBundle decodes the bundle at path.
func (s *FileStore) LoadBundle(ctx context.Context, path string) (*model.Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", core.ErrModelNotFound, path)
		}
		return nil, fmt.Errorf("reading bundle %s: %w", path, err)
	}

	var bf bundleFile
	if err := json.Unmarshal(raw, &bf); err != nil {
		return nil, fmt.Errorf("decoding bundle %s: %w", path, err)
	}
	return buildBundle(path, bf)
}

// BundleExists reports whether a bundle file is present at path.
func (s *FileStore) BundleExists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func buildBundle(path string, bf bundleFile) (*model.Bundle, error) {
	if bf.Classifier.Kind != "logistic" {
		return nil, core.NewInferenceError("bundle %s: unsupported classifier kind %q", path, bf.Classifier.Kind)
	}
	clf, err := model.NewLogisticClassifier(bf.Classifier.Weights, bf.Classifier.Intercept)
	if err != nil {
		return nil, err
	}

	bundle := &model.Bundle{ID: bf.ID, Classifier: clf}
	if bundle.ID == "" {
		bundle.ID = path
	}
	if bf.Reducer != nil {
		reducer, err := model.NewPCAReducer(bf.Reducer.Mean, bf.Reducer.Components)
		if err != nil {
			return nil, err
		}
		bundle.Reducer = reducer
	}
	return bundle, nil
}

var _ ports.BundleStore = (*FileStore)(nil)
