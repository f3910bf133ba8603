// Package featurecache persists extracted feature matrices on disk,
// one JSON document per (subject, session):
//
//	<dir>/<subject>/<session>/train_features.json
//
// containing the row-major feature matrix, its dimensions, optional
// ground-truth targets and the extraction parameters.
package featurecache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"neurosense/domain/core"
	"neurosense/domain/eeg"
	"neurosense/ports"
)

const featuresFile = "train_features.json"

type featureDoc struct {
	Rows         int        `json:"rows"`
	Cols         int        `json:"cols"`
	X            []float64  `json:"x"`
	Targets      []int      `json:"targets,omitempty"`
	SamplingRate float64    `json:"sampling_rate"`
	Window       eeg.Window `json:"window"`
}

// FileCache stores feature documents under a root directory.
type FileCache struct {
	dir string
}

// NewFileCache creates a cache rooted at dir.
func NewFileCache(dir string) *FileCache {
	return &FileCache{dir: dir}
}

func (c *FileCache) path(subjectID, sessionID string) string {
	return filepath.Join(c.dir, subjectID, sessionID, featuresFile)
}

// Get loads the stored features for one session.
func (c *FileCache) Get(ctx context.Context, subjectID, sessionID string) (*ports.SessionFeatures, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(c.path(subjectID, sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: features for %s/%s", core.ErrSessionNotFound, subjectID, sessionID)
		}
		return nil, fmt.Errorf("reading features for %s/%s: %w", subjectID, sessionID, err)
	}

	var doc featureDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding features for %s/%s: %w", subjectID, sessionID, err)
	}
	if doc.Rows*doc.Cols != len(doc.X) {
		return nil, core.NewShapeError("feature document %s/%s: %dx%d does not match %d values", subjectID, sessionID, doc.Rows, doc.Cols, len(doc.X))
	}

	return &ports.SessionFeatures{
		X:            &eeg.FeatureMatrix{Rows: doc.Rows, Cols: doc.Cols, Data: doc.X},
		Targets:      doc.Targets,
		SamplingRate: doc.SamplingRate,
		Window:       doc.Window,
	}, nil
}

// Put writes the features for one session, creating directories as
// needed. The write goes through a temp file and rename so a crashed
// writer never leaves a truncated document.
func (c *FileCache) Put(ctx context.Context, subjectID, sessionID string, features *ports.SessionFeatures) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := featureDoc{
		Rows:         features.X.Rows,
		Cols:         features.X.Cols,
		X:            features.X.Data,
		Targets:      features.Targets,
		SamplingRate: features.SamplingRate,
		Window:       features.Window,
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	path := c.path(subjectID, sessionID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

var _ ports.FeatureCache = (*FileCache)(nil)
