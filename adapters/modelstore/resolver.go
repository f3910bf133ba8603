package modelstore

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"neurosense/domain/core"
	"neurosense/domain/model"
	"neurosense/ports"
)

// Bundle path layout under the models directory. Subject bundles are
// keyed by zero-padded numeric id.
const (
	subjectModelsDir     = "subject_models"
	generalizedModelPath = "generalized/generalized_model.json"
)

// SubjectBundlePath returns the path of a subject-specific bundle,
// e.g. <dir>/subject_models/SBJ01_model.json.
func SubjectBundlePath(dir string, subjectNum int) string {
	return filepath.Join(dir, subjectModelsDir, fmt.Sprintf("SBJ%02d_model.json", subjectNum))
}

// GeneralizedBundlePath returns the path of the single generalized
// (leave-one-subject-out) bundle.
func GeneralizedBundlePath(dir string) string {
	return filepath.Join(dir, filepath.FromSlash(generalizedModelPath))
}

// SubjectNumber extracts the numeric id from a subject identifier
// like "SBJ07".
func SubjectNumber(subjectID string) (int, bool) {
	trimmed := strings.TrimPrefix(subjectID, "SBJ")
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Resolver applies the subject-specific -> generalized fallback policy
// over a bundle store.
type Resolver struct {
	dir   string
	store ports.BundleStore
}

// NewResolver creates a resolver rooted at the models directory.
func NewResolver(dir string, store ports.BundleStore) *Resolver {
	return &Resolver{dir: dir, store: store}
}

// Resolve returns the subject-specific bundle when preferred and
// present, otherwise the generalized bundle. Fails with
// core.ErrModelNotFound when neither exists.
func (r *Resolver) Resolve(ctx context.Context, subjectID string, preferSubjectSpecific bool) (*model.Bundle, error) {
	if preferSubjectSpecific {
		if num, ok := SubjectNumber(subjectID); ok {
			path := SubjectBundlePath(r.dir, num)
			exists, err := r.store.BundleExists(ctx, path)
			if err != nil {
				return nil, err
			}
			if exists {
				return r.store.LoadBundle(ctx, path)
			}
		}
	}

	genPath := GeneralizedBundlePath(r.dir)
	exists, err := r.store.BundleExists(ctx, genPath)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: no subject bundle for %s and no generalized bundle", core.ErrModelNotFound, subjectID)
	}
	return r.store.LoadBundle(ctx, genPath)
}

var _ ports.BundleResolver = (*Resolver)(nil)
