package ports

import (
	"context"

	"neurosense/domain/model"
)

// BundleStore loads serialized model bundles from backing storage.
// Loads may be slow; implementations are expected to honor ctx.
type BundleStore interface {
	LoadBundle(ctx context.Context, path string) (*model.Bundle, error)
	BundleExists(ctx context.Context, path string) (bool, error)
}

// BundleResolver applies the subject-specific / generalized fallback
// policy on top of a BundleStore. Resolved bundles are immutable and
// cached for the process lifetime.
type BundleResolver interface {
	// Resolve returns the bundle for the subject, falling back to the
	// generalized bundle. Fails with core.ErrModelNotFound when
	// neither exists.
	Resolve(ctx context.Context, subjectID string, preferSubjectSpecific bool) (*model.Bundle, error)
}
