package ports

import (
	"context"

	"neurosense/domain/eeg"
)

// SessionFeatures is the persisted unit of feature extraction for one
// (subject, session): the stacked feature matrix plus optional ground
// truth labels.
type SessionFeatures struct {
	X            *eeg.FeatureMatrix `json:"x"`
	Targets      []int              `json:"targets,omitempty"`
	SamplingRate float64            `json:"sampling_rate"`
	Window       eeg.Window         `json:"window"`
}

// FeatureCache stores feature matrices for later inference, addressed
// by subject and session identifiers.
type FeatureCache interface {
	// Get fails with core.ErrSessionNotFound when the entry is absent.
	Get(ctx context.Context, subjectID, sessionID string) (*SessionFeatures, error)
	Put(ctx context.Context, subjectID, sessionID string, features *SessionFeatures) error
}
