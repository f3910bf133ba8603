package app

import (
	"context"

	"github.com/montanaflynn/stats"

	"neurosense/domain/model"
	"neurosense/internal"
	"neurosense/ports"
)

// SessionPrediction is the outcome of running one session's cached
// features through a resolved bundle.
type SessionPrediction struct {
	SubjectID     string    `json:"subject_id"`
	SessionID     string    `json:"session_id"`
	Probabilities []float64 `json:"probs"`
	MeanScore     float64   `json:"mean_score"`
	ModelUsed     string    `json:"model_used"`
	AUC           *float64  `json:"auc,omitempty"`
}

// PredictionService resolves model bundles and predicts on cached
// session features.
type PredictionService struct {
	resolver ports.BundleResolver
	features ports.FeatureCache
	store    ports.Store
	logger   *internal.Logger
}

// NewPredictionService creates the inference orchestrator.
func NewPredictionService(resolver ports.BundleResolver, features ports.FeatureCache, store ports.Store, logger *internal.Logger) *PredictionService {
	return &PredictionService{
		resolver: resolver,
		features: features,
		store:    store,
		logger:   logger,
	}
}

// PredictSession loads the session's stored features, resolves a
// bundle for the subject and returns per-trial probabilities. When
// ground-truth labels are stored alongside the features the ROC AUC
// is reported too.
func (s *PredictionService) PredictSession(ctx context.Context, subjectID, sessionID string, preferSubjectSpecific bool) (*SessionPrediction, error) {
	cached, err := s.features.Get(ctx, subjectID, sessionID)
	if err != nil {
		return nil, err
	}

	bundle, err := s.resolver.Resolve(ctx, subjectID, preferSubjectSpecific)
	if err != nil {
		return nil, err
	}

	probs, err := bundle.Predict(cached.X)
	if err != nil {
		return nil, err
	}

	mean, _ := stats.Mean(probs)
	prediction := &SessionPrediction{
		SubjectID:     subjectID,
		SessionID:     sessionID,
		Probabilities: probs,
		MeanScore:     mean,
		ModelUsed:     modelLabel(bundle, subjectID),
	}

	if len(cached.Targets) == len(probs) && len(probs) > 0 {
		auc, err := model.RankAUC(cached.Targets, probs)
		if err != nil {
			s.logger.Debug("auc unavailable for %s/%s: %v", subjectID, sessionID, err)
		} else {
			prediction.AUC = &auc
		}
	}
	return prediction, nil
}

// RescoreSession predicts the session and persists the mean
// probability as its score. The store invalidates the subject's
// cached NSI as part of the same write.
func (s *PredictionService) RescoreSession(ctx context.Context, subjectID, sessionID string, preferSubjectSpecific bool) (*SessionPrediction, error) {
	prediction, err := s.PredictSession(ctx, subjectID, sessionID, preferSubjectSpecific)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetSessionScore(ctx, subjectID, sessionID, prediction.MeanScore, prediction.ModelUsed); err != nil {
		return nil, err
	}
	return prediction, nil
}

func modelLabel(b *model.Bundle, subjectID string) string {
	if b.ID == subjectID {
		return "subject"
	}
	return "generalized"
}
