package app

import (
	"context"

	"neurosense/domain/core"
	"neurosense/domain/nsi"
	"neurosense/internal"
	"neurosense/ports"
)

// StabilityReport is the per-subject index plus the session scores it
// was computed from.
type StabilityReport struct {
	SubjectID     string      `json:"subject_id"`
	SessionCount  int         `json:"n_sessions"`
	Result        *nsi.Result `json:"result"`
	SessionScores []float64   `json:"session_scores"`
	FromCache     bool        `json:"from_cache"`
}

// StabilityService computes and caches the per-subject stability
// index. The cached value is never served stale: every session-score
// write drops it before this service can read it again.
type StabilityService struct {
	store      ports.Store
	prediction *PredictionService
	logger     *internal.Logger
}

// NewStabilityService creates the NSI orchestrator.
func NewStabilityService(store ports.Store, prediction *PredictionService, logger *internal.Logger) *StabilityService {
	return &StabilityService{store: store, prediction: prediction, logger: logger}
}

// Stability returns the subject's index, recomputing and re-caching
// when no cached value exists. Fails with core.ErrInsufficientHistory
// below the session minimum; callers must surface that as "not yet
// available", never as a fabricated score.
func (s *StabilityService) Stability(ctx context.Context, subjectID string) (*StabilityReport, error) {
	sessions, err := s.store.GetSessions(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if len(sessions) < nsi.MinSessions {
		return nil, core.ErrInsufficientHistory
	}

	if cached, err := s.store.GetCachedNSI(ctx, subjectID); err != nil {
		return nil, err
	} else if cached != nil {
		// The cached index is only servable alongside a usable score
		// series; sessions that were never rescored carry no stored
		// score, so fall through and recompute the series instead.
		if persisted := storedScores(sessions); len(persisted) >= nsi.MinSessions {
			return &StabilityReport{
				SubjectID:     subjectID,
				SessionCount:  len(sessions),
				Result:        cached,
				SessionScores: persisted,
				FromCache:     true,
			}, nil
		}
	}

	scores, confidences, err := s.sessionSeries(ctx, subjectID, sessions)
	if err != nil {
		return nil, err
	}
	if len(scores) < nsi.MinSessions {
		return nil, core.ErrInsufficientHistory
	}

	result, err := nsi.Compute(scores, confidences)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetCachedNSI(ctx, subjectID, result); err != nil {
		return nil, err
	}

	return &StabilityReport{
		SubjectID:     subjectID,
		SessionCount:  len(sessions),
		Result:        result,
		SessionScores: scores,
	}, nil
}

// storedScores extracts the persisted session scores in order.
func storedScores(sessions []ports.SessionRecord) []float64 {
	scores := make([]float64, 0, len(sessions))
	for _, session := range sessions {
		if session.Score != nil {
			scores = append(scores, *session.Score)
		}
	}
	return scores
}

// sessionSeries predicts every session and returns chronological mean
// scores and confidences. A session without stored features is
// skipped; it must not abort its siblings.
func (s *StabilityService) sessionSeries(ctx context.Context, subjectID string, sessions []ports.SessionRecord) ([]float64, []float64, error) {
	scores := make([]float64, 0, len(sessions))
	confidences := make([]float64, 0, len(sessions))
	for _, session := range sessions {
		prediction, err := s.prediction.PredictSession(ctx, subjectID, session.SessionID, true)
		if err != nil {
			if core.IsNotFound(err) {
				s.logger.Warn("no features for %s/%s, session excluded from NSI", subjectID, session.SessionID)
				continue
			}
			return nil, nil, err
		}
		scores = append(scores, prediction.MeanScore)
		confidences = append(confidences, nsi.ConfidenceConsistency(prediction.Probabilities))
	}
	return scores, confidences, nil
}
