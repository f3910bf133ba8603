package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"neurosense/domain/recommend"
	"neurosense/internal"
	"neurosense/ports"
)

// recentHistoryWindow is how many recent plays feed the repetition
// penalty and last-game exclusion.
const recentHistoryWindow = 5

// RecommendationService selects the next training activity for a
// subject from their stability index and play history.
type RecommendationService struct {
	store     ports.Store
	stability *StabilityService
	engine    *recommend.Engine
	logger    *internal.Logger
}

// NewRecommendationService creates the recommendation orchestrator.
func NewRecommendationService(store ports.Store, stability *StabilityService, engine *recommend.Engine, logger *internal.Logger) *RecommendationService {
	return &RecommendationService{
		store:     store,
		stability: stability,
		engine:    engine,
		logger:    logger,
	}
}

// NextGame recommends the next activity. Propagates
// core.ErrInsufficientHistory from the stability stage untouched so
// callers can render "not yet available".
func (s *RecommendationService) NextGame(ctx context.Context, subjectID string) (*recommend.Recommendation, error) {
	report, err := s.stability.Stability(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	events, err := s.store.GetRecentGameHistory(ctx, subjectID, recentHistoryWindow)
	if err != nil {
		return nil, err
	}
	recent := make([]string, len(events))
	for i, e := range events {
		recent[i] = e.GameID
	}
	lastGame := ""
	if len(recent) > 0 {
		lastGame = recent[len(recent)-1]
	}

	return s.engine.Recommend(recommend.Request{
		Subject:       subjectID,
		NSI:           report.Result.NSI,
		SessionScores: report.SessionScores,
		LastGame:      lastGame,
		RecentGames:   recent,
	})
}

// LogPlay appends one play event to the subject's history.
func (s *RecommendationService) LogPlay(ctx context.Context, subjectID, sessionID, gameID, source string) (ports.GameEvent, error) {
	event := ports.GameEvent{
		ID:        uuid.NewString(),
		SubjectID: subjectID,
		SessionID: sessionID,
		GameID:    gameID,
		Source:    source,
		Timestamp: time.Now().UTC(),
	}
	return event, s.store.LogGame(ctx, event)
}
