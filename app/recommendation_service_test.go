package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neurosense/domain/core"
	"neurosense/domain/recommend"
	"neurosense/internal/testkit"
)

func newRecommendationFixture(t *testing.T, subjectID string, featureValues [][]float64) (*RecommendationService, *testkit.MemoryStore) {
	t.Helper()
	stability, store := newStabilityFixture(t, subjectID, featureValues)
	svc := NewRecommendationService(store, stability, recommend.NewEngine(), testLogger())
	return svc, store
}

func TestNextGamePropagatesInsufficientHistory(t *testing.T) {
	svc, _ := newRecommendationFixture(t, "SBJ01", [][]float64{{0}})
	_, err := svc.NextGame(context.Background(), "SBJ01")
	require.Error(t, err)
	assert.True(t, core.IsInsufficientHistory(err))
}

func TestNextGameReturnsRecommendation(t *testing.T) {
	svc, _ := newRecommendationFixture(t, "SBJ02", [][]float64{{0}, {0}, {0}})

	rec, err := svc.NextGame(context.Background(), "SBJ02")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.GameID)
	assert.NotEmpty(t, rec.Mode)
	assert.Len(t, rec.Explanations, 4)
	assert.GreaterOrEqual(t, rec.TargetDemand, 1.0)
	assert.LessOrEqual(t, rec.TargetDemand, 3.0)
}

func TestNextGameExcludesLastPlayed(t *testing.T) {
	svc, _ := newRecommendationFixture(t, "SBJ03", [][]float64{{0}, {0}, {0}})
	ctx := context.Background()

	first, err := svc.NextGame(ctx, "SBJ03")
	require.NoError(t, err)

	_, err = svc.LogPlay(ctx, "SBJ03", "S03", first.GameID, "recommended")
	require.NoError(t, err)

	second, err := svc.NextGame(ctx, "SBJ03")
	require.NoError(t, err)
	assert.NotEqual(t, first.GameID, second.GameID)
}

func TestLogPlayAppendsHistory(t *testing.T) {
	svc, store := newRecommendationFixture(t, "SBJ04", [][]float64{{0}, {0}, {0}})
	ctx := context.Background()

	event, err := svc.LogPlay(ctx, "SBJ04", "S01", "breath_garden", "manual")
	require.NoError(t, err)
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.Timestamp.IsZero())

	events, err := store.GetRecentGameHistory(ctx, "SBJ04", 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "breath_garden", events[0].GameID)
	assert.Equal(t, "manual", events[0].Source)
	assert.Equal(t, "S01", events[0].SessionID)
}
