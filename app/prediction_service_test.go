package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neurosense/adapters/modelstore"
	"neurosense/domain/core"
	"neurosense/domain/eeg"
	"neurosense/domain/model"
	"neurosense/internal/testkit"
	"neurosense/ports"
)

const testModelsDir = "models"

func passthroughBundle(t *testing.T, id string) *model.Bundle {
	t.Helper()
	// Single-feature identity logistic head: p = sigmoid(x).
	clf, err := model.NewLogisticClassifier([]float64{1}, 0)
	require.NoError(t, err)
	return &model.Bundle{ID: id, Classifier: clf}
}

func seedFeatures(t *testing.T, cache ports.FeatureCache, subjectID, sessionID string, values []float64, targets []int) {
	t.Helper()
	x := eeg.NewFeatureMatrix(len(values), 1)
	copy(x.Data, values)
	err := cache.Put(context.Background(), subjectID, sessionID, &ports.SessionFeatures{
		X:            x,
		Targets:      targets,
		SamplingRate: 250,
		Window:       eeg.DefaultWindow,
	})
	require.NoError(t, err)
}

func newPredictionFixture(t *testing.T) (*PredictionService, *testkit.MemoryStore, *testkit.MemoryBundleStore, *testkit.MemoryFeatureCache) {
	t.Helper()
	store := testkit.NewMemoryStore()
	bundles := testkit.NewMemoryBundleStore()
	features := testkit.NewMemoryFeatureCache()
	resolver := modelstore.NewResolver(testModelsDir, bundles)
	svc := NewPredictionService(resolver, features, store, testLogger())
	return svc, store, bundles, features
}

func TestPredictSessionSubjectSpecific(t *testing.T) {
	svc, _, bundles, features := newPredictionFixture(t)
	bundles.AddBundle(modelstore.SubjectBundlePath(testModelsDir, 1), passthroughBundle(t, "SBJ01"))
	seedFeatures(t, features, "SBJ01", "S01", []float64{-1000, 1000}, nil)

	p, err := svc.PredictSession(context.Background(), "SBJ01", "S01", true)
	require.NoError(t, err)
	assert.Equal(t, "subject", p.ModelUsed)
	require.Len(t, p.Probabilities, 2)
	assert.InDelta(t, 0, p.Probabilities[0], 1e-9)
	assert.InDelta(t, 1, p.Probabilities[1], 1e-9)
	assert.InDelta(t, 0.5, p.MeanScore, 1e-9)
	assert.Nil(t, p.AUC)
}

func TestPredictSessionGeneralizedFallback(t *testing.T) {
	svc, _, bundles, features := newPredictionFixture(t)
	bundles.AddBundle(modelstore.GeneralizedBundlePath(testModelsDir), passthroughBundle(t, "generalized"))
	seedFeatures(t, features, "SBJ02", "S01", []float64{0}, nil)

	p, err := svc.PredictSession(context.Background(), "SBJ02", "S01", true)
	require.NoError(t, err)
	assert.Equal(t, "generalized", p.ModelUsed)
	assert.InDelta(t, 0.5, p.MeanScore, 1e-9)
}

func TestPredictSessionReportsAUC(t *testing.T) {
	svc, _, bundles, features := newPredictionFixture(t)
	bundles.AddBundle(modelstore.SubjectBundlePath(testModelsDir, 3), passthroughBundle(t, "SBJ03"))
	seedFeatures(t, features, "SBJ03", "S01", []float64{-2, -1, 1, 2}, []int{0, 0, 1, 1})

	p, err := svc.PredictSession(context.Background(), "SBJ03", "S01", true)
	require.NoError(t, err)
	require.NotNil(t, p.AUC)
	assert.InDelta(t, 1.0, *p.AUC, 1e-12)
}

func TestPredictSessionMissingFeatures(t *testing.T) {
	svc, _, bundles, _ := newPredictionFixture(t)
	bundles.AddBundle(modelstore.GeneralizedBundlePath(testModelsDir), passthroughBundle(t, "generalized"))

	_, err := svc.PredictSession(context.Background(), "SBJ04", "S01", true)
	require.Error(t, err)
	assert.True(t, core.IsNotFound(err))
}

func TestPredictSessionNoModel(t *testing.T) {
	svc, _, _, features := newPredictionFixture(t)
	seedFeatures(t, features, "SBJ05", "S01", []float64{0}, nil)

	_, err := svc.PredictSession(context.Background(), "SBJ05", "S01", true)
	require.Error(t, err)
	assert.True(t, core.IsModelNotFound(err))
}

func TestRescoreSessionPersistsScoreAndInvalidates(t *testing.T) {
	svc, store, bundles, features := newPredictionFixture(t)
	bundles.AddBundle(modelstore.SubjectBundlePath(testModelsDir, 6), passthroughBundle(t, "SBJ06"))
	seedFeatures(t, features, "SBJ06", "S01", []float64{0, 0}, nil)

	ctx := context.Background()
	store.SeedSession("SBJ06", ports.SessionRecord{SessionID: "S01", Index: 1})

	p, err := svc.RescoreSession(ctx, "SBJ06", "S01", true)
	require.NoError(t, err)

	sessions, err := store.GetSessions(ctx, "SBJ06")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.NotNil(t, sessions[0].Score)
	assert.InDelta(t, p.MeanScore, *sessions[0].Score, 1e-12)
	assert.Equal(t, "subject", sessions[0].ModelUsed)
}
