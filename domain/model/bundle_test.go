package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neurosense/domain/core"
	"neurosense/domain/eeg"
)

func featureMatrix(rows, cols int, data []float64) *eeg.FeatureMatrix {
	m := eeg.NewFeatureMatrix(rows, cols)
	copy(m.Data, data)
	return m
}

func TestLogisticClassifierKnownProbabilities(t *testing.T) {
	clf, err := NewLogisticClassifier([]float64{1, -1}, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, clf.InputWidth())

	x := featureMatrix(3, 2, []float64{
		0, 0, // z = 0
		2, 0, // z = 2
		0, 2, // z = -2
	})
	probs, err := clf.PredictProbability(x)
	require.NoError(t, err)
	require.Len(t, probs, 3)

	assert.InDelta(t, 0.5, probs[0], 1e-12)
	assert.InDelta(t, 1/(1+math.Exp(-2)), probs[1], 1e-12)
	assert.InDelta(t, 1/(1+math.Exp(2)), probs[2], 1e-12)
}

func TestBundlePredictWithoutReducerPassesThrough(t *testing.T) {
	clf, err := NewLogisticClassifier([]float64{0.5, 0.5, 0.5}, -0.75)
	require.NoError(t, err)
	b := &Bundle{ID: "generalized", Classifier: clf}

	probs, err := b.Predict(featureMatrix(1, 3, []float64{1, 1, 1}))
	require.NoError(t, err)
	require.Len(t, probs, 1)
	assert.InDelta(t, 1/(1+math.Exp(-0.75)), probs[0], 1e-12)
}

func TestBundlePredictAppliesPCAReducer(t *testing.T) {
	// Projection onto axis-aligned components after centering.
	red, err := NewPCAReducer([]float64{1, 1, 1}, [][]float64{
		{1, 0, 0},
		{0, 0, 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, red.InputWidth())
	assert.Equal(t, 2, red.OutputWidth())

	clf, err := NewLogisticClassifier([]float64{1, 1}, 0)
	require.NoError(t, err)
	b := &Bundle{ID: "SBJ01", Reducer: red, Classifier: clf}

	// Centered row is (1, 2, 3); projected is (1, 3); z = 4.
	probs, err := b.Predict(featureMatrix(1, 3, []float64{2, 3, 4}))
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(-4)), probs[0], 1e-12)
}

func TestBundlePredictWidthMismatch(t *testing.T) {
	clf, err := NewLogisticClassifier([]float64{1, 1}, 0)
	require.NoError(t, err)

	b := &Bundle{ID: "SBJ02", Classifier: clf}
	_, err = b.Predict(featureMatrix(1, 3, []float64{1, 2, 3}))
	require.Error(t, err)
	assert.True(t, core.IsInferenceError(err))

	red, err := NewPCAReducer([]float64{0, 0, 0, 0}, [][]float64{{1, 0, 0, 0}})
	require.NoError(t, err)
	b = &Bundle{ID: "SBJ02", Reducer: red, Classifier: clf}
	_, err = b.Predict(featureMatrix(1, 3, []float64{1, 2, 3}))
	require.Error(t, err)
	assert.True(t, core.IsInferenceError(err))
}

func TestBundlePredictRequiresClassifier(t *testing.T) {
	b := &Bundle{ID: "empty"}
	_, err := b.Predict(featureMatrix(1, 1, []float64{1}))
	require.Error(t, err)
	assert.True(t, core.IsInferenceError(err))
}

func TestNewPCAReducerValidation(t *testing.T) {
	_, err := NewPCAReducer([]float64{0, 0}, nil)
	assert.Error(t, err)

	_, err = NewPCAReducer([]float64{0, 0}, [][]float64{{1, 0, 0}})
	assert.Error(t, err)
}
