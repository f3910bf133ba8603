package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neurosense/domain/core"
	"neurosense/domain/eeg"
	"neurosense/internal"
	"neurosense/internal/testkit"
)

func testLogger() *internal.Logger {
	return internal.NewLogger(internal.LogLevelError)
}

func newPipeline() *PipelineService {
	return NewPipelineService(eeg.NewNormalizer(), eeg.DefaultWindow, 250, testLogger())
}

func TestPipelineProcessFullRecording(t *testing.T) {
	raw := testkit.GenerateRecording(4, 8, 350, 250, 1)
	features, report, err := newPipeline().Process(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, 4, features.Rows)
	assert.Equal(t, 32, features.Cols)
	assert.Equal(t, [3]int{4, 8, 350}, report.NormalizedShape)
	assert.Equal(t, 4, report.TrialsIn)
	assert.Equal(t, 4, report.TrialsOut)
	assert.Empty(t, report.Skipped)
}

func TestPipelineProcessPermutedInputMatchesCanonical(t *testing.T) {
	raw := testkit.GenerateRecording(3, 8, 350, 250, 2)
	permuted := testkit.PermuteAxes(raw, [3]int{2, 0, 1})

	ctx := context.Background()
	canonical, _, err := newPipeline().Process(ctx, raw)
	require.NoError(t, err)
	recovered, _, err := newPipeline().Process(ctx, permuted)
	require.NoError(t, err)

	require.Equal(t, canonical.Rows, recovered.Rows)
	require.Equal(t, canonical.Cols, recovered.Cols)
	for i := range canonical.Data {
		assert.InDelta(t, canonical.Data[i], recovered.Data[i], 1e-12)
	}
}

func TestPipelineProcessShapeFailureAborts(t *testing.T) {
	raw := eeg.RawArray{Shape: []int{10}, Data: make([]float64, 10)}
	_, report, err := newPipeline().Process(context.Background(), raw)
	require.Error(t, err)
	assert.True(t, core.IsShapeError(err))
	assert.Nil(t, report)
}

func TestPipelineProcessAllTrialsTooShort(t *testing.T) {
	// Trials this short cannot be zero-phase filtered.
	raw := testkit.GenerateRecording(2, 8, 10, 250, 3)
	pipeline := NewPipelineService(eeg.NewNormalizer(), eeg.Window{StartMs: 0, EndMs: 20}, 250, testLogger())

	_, report, err := pipeline.Process(context.Background(), raw)
	require.Error(t, err)
	assert.True(t, core.IsConditioningError(err))
	require.NotNil(t, report)
	assert.Equal(t, 0, report.TrialsOut)
	assert.Len(t, report.Skipped, report.TrialsIn)
}
