package eeg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neurosense/domain/core"
)

// sequential builds a raw array whose values encode their own
// canonical (trial, channel, sample) position, so tests can verify a
// permutation was undone exactly.
func sequential(trials, channels, samples int) RawArray {
	data := make([]float64, trials*channels*samples)
	for i := range data {
		data[i] = float64(i)
	}
	return RawArray{Shape: []int{trials, channels, samples}, Data: data}
}

// permuteRaw reorders axes so output axis i is input axis perm[i].
func permuteRaw(arr RawArray, perm [3]int) RawArray {
	shape := []int{arr.Shape[perm[0]], arr.Shape[perm[1]], arr.Shape[perm[2]]}
	out := make([]float64, len(arr.Data))
	src := [3]int{arr.Shape[1] * arr.Shape[2], arr.Shape[2], 1}
	n := 0
	for i := 0; i < shape[0]; i++ {
		for j := 0; j < shape[1]; j++ {
			for k := 0; k < shape[2]; k++ {
				out[n] = arr.Data[i*src[perm[0]]+j*src[perm[1]]+k*src[perm[2]]]
				n++
			}
		}
	}
	return RawArray{Shape: shape, Data: out}
}

func TestNormalizeRecoversAllPermutations(t *testing.T) {
	canonical := sequential(20, DefaultChannelCount, 350)
	perms := [][3]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}

	n := NewNormalizer()
	for _, perm := range perms {
		permuted := permuteRaw(canonical, perm)
		batch, err := n.Normalize(permuted)
		require.NoError(t, err, "perm %v", perm)

		assert.Equal(t, 20, batch.Trials, "perm %v", perm)
		assert.Equal(t, DefaultChannelCount, batch.Channels, "perm %v", perm)
		assert.Equal(t, 350, batch.Samples, "perm %v", perm)

		// Every value must land back on its canonical position.
		for _, trial := range []int{0, 7, 19} {
			for c := 0; c < batch.Channels; c++ {
				for s := 0; s < 5; s++ {
					want := float64((trial*DefaultChannelCount+c)*350 + s)
					assert.Equal(t, want, batch.At(trial, c, s), "perm %v at (%d,%d,%d)", perm, trial, c, s)
				}
			}
		}
	}
}

func TestNormalizeRankTwoLiftsSingleTrial(t *testing.T) {
	raw := RawArray{
		Shape: []int{DefaultChannelCount, 300},
		Data:  make([]float64, DefaultChannelCount*300),
	}
	raw.Data[0] = 42

	batch, err := NewNormalizer().Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, 1, batch.Trials)
	assert.Equal(t, DefaultChannelCount, batch.Channels)
	assert.Equal(t, 300, batch.Samples)
	assert.Equal(t, 42.0, batch.At(0, 0, 0))
}

func TestNormalizeSqueezesUnitAxes(t *testing.T) {
	raw := sequential(4, DefaultChannelCount, 340)
	raw.Shape = []int{4, 1, DefaultChannelCount, 340, 1}

	batch, err := NewNormalizer().Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, [3]int{4, DefaultChannelCount, 340}, [3]int{batch.Trials, batch.Channels, batch.Samples})
}

func TestNormalizeSampleToleranceFallsBackToSmallerAxis(t *testing.T) {
	// Neither non-channel axis is near the nominal sample length, so
	// the shorter one is taken as samples.
	raw := RawArray{
		Shape: []int{90, DefaultChannelCount, 12},
		Data:  make([]float64, 90*DefaultChannelCount*12),
	}
	batch, err := NewNormalizer().Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, 90, batch.Trials)
	assert.Equal(t, 12, batch.Samples)
}

// The no-channel-match fallback is a known-fuzzy heuristic: it guesses
// largest=trial, smallest=channel with no validation. This pins the
// behavior; it does not certify the guess is right for all sources.
func TestNormalizeFallbackWithoutChannelMatch(t *testing.T) {
	raw := RawArray{
		Shape: []int{35, 16, 120},
		Data:  make([]float64, 35*16*120),
	}
	batch, err := NewNormalizer().Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, 120, batch.Trials)
	assert.Equal(t, 16, batch.Channels)
	assert.Equal(t, 35, batch.Samples)
}

func TestNormalizeRejectsBadRanks(t *testing.T) {
	n := NewNormalizer()

	cases := []struct {
		name  string
		shape []int
		size  int
	}{
		{"rank 1", []int{100}, 100},
		{"rank 4 unsqueezable", []int{2, 3, 4, 5}, 120},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := n.Normalize(RawArray{Shape: tc.shape, Data: make([]float64, tc.size)})
			require.Error(t, err)
			assert.True(t, core.IsShapeError(err))
		})
	}
}

func TestNormalizeRejectsShapeDataMismatch(t *testing.T) {
	_, err := NewNormalizer().Normalize(RawArray{Shape: []int{2, 8, 10}, Data: make([]float64, 7)})
	require.Error(t, err)
	assert.True(t, core.IsShapeError(err))
}
