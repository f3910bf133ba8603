package eeg

import (
	"sort"

	"neurosense/domain/core"
)

// Default montage constants: 8 electrodes (C3, Cz, C4, CPz, P3, Pz,
// P4, POz), 1400 ms epochs at 250 Hz.
const (
	DefaultChannelCount    = 8
	DefaultNominalSamples  = 350
	DefaultSampleTolerance = 50
)

// Normalizer infers axis roles of heterogeneous trial recordings and
// reorders them into canonical (trial, channel, sample) layout.
//
// The inference is best-effort: it always produces an ordering for
// rank-2/3 input, trading occasional misclassification for no silent
// failure.
type Normalizer struct {
	ChannelCount    int
	NominalSamples  int
	SampleTolerance int
}

// NewNormalizer creates a normalizer for the standard montage.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		ChannelCount:    DefaultChannelCount,
		NominalSamples:  DefaultNominalSamples,
		SampleTolerance: DefaultSampleTolerance,
	}
}

// Normalize reorders raw into a TrialBatch. Length-1 axes are squeezed
// first; after squeezing the rank must be 2 or 3.
func (n *Normalizer) Normalize(raw RawArray) (*TrialBatch, error) {
	if raw.Size() != len(raw.Data) {
		return nil, core.NewShapeError("shape %v implies %d elements, data has %d", raw.Shape, raw.Size(), len(raw.Data))
	}

	arr := raw
	if arr.Rank() > 3 {
		arr = arr.Squeeze()
	}

	switch arr.Rank() {
	case 2:
		// Single trial assumed (channel, sample); insert trial axis.
		return n.liftSingleTrial(arr)
	case 3:
		perm := n.inferPermutation(arr.Shape)
		return permute(arr, perm)
	default:
		return nil, core.NewShapeError("rank %d after squeezing, want 2 or 3", arr.Rank())
	}
}

func (n *Normalizer) liftSingleTrial(arr RawArray) (*TrialBatch, error) {
	batch, err := NewTrialBatch(1, arr.Shape[0], arr.Shape[1])
	if err != nil {
		return nil, err
	}
	copy(batch.data, arr.Data)
	return batch, nil
}

// inferPermutation returns axis indices ordered (trial, channel,
// sample) for a rank-3 shape.
//
// Channel axis: the first axis whose length equals the channel count.
// Sample axis: among the remaining two, the first within tolerance of
// the nominal epoch length, else the shorter one (lower index wins a
// tie). The leftover axis is trials.
//
// When nothing matches the channel count the largest axis is assumed
// to be trials and the smallest channels. This is a guess with no
// validation, kept because refusing the data entirely is worse.
func (n *Normalizer) inferPermutation(shape []int) [3]int {
	chAxis := -1
	for i, d := range shape {
		if d == n.ChannelCount {
			chAxis = i
			break
		}
	}

	if chAxis < 0 {
		return n.fallbackPermutation(shape)
	}

	rem := make([]int, 0, 2)
	for i := range shape {
		if i != chAxis {
			rem = append(rem, i)
		}
	}

	sampleAxis := -1
	for _, i := range rem {
		if abs(shape[i]-n.NominalSamples) <= n.SampleTolerance {
			sampleAxis = i
			break
		}
	}
	if sampleAxis < 0 {
		sampleAxis = rem[0]
		if shape[rem[1]] < shape[rem[0]] {
			sampleAxis = rem[1]
		}
	}

	trialAxis := rem[0] + rem[1] - sampleAxis
	return [3]int{trialAxis, chAxis, sampleAxis}
}

func (n *Normalizer) fallbackPermutation(shape []int) [3]int {
	order := []int{0, 1, 2}
	sort.SliceStable(order, func(a, b int) bool {
		return shape[order[a]] > shape[order[b]]
	})
	trialAxis, sampleAxis, chAxis := order[0], order[1], order[2]
	return [3]int{trialAxis, chAxis, sampleAxis}
}

// permute materializes arr with its axes reordered so that
// perm[0] becomes trials, perm[1] channels and perm[2] samples.
func permute(arr RawArray, perm [3]int) (*TrialBatch, error) {
	batch, err := NewTrialBatch(arr.Shape[perm[0]], arr.Shape[perm[1]], arr.Shape[perm[2]])
	if err != nil {
		return nil, err
	}

	strides := [3]int{arr.Shape[1] * arr.Shape[2], arr.Shape[2], 1}
	for t := 0; t < batch.Trials; t++ {
		for c := 0; c < batch.Channels; c++ {
			for s := 0; s < batch.Samples; s++ {
				src := t*strides[perm[0]] + c*strides[perm[1]] + s*strides[perm[2]]
				batch.Set(t, c, s, arr.Data[src])
			}
		}
	}
	return batch, nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
