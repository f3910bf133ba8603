// Package testkit generates synthetic recordings and provides
// in-memory collaborator implementations for tests.
package testkit

import (
	"math"
	"math/rand"

	"neurosense/domain/eeg"
)

// GenerateTrial synthesizes one (channel, sample) trial: a few
// sinusoids inside the pass band, a 50 Hz line-noise component and
// white noise, with a per-channel DC offset.
func GenerateTrial(channels, samples int, fs float64, rng *rand.Rand) [][]float64 {
	trial := make([][]float64, channels)
	for c := 0; c < channels; c++ {
		row := make([]float64, samples)
		offset := rng.Float64()*4 - 2
		phase := rng.Float64() * 2 * math.Pi
		for s := 0; s < samples; s++ {
			t := float64(s) / fs
			row[s] = offset +
				math.Sin(2*math.Pi*10*t+phase) +
				0.5*math.Sin(2*math.Pi*22*t) +
				0.8*math.Sin(2*math.Pi*50*t) +
				0.2*rng.NormFloat64()
		}
		trial[c] = row
	}
	return trial
}

// GenerateRecording synthesizes a raw recording tensor in canonical
// (trial, channel, sample) order.
func GenerateRecording(trials, channels, samples int, fs float64, seed int64) eeg.RawArray {
	rng := rand.New(rand.NewSource(seed))
	data := make([]float64, 0, trials*channels*samples)
	for t := 0; t < trials; t++ {
		trial := GenerateTrial(channels, samples, fs, rng)
		for _, row := range trial {
			data = append(data, row...)
		}
	}
	return eeg.RawArray{Shape: []int{trials, channels, samples}, Data: data}
}

// PermuteAxes reorders a rank-3 raw array so that axis perm[i] of the
// output is axis i of the input. Used to exercise shape inference
// against arbitrary source layouts.
func PermuteAxes(arr eeg.RawArray, perm [3]int) eeg.RawArray {
	shape := []int{arr.Shape[perm[0]], arr.Shape[perm[1]], arr.Shape[perm[2]]}
	out := make([]float64, len(arr.Data))

	srcStrides := [3]int{arr.Shape[1] * arr.Shape[2], arr.Shape[2], 1}
	dstStrides := [3]int{shape[1] * shape[2], shape[2], 1}
	for i := 0; i < shape[0]; i++ {
		for j := 0; j < shape[1]; j++ {
			for k := 0; k < shape[2]; k++ {
				idx := [3]int{i, j, k}
				src := idx[0]*srcStrides[perm[0]] + idx[1]*srcStrides[perm[1]] + idx[2]*srcStrides[perm[2]]
				out[i*dstStrides[0]+j*dstStrides[1]+k*dstStrides[2]] = arr.Data[src]
			}
		}
	}
	return eeg.RawArray{Shape: shape, Data: out}
}
