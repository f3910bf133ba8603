package eeg

import (
	"math"

	"neurosense/domain/core"
)

// Window is a feature-extraction interval in milliseconds relative to
// sample 0 of the epoch.
type Window struct {
	StartMs float64 `json:"start_ms"`
	EndMs   float64 `json:"end_ms"`
}

// DefaultWindow covers the post-stimulus response interval used by
// the trained models.
var DefaultWindow = Window{StartMs: 100, EndMs: 700}

// Samples converts the window to a half-open sample slice
// [start, end) at sampling rate fs.
func (w Window) Samples(fs float64) (int, int) {
	start := int(math.Floor(w.StartMs * fs / 1000))
	end := int(math.Floor(w.EndMs * fs / 1000))
	return start, end
}

// ExtractFeatures reduces a conditioned batch to one fixed-length
// vector per trial: mean, population standard deviation, max and min
// of each channel over the window, concatenated block-wise in that
// order. The result is 4 x channels columns wide.
func ExtractFeatures(batch *TrialBatch, w Window, fs float64) (*FeatureMatrix, error) {
	if batch == nil {
		return nil, core.NewShapeError("nil trial batch")
	}
	start, end := w.Samples(fs)
	if start < 0 || end > batch.Samples || start >= end {
		return nil, core.NewShapeError("window [%d, %d) out of bounds for %d samples", start, end, batch.Samples)
	}

	ch := batch.Channels
	out := NewFeatureMatrix(batch.Trials, 4*ch)
	for t := 0; t < batch.Trials; t++ {
		row := out.Row(t)
		for c := 0; c < ch; c++ {
			mean, std, max, min := windowStats(batch, t, c, start, end)
			row[c] = mean
			row[ch+c] = std
			row[2*ch+c] = max
			row[3*ch+c] = min
		}
	}
	return out, nil
}

// windowStats computes mean, population std, max and min of one
// channel slice in a single pass over the window.
func windowStats(batch *TrialBatch, t, c, start, end int) (mean, std, max, min float64) {
	n := float64(end - start)
	max = math.Inf(-1)
	min = math.Inf(1)

	var sum float64
	for s := start; s < end; s++ {
		v := batch.At(t, c, s)
		sum += v
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	mean = sum / n

	var sq float64
	for s := start; s < end; s++ {
		d := batch.At(t, c, s) - mean
		sq += d * d
	}
	std = math.Sqrt(sq / n)
	return mean, std, max, min
}
