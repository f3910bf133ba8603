package eeg

import (
	"neurosense/domain/core"
)

// RawArray is an arbitrary-rank numeric array as delivered by a
// recording source. Data is row-major with respect to Shape.
type RawArray struct {
	Shape []int
	Data  []float64
}

// Size returns the number of elements implied by the shape.
func (r RawArray) Size() int {
	n := 1
	for _, d := range r.Shape {
		n *= d
	}
	return n
}

// Rank returns the number of axes.
func (r RawArray) Rank() int {
	return len(r.Shape)
}

// Squeeze drops every length-1 axis. A rank-0 result keeps a single
// length-1 axis so downstream rank checks stay meaningful.
func (r RawArray) Squeeze() RawArray {
	shape := make([]int, 0, len(r.Shape))
	for _, d := range r.Shape {
		if d != 1 {
			shape = append(shape, d)
		}
	}
	if len(shape) == 0 {
		shape = append(shape, 1)
	}
	return RawArray{Shape: shape, Data: r.Data}
}

// TrialBatch is a recording tensor in canonical (trial, channel, sample)
// order. Downstream stages treat it as read-only.
type TrialBatch struct {
	Trials   int
	Channels int
	Samples  int

	data []float64 // trial-major, then channel, then sample
}

// NewTrialBatch allocates a zeroed batch with the given dimensions.
func NewTrialBatch(trials, channels, samples int) (*TrialBatch, error) {
	if trials <= 0 || channels <= 0 || samples <= 0 {
		return nil, core.NewShapeError("non-positive batch dimension (%d, %d, %d)", trials, channels, samples)
	}
	return &TrialBatch{
		Trials:   trials,
		Channels: channels,
		Samples:  samples,
		data:     make([]float64, trials*channels*samples),
	}, nil
}

// At returns the sample at (trial, channel, sample).
func (b *TrialBatch) At(t, c, s int) float64 {
	return b.data[(t*b.Channels+c)*b.Samples+s]
}

// Set writes the sample at (trial, channel, sample).
func (b *TrialBatch) Set(t, c, s int, v float64) {
	b.data[(t*b.Channels+c)*b.Samples+s] = v
}

// Trial copies one trial out as a (channel, sample) matrix.
func (b *TrialBatch) Trial(t int) [][]float64 {
	out := make([][]float64, b.Channels)
	for c := 0; c < b.Channels; c++ {
		row := make([]float64, b.Samples)
		start := (t*b.Channels + c) * b.Samples
		copy(row, b.data[start:start+b.Samples])
		out[c] = row
	}
	return out
}

// SetTrial writes a (channel, sample) matrix back into trial t.
func (b *TrialBatch) SetTrial(t int, trial [][]float64) error {
	if len(trial) != b.Channels {
		return core.NewShapeError("trial has %d channels, batch expects %d", len(trial), b.Channels)
	}
	for c, row := range trial {
		if len(row) != b.Samples {
			return core.NewShapeError("trial channel %d has %d samples, batch expects %d", c, len(row), b.Samples)
		}
		copy(b.data[(t*b.Channels+c)*b.Samples:], row)
	}
	return nil
}

// FeatureMatrix is a stacked set of per-trial feature vectors,
// row-major (one row per trial).
type FeatureMatrix struct {
	Rows int
	Cols int
	Data []float64
}

// NewFeatureMatrix allocates a zeroed rows x cols matrix.
func NewFeatureMatrix(rows, cols int) *FeatureMatrix {
	return &FeatureMatrix{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

// Row returns a view of one feature vector.
func (m *FeatureMatrix) Row(i int) []float64 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// At returns the element at (row, col).
func (m *FeatureMatrix) At(i, j int) float64 {
	return m.Data[i*m.Cols+j]
}
