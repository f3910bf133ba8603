// Package model holds the inference-time view of a trained model
// bundle: an optional dimensionality reducer paired with a
// probabilistic binary classifier. Bundles are produced by an external
// training process and never mutated after load.
package model

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"neurosense/domain/core"
	"neurosense/domain/eeg"
)

// Reducer transforms a feature matrix into a lower-dimensional one.
type Reducer interface {
	Transform(x *eeg.FeatureMatrix) (*eeg.FeatureMatrix, error)
	InputWidth() int
}

// Classifier produces a positive-class probability per feature row.
type Classifier interface {
	PredictProbability(x *eeg.FeatureMatrix) ([]float64, error)
	InputWidth() int
}

// Bundle pairs an optional reducer with a classifier. A nil Reducer
// means features pass through unchanged.
type Bundle struct {
	ID         string
	Reducer    Reducer
	Classifier Classifier
}

// Predict runs the feature matrix through the reducer (when present)
// and the classifier, returning one probability in [0, 1] per trial.
func (b *Bundle) Predict(x *eeg.FeatureMatrix) ([]float64, error) {
	if b.Classifier == nil {
		return nil, core.NewInferenceError("bundle %q has no classifier", b.ID)
	}

	reduced := x
	if b.Reducer != nil {
		if x.Cols != b.Reducer.InputWidth() {
			return nil, core.NewInferenceError("bundle %q reducer expects %d features, got %d", b.ID, b.Reducer.InputWidth(), x.Cols)
		}
		var err error
		reduced, err = b.Reducer.Transform(x)
		if err != nil {
			return nil, err
		}
	}

	if reduced.Cols != b.Classifier.InputWidth() {
		return nil, core.NewInferenceError("bundle %q classifier expects %d features, got %d", b.ID, b.Classifier.InputWidth(), reduced.Cols)
	}
	return b.Classifier.PredictProbability(reduced)
}

// PCAReducer centers features and projects them onto principal
// components. Components are stored row-wise (k x d).
type PCAReducer struct {
	mean       []float64
	components *mat.Dense
}

// NewPCAReducer builds a reducer from a mean vector of width d and a
// k x d component matrix in row-major order.
func NewPCAReducer(mean []float64, components [][]float64) (*PCAReducer, error) {
	if len(components) == 0 {
		return nil, core.NewInferenceError("pca reducer has no components")
	}
	d := len(mean)
	flat := make([]float64, 0, len(components)*d)
	for _, row := range components {
		if len(row) != d {
			return nil, core.NewInferenceError("pca component width %d does not match mean width %d", len(row), d)
		}
		flat = append(flat, row...)
	}
	return &PCAReducer{
		mean:       mean,
		components: mat.NewDense(len(components), d, flat),
	}, nil
}

// InputWidth returns the feature width the reducer expects.
func (r *PCAReducer) InputWidth() int {
	return len(r.mean)
}

// OutputWidth returns the reduced feature width.
func (r *PCAReducer) OutputWidth() int {
	k, _ := r.components.Dims()
	return k
}

// Transform computes (x - mean) * components^T.
func (r *PCAReducer) Transform(x *eeg.FeatureMatrix) (*eeg.FeatureMatrix, error) {
	if x.Cols != len(r.mean) {
		return nil, core.NewInferenceError("pca reducer expects %d features, got %d", len(r.mean), x.Cols)
	}

	centered := mat.NewDense(x.Rows, x.Cols, nil)
	for i := 0; i < x.Rows; i++ {
		row := x.Row(i)
		for j, v := range row {
			centered.Set(i, j, v-r.mean[j])
		}
	}

	k, _ := r.components.Dims()
	var projected mat.Dense
	projected.Mul(centered, r.components.T())

	out := eeg.NewFeatureMatrix(x.Rows, k)
	for i := 0; i < x.Rows; i++ {
		for j := 0; j < k; j++ {
			out.Data[i*k+j] = projected.At(i, j)
		}
	}
	return out, nil
}

// LogisticClassifier is a binary logistic regression head. The
// positive-class probability is sigmoid(w . x + b).
type LogisticClassifier struct {
	weights   []float64
	intercept float64
}

// NewLogisticClassifier builds a classifier from trained coefficients.
func NewLogisticClassifier(weights []float64, intercept float64) (*LogisticClassifier, error) {
	if len(weights) == 0 {
		return nil, core.NewInferenceError("logistic classifier has no weights")
	}
	return &LogisticClassifier{weights: weights, intercept: intercept}, nil
}

// InputWidth returns the feature width the classifier expects.
func (c *LogisticClassifier) InputWidth() int {
	return len(c.weights)
}

// PredictProbability returns the positive-class probability per row.
func (c *LogisticClassifier) PredictProbability(x *eeg.FeatureMatrix) ([]float64, error) {
	if x.Cols != len(c.weights) {
		return nil, core.NewInferenceError("logistic classifier expects %d features, got %d", len(c.weights), x.Cols)
	}
	out := make([]float64, x.Rows)
	for i := 0; i < x.Rows; i++ {
		row := x.Row(i)
		z := c.intercept
		for j, w := range c.weights {
			z += w * row[j]
		}
		out[i] = 1 / (1 + math.Exp(-z))
	}
	return out, nil
}
