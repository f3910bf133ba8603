// Package nsi computes the Neural Stability Index: a composite 0-100
// score summarizing a subject's response stability and adaptivity
// across scored sessions.
package nsi

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"neurosense/domain/core"
)

// MinSessions is the number of scored sessions required before the
// index is defined.
const MinSessions = 3

// highInstability is the population stdev of session scores treated
// as maximally unstable when normalizing variability.
const highInstability = 0.25

// Components are the four normalized sub-scores reported alongside
// the index, each rounded to 3 decimals.
type Components struct {
	Baseline    float64 `json:"baseline"`
	Variability float64 `json:"variability"`
	Improvement float64 `json:"improvement"`
	Consistency float64 `json:"consistency"`
}

// Result is the composite index with its explainability components.
type Result struct {
	NSI        int        `json:"nsi"`
	Components Components `json:"components"`
	ComputedAt time.Time  `json:"computed_at"`
}

// ConfidenceConsistency maps one session's trial probabilities to a
// [0, 1] confidence: the mean binary entropy normalized by the entropy
// of p=0.5, inverted. Higher means more decisive predictions.
func ConfidenceConsistency(probs []float64) float64 {
	if len(probs) == 0 {
		return 0
	}
	const eps = 1e-8
	maxEntropy := -math.Log(0.5) // entropy of p = 0.5

	var entropy float64
	for _, p := range probs {
		p = clamp(p, eps, 1-eps)
		entropy += -p*math.Log(p) - (1-p)*math.Log(1-p)
	}
	entropy /= float64(len(probs))

	return 1 - clamp(entropy/maxEntropy, 0, 1)
}

// Compute folds ordered per-session mean probabilities and their
// confidences into the composite index. Fails with
// core.ErrInsufficientHistory below MinSessions scored sessions;
// callers render that as "not yet available", never as a score.
func Compute(sessionScores, confidences []float64) (*Result, error) {
	n := len(sessionScores)
	if n < MinSessions {
		return nil, core.ErrInsufficientHistory
	}
	if len(confidences) != n {
		return nil, core.NewShapeError("%d confidences for %d sessions", len(confidences), n)
	}

	baselineMean, _ := stats.Mean(sessionScores[:2])
	baseline := clamp01(baselineMean)

	stdev, _ := stats.StandardDeviationPopulation(sessionScores)
	variability := clamp01(stdev / highInstability)

	slope := (sessionScores[n-1] - sessionScores[0]) / math.Max(1, float64(n-1))
	improvement := clamp01((slope + 0.2) / 0.4)

	confMean, _ := stats.Mean(confidences)
	consistency := clamp01(confMean)

	raw := 0.30*(1-baseline) +
		0.30*(1-variability) +
		0.25*improvement +
		0.15*consistency

	return &Result{
		NSI: int(math.Round(raw * 100)),
		Components: Components{
			Baseline:    round3(baseline),
			Variability: round3(variability),
			Improvement: round3(improvement),
			Consistency: round3(consistency),
		},
		ComputedAt: time.Now().UTC(),
	}, nil
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func clamp01(x float64) float64 {
	return clamp(x, 0, 1)
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
