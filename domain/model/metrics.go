package model

import (
	"sort"

	"neurosense/domain/core"
)

// RankAUC computes the area under the ROC curve via the rank-sum
// formulation, averaging ranks over tied probabilities. Labels are
// binary; both classes must be present.
func RankAUC(labels []int, probs []float64) (float64, error) {
	if len(labels) != len(probs) {
		return 0, core.NewInferenceError("auc: %d labels vs %d probabilities", len(labels), len(probs))
	}

	n := len(probs)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return probs[order[a]] < probs[order[b]]
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j < n && probs[order[j]] == probs[order[i]] {
			j++
		}
		// Average rank across the tie group, 1-based.
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		i = j
	}

	var pos, rankSum float64
	for i, l := range labels {
		if l != 0 {
			pos++
			rankSum += ranks[i]
		}
	}
	neg := float64(n) - pos
	if pos == 0 || neg == 0 {
		return 0, core.NewInferenceError("auc undefined with a single class")
	}
	return (rankSum - pos*(pos+1)/2) / (pos * neg), nil
}
