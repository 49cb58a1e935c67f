package engine

import "github.com/rce-engine/analysis-worker/internal/model"

// Classify sums the listed metric keys into a cyclomatic-complexity
// approximation and buckets it. Which keys feed the sum is a per-variant
// decision: the pattern variant deliberately sums fewer counters than the
// structural one.
func Classify(metrics model.Metrics, keys []string) model.Complexity {
	sum := 0
	for _, k := range keys {
		sum += metrics[k]
	}
	switch {
	case sum < 5:
		return model.ComplexityLow
	case sum < 10:
		return model.ComplexityMedium
	default:
		return model.ComplexityHigh
	}
}
