package engine

import (
	"github.com/rce-engine/analysis-worker/internal/lang"
	"github.com/rce-engine/analysis-worker/internal/model"
)

const (
	tryBlockLOCThreshold = 10
	functionLOCThreshold = 15
)

// Suggest evaluates the remediation rules in fixed order, each appending at
// most one suggestion.
func Suggest(v *lang.Variant, metrics model.Metrics, risks []model.Risk) []string {
	var suggestions []string
	loc := metrics[model.MetricLinesOfCode]

	// The error-handling rule only fires when missing try blocks is an
	// actual observation, not an unmeasured counter.
	if v.TracksTryBlocks && metrics[model.MetricTryBlocks] == 0 && loc > tryBlockLOCThreshold {
		suggestions = append(suggestions, "Consider adding error handling with try/except blocks")
	}

	if v.SuggestMissingFunctions && metrics[model.MetricFunctions] == 0 && loc > functionLOCThreshold {
		suggestions = append(suggestions, "Consider organizing code into functions for better readability")
	}

	// One urgent entry regardless of how many critical risks exist.
	for _, r := range risks {
		if r.Severity == model.Critical {
			suggestions = append(suggestions, "⚠️ CRITICAL: Remove dangerous functions like eval() or exec()")
			break
		}
	}

	return suggestions
}
