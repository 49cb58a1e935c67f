package engine

import "github.com/rce-engine/analysis-worker/internal/model"

// Score maps a risk list to a 0-100 quality score: 100 minus the fixed
// per-severity deduction for each risk, clamped at 0. Order-independent;
// no multiplicative penalties.
func Score(risks []model.Risk) int {
	score := 100
	for _, r := range risks {
		score -= r.Severity.Deduction()
	}
	if score < 0 {
		score = 0
	}
	return score
}
