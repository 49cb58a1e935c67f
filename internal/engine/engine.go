// Package engine assembles analysis reports. It selects a language variant,
// runs it, and derives the score, complexity class and suggestions from the
// raw result. Analysis never fails: unsupported languages and unparseable
// snippets both yield well-formed reports.
package engine

import (
	"fmt"

	"github.com/rce-engine/analysis-worker/internal/lang"
	"github.com/rce-engine/analysis-worker/internal/model"
)

// Analyze produces the complete report for one submitted snippet. The
// report's Language field is always the selector that routed the request,
// exactly as received.
func Analyze(language, code string) *model.Report {
	v := lang.ForName(language)
	if v == nil {
		// Neutral pass-through: unknown languages are not an error.
		return &model.Report{
			Score:       100,
			Complexity:  model.ComplexityUnknown,
			Language:    language,
			Metrics:     model.Metrics{},
			Risks:       []model.Risk{},
			Suggestions: []string{fmt.Sprintf("Analysis not supported for language: %s", language)},
		}
	}

	res := v.Analyze(code)
	if res.Risks == nil {
		// Keep risks/suggestions as empty arrays, never null, in the
		// serialized report.
		res.Risks = []model.Risk{}
	}
	if res.SyntaxError {
		return &model.Report{
			Score:       0,
			Complexity:  model.ComplexityError,
			Language:    language,
			Metrics:     res.Metrics,
			Risks:       res.Risks,
			Suggestions: []string{},
		}
	}

	suggestions := Suggest(v, res.Metrics, res.Risks)
	if suggestions == nil {
		suggestions = []string{}
	}

	return &model.Report{
		Score:       Score(res.Risks),
		Complexity:  Classify(res.Metrics, v.ComplexityKeys),
		Language:    language,
		Metrics:     res.Metrics,
		Risks:       res.Risks,
		Suggestions: suggestions,
	}
}
