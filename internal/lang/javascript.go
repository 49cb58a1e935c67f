package lang

import (
	"strings"

	"github.com/rce-engine/analysis-worker/internal/catalog"
	"github.com/rce-engine/analysis-worker/internal/model"
)

func init() {
	register(&Variant{
		Name:    "javascript",
		Aliases: []string{"js"},
		Analyze: analyzeJavaScript,
		ComplexityKeys: []string{
			model.MetricConditionals,
			model.MetricLoops,
		},
	})
}

// analyzeJavaScript performs heuristic analysis with independently compiled
// patterns. Counts may over- or undercount (nested matches, no semantic
// de-duplication); that imprecision is accepted for this variant.
func analyzeJavaScript(code string) *Result {
	metrics := model.Metrics{
		model.MetricFunctions:    len(catalog.JavaScriptFunctionRe.FindAllStringIndex(code, -1)),
		model.MetricClasses:      len(catalog.JavaScriptClassRe.FindAllStringIndex(code, -1)),
		model.MetricLoops:        len(catalog.JavaScriptLoopRe.FindAllStringIndex(code, -1)),
		model.MetricConditionals: len(catalog.JavaScriptConditionalRe.FindAllStringIndex(code, -1)),
		model.MetricLinesOfCode:  countCodeLines(code, "//"),
	}

	var risks []model.Risk
	for _, p := range catalog.JavaScriptPatterns {
		for _, loc := range p.Regexp.FindAllStringIndex(code, -1) {
			risks = append(risks, model.Risk{
				Kind:     "dangerous_pattern",
				Message:  p.Message,
				Severity: p.Severity,
				Line:     lineAt(code, loc[0]),
			})
		}
	}

	// Whole-file flag: one unlocated risk no matter how many spin sites.
	if catalog.JavaScriptSpinRe.MatchString(code) {
		risks = append(risks, model.Risk{
			Kind:     "infinite_loop",
			Message:  "Potential infinite loop detected (while(true))",
			Severity: model.Medium,
			Line:     0,
		})
	}

	return &Result{Metrics: metrics, Risks: risks}
}

// lineAt returns the 1-based line of a byte offset: the number of newlines
// before it, plus one.
func lineAt(code string, offset int) int {
	return strings.Count(code[:offset], "\n") + 1
}
