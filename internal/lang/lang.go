// Package lang provides a registry of language analysis variants. Each
// supported language registers a Variant describing how its snippets are
// analyzed; selection is a table lookup on the normalized selector string,
// never a conditional chain.
package lang

import (
	"strings"

	"github.com/rce-engine/analysis-worker/internal/model"
)

// Result is the raw outcome of one variant run: what was measured and what
// was flagged. Scoring, classification and suggestions happen downstream.
type Result struct {
	Metrics model.Metrics
	Risks   []model.Risk

	// SyntaxError is set by the structural variant when the input failed to
	// parse. Metrics then holds only {syntax_error:1} and Risks exactly one
	// entry describing the failure.
	SyntaxError bool
}

// Variant holds the analysis configuration for one supported language.
type Variant struct {
	Name    string
	Aliases []string

	// Analyze runs one full pass over the snippet. It never fails: parse
	// errors are reported through Result.SyntaxError.
	Analyze func(code string) *Result

	// ComplexityKeys lists the metric keys summed into the complexity class.
	// The sets differ between variants: the pattern variant has no reliable
	// exception-block signal, so it sums fewer counters.
	ComplexityKeys []string

	// TracksTryBlocks reports whether the variant measures exception
	// handling at all; the error-handling suggestion only applies when the
	// absence of try blocks is an actual observation.
	TracksTryBlocks bool

	// SuggestMissingFunctions enables the organize-into-functions rule
	// (structural variant only).
	SuggestMissingFunctions bool
}

// Variants maps normalized language selectors to their configuration.
// Populated by init() functions in per-language files.
var Variants = map[string]*Variant{}

func register(v *Variant) {
	Variants[v.Name] = v
	for _, a := range v.Aliases {
		Variants[a] = v
	}
}

// ForName returns the variant for a language selector, or nil if the
// language is unsupported. Matching is case-insensitive.
func ForName(selector string) *Variant {
	return Variants[strings.ToLower(strings.TrimSpace(selector))]
}

// countCodeLines counts non-blank lines that are not full-line comments.
// linePrefix is the language's line-comment marker.
func countCodeLines(code, linePrefix string) int {
	n := 0
	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, linePrefix) {
			continue
		}
		n++
	}
	return n
}
