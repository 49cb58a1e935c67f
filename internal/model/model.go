// Package model defines core data structures for the analysis worker.
package model

// Severity labels how serious a detected risk is. It is used for display
// and as a key into the score deduction table, never compared numerically.
type Severity string

const (
	Critical Severity = "critical"
	High     Severity = "high"
	Medium   Severity = "medium"
	Low      Severity = "low"
	Info     Severity = "info"
)

func (s Severity) Valid() bool {
	switch s {
	case Critical, High, Medium, Low, Info:
		return true
	}
	return false
}

// Deduction returns the fixed score penalty for one risk of this severity.
func (s Severity) Deduction() int {
	switch s {
	case Critical:
		return 30
	case High:
		return 20
	case Medium:
		return 10
	case Low:
		return 5
	}
	return 0
}

// Complexity is the qualitative complexity class of an analyzed snippet.
type Complexity string

const (
	ComplexityLow     Complexity = "Low"
	ComplexityMedium  Complexity = "Medium"
	ComplexityHigh    Complexity = "High"
	ComplexityError   Complexity = "Error"
	ComplexityUnknown Complexity = "Unknown"
)

// Risk is one detected concern. Immutable once created.
type Risk struct {
	Kind     string   `json:"type" bson:"type"`
	Message  string   `json:"message" bson:"message"`
	Severity Severity `json:"level" bson:"level"`
	// Line is 1-based; 0 means the risk could not be located.
	Line int `json:"line" bson:"line"`
}

// Metrics maps per-variant counter names to non-negative counts. The key set
// differs between the structural and pattern variants on purpose: the
// heuristic variant cannot measure everything the exact one can.
type Metrics map[string]int

// Metric keys shared by the analysis variants.
const (
	MetricFunctions    = "functions"
	MetricClasses      = "classes"
	MetricLoops        = "loops"
	MetricConditionals = "conditionals"
	MetricImports      = "imports"
	MetricTryBlocks    = "try_blocks"
	MetricLinesOfCode  = "lines_of_code"
	MetricSyntaxError  = "syntax_error"
)

// Report is the complete analysis result for one submitted snippet.
// AnalysisTimeMs is attached by the consumer loop, not the engine.
type Report struct {
	Score          int        `json:"score" bson:"score"`
	Complexity     Complexity `json:"complexity" bson:"complexity"`
	Language       string     `json:"language" bson:"language"`
	Metrics        Metrics    `json:"metrics" bson:"metrics"`
	Risks          []Risk     `json:"risks" bson:"risks"`
	Suggestions    []string   `json:"suggestions" bson:"suggestions"`
	AnalysisTimeMs float64    `json:"analysisTimeMs" bson:"analysisTimeMs"`
}

// Job is one analysis request consumed from the broker. All fields are
// required; envelopes missing any are dropped by the consumer.
type Job struct {
	JobID    string `json:"jobId" validate:"required"`
	Language string `json:"language" validate:"required"`
	Code     string `json:"code" validate:"required"`
}
