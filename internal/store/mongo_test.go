package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/rce-engine/analysis-worker/internal/model"
)

func TestReportUpdateShape(t *testing.T) {
	t.Parallel()

	report := &model.Report{Score: 80, Complexity: model.ComplexityLow, Language: "python"}
	now := time.Date(2026, 8, 1, 12, 0, 0, 123456789, time.UTC)

	update := reportUpdate(report, now)
	set, ok := update["$set"].(bson.M)
	require.True(t, ok)

	assert.Len(t, set, 2)
	assert.Same(t, report, set["analysisReport"])
	assert.Equal(t, "2026-08-01T12:00:00.123456789Z", set["analyzedAt"])
}

// Writing the same report twice only varies analyzedAt; the analysis content
// itself is byte-for-byte identical, which is what makes retries and
// duplicate deliveries safe.
func TestReportUpdateIdempotentContent(t *testing.T) {
	t.Parallel()

	report := &model.Report{
		Score:       75,
		Complexity:  model.ComplexityLow,
		Language:    "python",
		Metrics:     model.Metrics{model.MetricImports: 1},
		Risks:       []model.Risk{{Kind: "dangerous_call", Severity: model.High, Line: 2}},
		Suggestions: []string{},
	}

	first := reportUpdate(report, time.Now().UTC())
	second := reportUpdate(report, time.Now().UTC().Add(time.Minute))

	firstDoc, err := bson.Marshal(first["$set"].(bson.M)["analysisReport"].(*model.Report))
	require.NoError(t, err)
	secondDoc, err := bson.Marshal(second["$set"].(bson.M)["analysisReport"].(*model.Report))
	require.NoError(t, err)

	assert.Equal(t, firstDoc, secondDoc)
	assert.NotEqual(t,
		first["$set"].(bson.M)["analyzedAt"],
		second["$set"].(bson.M)["analyzedAt"])
}
