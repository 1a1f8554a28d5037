package review

import (
	"testing"

	"github.com/XiaoConstantine/scrutiny/internal/config"
	"github.com/XiaoConstantine/scrutiny/internal/platform"
	"github.com/stretchr/testify/assert"
)

func TestSeverityOrdering(t *testing.T) {
	assert.Greater(t, SeverityCritical.Rank(), SeverityWarning.Rank())
	assert.Greater(t, SeverityWarning.Rank(), SeveritySuggestion.Rank())
	assert.Greater(t, SeveritySuggestion.Rank(), SeverityNitpick.Rank())
	assert.Greater(t, SeverityNitpick.Rank(), Severity("bogus").Rank())
}

func TestParseSeverity(t *testing.T) {
	assert.Equal(t, SeverityWarning, ParseSeverity(" Warning "))
	assert.Equal(t, SeverityCritical, ParseSeverity("CRITICAL"))
}

func TestFilterBySeverityThreshold(t *testing.T) {
	cfg := config.Default()
	cfg.Severity = config.SeverityGates{Critical: true, Warning: true, Suggestion: true, Nitpick: true}
	cfg.SeverityThreshold = config.ThresholdConfig{Enabled: true, MinSeverityToComment: "warning"}

	in := []Finding{
		{File: "a.go", Severity: SeverityCritical},
		{File: "b.go", Severity: SeverityWarning},
		{File: "c.go", Severity: SeveritySuggestion},
		{File: "d.go", Severity: SeverityNitpick},
	}
	out := filterBySeverity(in, cfg)
	assert.Len(t, out, 2)
	assert.Equal(t, SeverityCritical, out[0].Severity)
	assert.Equal(t, SeverityWarning, out[1].Severity)
}

func TestFilterBySeverityGates(t *testing.T) {
	cfg := config.Default()
	cfg.Severity.Nitpick = false
	cfg.SeverityThreshold.Enabled = false

	out := filterBySeverity([]Finding{
		{Severity: SeverityNitpick},
		{Severity: SeveritySuggestion},
	}, cfg)
	assert.Len(t, out, 1)
	assert.Equal(t, SeveritySuggestion, out[0].Severity)
}

func TestAggregateRecommendationEscalatesOnCritical(t *testing.T) {
	rec := aggregateRecommendation(
		[]platform.Recommendation{platform.RecommendApprove},
		[]Finding{{Severity: SeverityCritical}})
	assert.Equal(t, platform.RecommendRequestChanges, rec)
}

func TestAggregateRecommendation(t *testing.T) {
	assert.Equal(t, platform.RecommendApprove,
		aggregateRecommendation([]platform.Recommendation{platform.RecommendApprove}, nil))
	assert.Equal(t, platform.RecommendComment,
		aggregateRecommendation([]platform.Recommendation{platform.RecommendApprove},
			[]Finding{{Severity: SeverityWarning}}))
	assert.Equal(t, platform.RecommendRequestChanges,
		aggregateRecommendation([]platform.Recommendation{platform.RecommendRequestChanges},
			[]Finding{{Severity: SeverityWarning}}))
}

func TestNormalizeRecommendation(t *testing.T) {
	assert.Equal(t, platform.RecommendApprove, normalizeRecommendation("Approve"))
	assert.Equal(t, platform.RecommendApprove, normalizeRecommendation("LGTM"))
	assert.Equal(t, platform.RecommendRequestChanges, normalizeRecommendation("request_changes"))
	assert.Equal(t, platform.RecommendRequestChanges, normalizeRecommendation("request-changes"))
	assert.Equal(t, platform.RecommendComment, normalizeRecommendation("whatever"))
	assert.Equal(t, platform.RecommendComment, normalizeRecommendation(""))
}

func TestFormatCommentBody(t *testing.T) {
	body := formatCommentBody(Finding{
		Severity:   SeverityWarning,
		Category:   "error-handling",
		Comment:    "Unchecked error.",
		Suggestion: "if err != nil { return err }",
	})
	assert.Contains(t, body, "**WARNING** (error-handling): Unchecked error.")
	assert.Contains(t, body, "```suggestion\nif err != nil { return err }\n```")
}
