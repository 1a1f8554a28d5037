// Package review orchestrates one automated change-set review: cache
// check, diff filtering, chunked model calls, severity filtering,
// duplicate suppression, anchor resolution and posting.
package review

import (
	"strings"

	"github.com/XiaoConstantine/scrutiny/internal/config"
	"github.com/XiaoConstantine/scrutiny/internal/platform"
)

// Severity ranks a finding. The order is total:
// nitpick < suggestion < warning < critical.
type Severity string

const (
	SeverityCritical   Severity = "critical"
	SeverityWarning    Severity = "warning"
	SeveritySuggestion Severity = "suggestion"
	SeverityNitpick    Severity = "nitpick"
)

// Rank returns the numeric order of a severity; unknown values rank
// below nitpick so they never survive a threshold.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityWarning:
		return 3
	case SeveritySuggestion:
		return 2
	case SeverityNitpick:
		return 1
	default:
		return 0
	}
}

// ParseSeverity normalizes a model-reported severity string.
func ParseSeverity(s string) Severity {
	return Severity(strings.ToLower(strings.TrimSpace(s)))
}

// Finding is one model-reported issue, addressed by new-file line.
type Finding struct {
	File       string   `json:"file"`
	Line       int      `json:"line"`
	Severity   Severity `json:"severity"`
	Category   string   `json:"category"`
	Comment    string   `json:"comment"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// ReviewBatch is the structured output of one chunk's model call.
type ReviewBatch struct {
	Summary        string    `json:"summary"`
	Findings       []Finding `json:"findings"`
	Recommendation string    `json:"recommendation"`
}

// normalizeRecommendation maps the model's free-form recommendation
// string onto the platform tri-state, defaulting to comment.
func normalizeRecommendation(s string) platform.Recommendation {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approve", "approved", "lgtm":
		return platform.RecommendApprove
	case "request-changes", "request_changes", "request changes":
		return platform.RecommendRequestChanges
	default:
		return platform.RecommendComment
	}
}

// gateAllows reports whether the configured severity gates permit
// posting a finding of severity s at all.
func gateAllows(s Severity, gates config.SeverityGates) bool {
	switch s {
	case SeverityCritical:
		return gates.Critical
	case SeverityWarning:
		return gates.Warning
	case SeveritySuggestion:
		return gates.Suggestion
	case SeverityNitpick:
		return gates.Nitpick
	default:
		return false
	}
}

// filterBySeverity applies the per-severity gates and, when enabled,
// the minimum-severity threshold. Order is preserved.
func filterBySeverity(findings []Finding, cfg config.Config) []Finding {
	minRank := 0
	if cfg.SeverityThreshold.Enabled {
		minRank = ParseSeverity(cfg.SeverityThreshold.MinSeverityToComment).Rank()
	}

	kept := make([]Finding, 0, len(findings))
	for _, f := range findings {
		if !gateAllows(f.Severity, cfg.Severity) {
			continue
		}
		if f.Severity.Rank() < minRank {
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

// aggregateRecommendation folds per-chunk recommendations and the
// surviving findings into one verdict. Any critical finding escalates
// to request-changes unconditionally.
func aggregateRecommendation(recs []platform.Recommendation, findings []Finding) platform.Recommendation {
	for _, f := range findings {
		if f.Severity == SeverityCritical {
			return platform.RecommendRequestChanges
		}
	}
	for _, r := range recs {
		if r == platform.RecommendRequestChanges {
			return platform.RecommendRequestChanges
		}
	}
	if len(findings) == 0 {
		return platform.RecommendApprove
	}
	return platform.RecommendComment
}
