package review

import (
	"fmt"
	"strings"

	"github.com/XiaoConstantine/scrutiny/internal/chunk"
)

const systemPrompt = `You are an experienced code reviewer. You receive a unified diff and
report concrete, actionable issues in the changed code only.

Focus on correctness, security, resource handling and error handling.
Do not comment on style preferences, formatting, or unchanged code.
Line numbers always refer to the new version of the file.

Respond with a single JSON object and nothing else:

{
  "summary": "one-paragraph overview of the change",
  "findings": [
    {
      "file": "path/to/file",
      "line": 42,
      "severity": "critical|warning|suggestion|nitpick",
      "category": "short-category",
      "comment": "what is wrong and why it matters",
      "suggestion": "replacement line (optional)"
    }
  ],
  "recommendation": "approve|request-changes|comment"
}

An empty findings array with recommendation "approve" is a valid
answer for a clean change.`

// buildUserPrompt renders one chunk as the model's user message.
func buildUserPrompt(c chunk.Chunk) string {
	var sb strings.Builder
	sb.WriteString("Review the following change set.\n\nFiles in this batch:\n")
	for _, fd := range c.Files {
		fmt.Fprintf(&sb, "- %s (+%d/-%d)\n", fd.NewPath, fd.Additions, fd.Deletions)
	}
	sb.WriteString("\nDiff:\n```diff\n")
	sb.WriteString(c.Diff)
	if !strings.HasSuffix(c.Diff, "\n") {
		sb.WriteByte('\n')
	}
	sb.WriteString("```\n")
	return sb.String()
}

// formatCommentBody renders a finding as the posted comment text.
func formatCommentBody(f Finding) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s**", strings.ToUpper(string(f.Severity)))
	if f.Category != "" {
		fmt.Fprintf(&sb, " (%s)", f.Category)
	}
	sb.WriteString(": ")
	sb.WriteString(f.Comment)
	if f.Suggestion != "" {
		sb.WriteString("\n\n```suggestion\n")
		sb.WriteString(f.Suggestion)
		if !strings.HasSuffix(f.Suggestion, "\n") {
			sb.WriteByte('\n')
		}
		sb.WriteString("```")
	}
	return sb.String()
}
