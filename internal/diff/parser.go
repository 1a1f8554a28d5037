// Package diff parses unified-diff text into an addressable per-file
// model and maps review findings onto platform comment anchors.
package diff

import (
	"regexp"
	"strings"
)

// ChangeKind classifies a single diff line.
type ChangeKind string

const (
	ChangeAdd     ChangeKind = "add"
	ChangeDelete  ChangeKind = "delete"
	ChangeContext ChangeKind = "context"
)

// Change is one line of a hunk. OldLine is set for delete/context
// changes, NewLine for add/context changes; the unused side is 0.
type Change struct {
	Kind    ChangeKind
	Content string
	OldLine int
	NewLine int
}

// Hunk is a contiguous changed region of one file.
type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Header   string
	Changes  []Change
}

// FileDiff holds all hunks for one file of a change set, identified by
// its (OldPath, NewPath) pair. Additions and Deletions equal the sum of
// add and delete changes across the hunks.
type FileDiff struct {
	OldPath   string
	NewPath   string
	Hunks     []Hunk
	Additions int
	Deletions int
}

var (
	fileHeaderRe = regexp.MustCompile(`^diff --git a/(.+) b/(.+)$`)
	hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@(.*)$`)
)

// Metadata lines that may appear between a file header and its first
// hunk. They are recognized and skipped without altering parse state.
var metadataPrefixes = []string{
	"index ",
	"old mode",
	"new mode",
	"new file mode",
	"deleted file mode",
	"similarity index",
	"dissimilarity index",
	"rename from",
	"rename to",
	"copy from",
	"copy to",
	"Binary files",
	"GIT binary patch",
	`\ No newline`,
}

// Parse scans unified-diff text into an ordered list of FileDiff,
// one per file section, in order of first appearance. Malformed hunk
// headers are ignored: no hunk is opened and subsequent content lines
// are dropped until the next recognized marker. A file section with no
// valid hunks still yields a FileDiff with zero counts.
func Parse(diffText string) []*FileDiff {
	if diffText == "" {
		return nil
	}

	var (
		result      []*FileDiff
		currentFile *FileDiff
		currentHunk *Hunk
		oldLine     int
		newLine     int
	)

	flushHunk := func() {
		if currentFile != nil && currentHunk != nil {
			currentFile.Hunks = append(currentFile.Hunks, *currentHunk)
		}
		currentHunk = nil
	}
	flushFile := func() {
		flushHunk()
		if currentFile != nil {
			result = append(result, currentFile)
		}
		currentFile = nil
	}

	for _, line := range strings.Split(diffText, "\n") {
		if m := fileHeaderRe.FindStringSubmatch(line); m != nil {
			flushFile()
			currentFile = &FileDiff{OldPath: m[1], NewPath: m[2]}
			continue
		}

		if isMetadataLine(line) {
			continue
		}
		// Path markers are metadata only between hunks; inside a hunk a
		// deleted line may legitimately start with "--".
		if currentHunk == nil && (strings.HasPrefix(line, "--- ") || strings.HasPrefix(line, "+++ ")) {
			continue
		}

		if strings.HasPrefix(line, "@@") {
			flushHunk()
			m := hunkHeaderRe.FindStringSubmatch(line)
			if m == nil || currentFile == nil {
				// Malformed header: drop content until the next marker.
				continue
			}
			currentHunk = &Hunk{
				OldStart: atoiDefault(m[1], 0),
				OldLines: atoiDefault(m[2], 1),
				NewStart: atoiDefault(m[3], 0),
				NewLines: atoiDefault(m[4], 1),
				Header:   strings.TrimSpace(m[5]),
			}
			oldLine = currentHunk.OldStart
			newLine = currentHunk.NewStart
			continue
		}

		if currentHunk == nil {
			continue
		}

		switch {
		case strings.HasPrefix(line, "+"):
			currentHunk.Changes = append(currentHunk.Changes, Change{
				Kind:    ChangeAdd,
				Content: line[1:],
				NewLine: newLine,
			})
			newLine++
			currentFile.Additions++
		case strings.HasPrefix(line, "-"):
			currentHunk.Changes = append(currentHunk.Changes, Change{
				Kind:    ChangeDelete,
				Content: line[1:],
				OldLine: oldLine,
			})
			oldLine++
			currentFile.Deletions++
		case strings.HasPrefix(line, " "):
			currentHunk.Changes = append(currentHunk.Changes, Change{
				Kind:    ChangeContext,
				Content: line[1:],
				OldLine: oldLine,
				NewLine: newLine,
			})
			oldLine++
			newLine++
		default:
			// Unrecognized leading character, ignore.
		}
	}

	flushFile()
	return result
}

func isMetadataLine(line string) bool {
	for _, prefix := range metadataPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
