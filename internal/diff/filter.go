package diff

import "strings"

// Inline markers that exclude content from review. Matched by
// substring so they work from any comment syntax.
const (
	markerIgnoreFile = "scrutiny-ignore-file"
	markerIgnoreNext = "scrutiny-ignore-next-line"
	markerIgnoreLine = "scrutiny-ignore"
)

// StripIgnored removes marker-carrying lines from raw diff text before
// parsing. Three scopes: a line marker drops its own line, a next-line
// marker also drops the following line, and a file marker drops
// everything for that file until the next file header. Applied as a
// single forward scan.
func StripIgnored(diffText string) string {
	if diffText == "" {
		return diffText
	}

	lines := strings.Split(diffText, "\n")
	kept := make([]string, 0, len(lines))

	skipFile := false
	skipNext := false

	for _, line := range lines {
		if strings.HasPrefix(line, "diff --git ") {
			skipFile = false
			skipNext = false
			kept = append(kept, line)
			continue
		}
		if skipFile {
			continue
		}
		if skipNext {
			skipNext = false
			continue
		}

		switch {
		case strings.Contains(line, markerIgnoreFile):
			skipFile = true
		case strings.Contains(line, markerIgnoreNext):
			skipNext = true
		case strings.Contains(line, markerIgnoreLine):
			// Drop just this line.
		default:
			kept = append(kept, line)
		}
	}

	return strings.Join(kept, "\n")
}
