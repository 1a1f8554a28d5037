// Package chunk splits an oversized change set into size-bounded,
// file-aligned slices for independent model submission.
package chunk

import (
	"strings"

	"github.com/XiaoConstantine/scrutiny/internal/diff"
)

// Chunk is one slice of a change set: the diff text for a group of
// files plus the parsed FileDiff entries it covers, in original order.
// A file is never split across two chunks.
type Chunk struct {
	Diff  string
	Files []*diff.FileDiff
}

// Split packs the diff into chunks whose text stays within maxBytes.
// A diff already within budget becomes a single chunk. Fragments are
// packed greedily in order; a single fragment larger than maxBytes is
// kept whole in its own chunk rather than truncated, preserving file
// atomicity. Concatenating the chunks' diff text reproduces the input.
func Split(diffText string, files []*diff.FileDiff, maxBytes int) []Chunk {
	if diffText == "" {
		return nil
	}
	if maxBytes <= 0 || len(diffText) <= maxBytes {
		return []Chunk{{Diff: diffText, Files: files}}
	}

	sections := SplitSections(diffText)
	if len(sections) == 0 {
		return []Chunk{{Diff: diffText, Files: files}}
	}

	byPath := make(map[string]*diff.FileDiff, len(files))
	for _, fd := range files {
		byPath[fd.NewPath] = fd
	}

	var (
		chunks       []Chunk
		current      strings.Builder
		currentFiles []*diff.FileDiff
	)
	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunks = append(chunks, Chunk{Diff: current.String(), Files: currentFiles})
		current.Reset()
		currentFiles = nil
	}

	for i, sec := range sections {
		if current.Len() > 0 && current.Len()+len(sec) > maxBytes {
			flush()
		}
		current.WriteString(sec)

		fd := byPath[SectionPath(sec)]
		if fd == nil && i < len(files) {
			fd = files[i]
		}
		if fd != nil {
			currentFiles = append(currentFiles, fd)
		}
	}
	flush()

	return chunks
}

// SplitSections cuts raw diff text at file-header boundaries. Any
// preamble before the first header stays attached to the first
// section, so concatenating the sections reproduces the input exactly.
func SplitSections(diffText string) []string {
	if diffText == "" {
		return nil
	}
	var sections []string
	var current strings.Builder

	rest := diffText
	for {
		line, tail, more := cutLine(rest)
		if strings.HasPrefix(line, "diff --git ") && current.Len() > 0 {
			sections = append(sections, current.String())
			current.Reset()
		}
		current.WriteString(line)
		if !more {
			break
		}
		current.WriteByte('\n')
		rest = tail
	}
	if current.Len() > 0 {
		sections = append(sections, current.String())
	}
	return sections
}

// SectionPath extracts the new-file path from a section's file header,
// or "" when the section has no recognizable header.
func SectionPath(section string) string {
	for _, line := range strings.Split(section, "\n") {
		if strings.HasPrefix(line, "+++ b/") {
			return strings.TrimPrefix(line, "+++ b/")
		}
		if strings.HasPrefix(line, "diff --git a/") {
			if idx := strings.Index(line, " b/"); idx >= 0 {
				return line[idx+len(" b/"):]
			}
		}
	}
	return ""
}

func cutLine(s string) (line, rest string, more bool) {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx], s[idx+1:], true
	}
	return s, "", false
}
