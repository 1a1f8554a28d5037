// Package jsonrepair recovers structurally broken JSON returned by a
// generative model. Repair is an ordered ladder of pure text
// transformations; well-formed input never pays for the expensive
// character scans further down.
package jsonrepair

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// maxErrorPrefix bounds how much of the offending text a ParseFailure
// carries for diagnostics.
const maxErrorPrefix = 240

// ParseFailure is returned after every repair strategy has been
// exhausted. It wraps the original decode error together with a
// bounded prefix of the offending text.
type ParseFailure struct {
	Err    error
	Prefix string
}

func (e *ParseFailure) Error() string {
	return fmt.Sprintf("model response is not repairable JSON: %v (starts with %q)", e.Err, e.Prefix)
}

func (e *ParseFailure) Unwrap() error { return e.Err }

type strategy struct {
	name  string
	apply func(string) string
}

// Strategies run in order; each receives the text as cleaned by the
// previous stage so later stages never re-fight defects an earlier
// stage already removed.
var strategies = []strategy{
	{name: "direct", apply: func(s string) string { return s }},
	{name: "scrub", apply: scrub},
	{name: "escape-quotes", apply: escapeInnerQuotes},
	{name: "close-truncated", apply: closeTruncated},
}

// Repair returns the first strategy-transformed variant of text that
// decodes as JSON. On total failure it returns a ParseFailure wrapping
// the original decode error.
func Repair(text string) ([]byte, error) {
	var firstErr error
	current := text
	for _, s := range strategies {
		current = s.apply(current)
		var probe interface{}
		if err := json.Unmarshal([]byte(current), &probe); err == nil {
			return []byte(current), nil
		} else if firstErr == nil {
			firstErr = err
		}
	}
	prefix := text
	if len(prefix) > maxErrorPrefix {
		prefix = prefix[:maxErrorPrefix]
	}
	return nil, &ParseFailure{Err: firstErr, Prefix: prefix}
}

// Unmarshal repairs text and decodes the result into v.
func Unmarshal(text string, v interface{}) error {
	data, err := Repair(text)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

// scrub trims the text to the substring between the first '{' and the
// last '}', strips non-printable control characters (newline, tab and
// carriage return survive), and removes trailing commas before a
// closing bracket.
func scrub(text string) string {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	var sb strings.Builder
	sb.Grow(len(text))
	for _, r := range text {
		if r < 0x20 && r != '\n' && r != '\t' && r != '\r' {
			continue
		}
		sb.WriteRune(r)
	}

	return trailingCommaRe.ReplaceAllString(sb.String(), "$1")
}

// escapeInnerQuotes re-scans the text tracking string-literal state.
// A quote inside a string only terminates it when the next significant
// character could legally follow a string; otherwise it is treated as
// an unescaped internal quote and emitted escaped. Raw newlines and
// tabs inside strings are emitted in escaped form.
func escapeInnerQuotes(text string) string {
	var sb strings.Builder
	sb.Grow(len(text) + 16)

	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]

		if !inString {
			if c == '"' {
				inString = true
			}
			sb.WriteByte(c)
			continue
		}

		if escaped {
			sb.WriteByte(c)
			escaped = false
			continue
		}

		switch c {
		case '\\':
			sb.WriteByte(c)
			escaped = true
		case '"':
			if quoteTerminates(text, i+1) {
				inString = false
				sb.WriteByte(c)
			} else {
				sb.WriteString(`\"`)
			}
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteByte(c)
		}
	}

	return sb.String()
}

// quoteTerminates reports whether a quote at position-1 can be a
// string terminator: the next significant character must be one that
// legally follows a string value or key, or end of input.
func quoteTerminates(text string, from int) bool {
	for i := from; i < len(text); i++ {
		switch text[i] {
		case ' ', '\n', '\t', '\r':
			continue
		case ':', ',', ']', '}':
			return true
		default:
			return false
		}
	}
	return true
}

// closeTruncated assumes the text was cut off mid-stream: it replays
// the text tracking a stack of open brackets (ignoring brackets inside
// string literals), closes a dangling string, then closes every
// unclosed bracket innermost first.
func closeTruncated(text string) string {
	var stack []byte
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			if escaped {
				escaped = false
				continue
			}
			switch c {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}':
			if len(stack) > 0 && stack[len(stack)-1] == '{' {
				stack = stack[:len(stack)-1]
			}
		case ']':
			if len(stack) > 0 && stack[len(stack)-1] == '[' {
				stack = stack[:len(stack)-1]
			}
		}
	}

	var sb strings.Builder
	sb.WriteString(text)
	if inString {
		sb.WriteByte('"')
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			sb.WriteByte('}')
		} else {
			sb.WriteByte(']')
		}
	}
	return sb.String()
}
