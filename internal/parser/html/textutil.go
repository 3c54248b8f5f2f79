// Package html holds small text helpers for scraped registry pages. The
// court-registry extracts mix regular spaces, tabs and non-breaking spaces
// and spell fields as "Label: value" runs, so most callers normalize text
// first and then cut labels off.
package html

import (
	"strings"
	"unicode"
)

// CollapseWhitespace replaces runs of whitespace (including U+00A0) with a
// single ASCII space and trims both ends.
func CollapseWhitespace(s string) string {
	if s == "" {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	seenSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !seenSpace {
				b.WriteByte(' ')
				seenSpace = true
			}
			continue
		}
		b.WriteRune(r)
		seenSpace = false
	}

	return strings.TrimSpace(b.String())
}

// CutLabel reports whether s starts with label, ignoring case and
// surrounding whitespace, and returns the trimmed remainder.
//
//	CutLabel("Den vzniku funkce: 1. ledna 2010", "den vzniku funkce:")
//	  -> "1. ledna 2010", true
func CutLabel(s, label string) (string, bool) {
	s = CollapseWhitespace(s)
	label = CollapseWhitespace(label)
	if label == "" || len(s) < len(label) {
		return "", false
	}
	if !strings.EqualFold(s[:len(label)], label) {
		return "", false
	}
	return strings.TrimSpace(s[len(label):]), true
}

// ExtractBetween returns the substring of s between start and end.
//
//   - An empty start means the beginning of s; otherwise extraction begins
//     right after the first occurrence of start.
//   - An empty end means the end of s; otherwise extraction stops before the
//     first occurrence of end after start.
//
// The boolean result is true only when a non-empty span was found.
func ExtractBetween(s, start, end string) (string, bool) {
	from := 0
	if start != "" {
		idx := strings.Index(s, start)
		if idx == -1 {
			return "", false
		}
		from = idx + len(start)
	}

	to := len(s)
	if end != "" {
		rel := strings.Index(s[from:], end)
		if rel == -1 {
			return "", false
		}
		to = from + rel
	}

	if from >= to {
		return "", false
	}
	return s[from:to], true
}
