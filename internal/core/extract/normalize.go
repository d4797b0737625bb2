// Package extract pulls structured fields out of raw receipt text. OCR
// output is noisy, so every extractor works on a normalized view: trimmed
// lines with collapsed whitespace, plus a single joined string for
// substring scans.
package extract

import "strings"

// Lines splits raw text into lines, tolerating CRLF endings.
func Lines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

// Normalize trims every line and collapses internal whitespace runs to a
// single space. Line order and count are preserved so later stages can
// still reason about line-level context.
func Normalize(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = strings.Join(strings.Fields(line), " ")
	}
	return out
}

// JoinLines concatenates normalized lines into one search string. Empty
// lines are dropped; the rest are separated by single spaces.
func JoinLines(lines []string) string {
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}

// Snippet returns at most max runes of text for storage and reporting,
// marking truncation with an ellipsis.
func Snippet(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
