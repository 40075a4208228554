// Package chunker splits long paragraphs into translatable chunks while
// preserving sentence integrity, so a single engine call never exceeds the
// backend's practical input size.
package chunker

import (
	"strings"
	"unicode"
)

// Chunk splits text into pieces each no longer than maxChars unicode code
// points. Splits are attempted (in order of preference) at:
//  1. Paragraph boundaries (\n\n)
//  2. Sentence-ending punctuation (. ! ?) followed by whitespace
//  3. Whitespace (word boundary)
//  4. Hard cut at maxChars if no suitable boundary is found
//
// If text fits entirely within maxChars, a single-element slice is
// returned. maxChars <= 0 is treated as unlimited.
func Chunk(text string, maxChars int) []string {
	if maxChars <= 0 || len([]rune(text)) <= maxChars {
		return []string{text}
	}

	var chunks []string
	remaining := text

	for len([]rune(remaining)) > maxChars {
		split := findSplit(remaining, maxChars)
		if chunk := strings.TrimSpace(remaining[:split]); chunk != "" {
			chunks = append(chunks, chunk)
		}
		remaining = strings.TrimSpace(remaining[split:])
	}
	if remaining = strings.TrimSpace(remaining); remaining != "" {
		chunks = append(chunks, remaining)
	}

	return chunks
}

// findSplit returns the byte index at which to split text, aiming for at
// most maxChars runes, searching backwards for the best boundary.
func findSplit(text string, maxChars int) int {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return len(text)
	}
	candidate := runes[:maxChars]

	// Paragraph boundary.
	if idx := strings.LastIndex(string(candidate), "\n\n"); idx > 0 {
		return idx + 2
	}

	// Sentence end followed by whitespace.
	for i := len(candidate) - 1; i > 0; i-- {
		r := candidate[i]
		if (r == '.' || r == '!' || r == '?') && i+1 < len(candidate) && unicode.IsSpace(candidate[i+1]) {
			return len(string(candidate[:i+1]))
		}
	}

	// Word boundary.
	for i := len(candidate) - 1; i > 0; i-- {
		if unicode.IsSpace(candidate[i]) {
			return len(string(candidate[:i]))
		}
	}

	// Hard cut.
	return len(string(candidate))
}
