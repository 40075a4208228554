// Package cleaner normalizes the typographic artifacts that page-based text
// extraction leaves behind: hard line wraps inside paragraphs, hyphenated
// word breaks, and recurring page furniture (running headers, footers, page
// numbers). Clean is idempotent; re-running it on cleaned text is a no-op.
package cleaner

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const (
	// recurThreshold is the number of distinct units a verbatim line must
	// appear in before it is treated as page furniture and stripped.
	recurThreshold = 3

	// maxFurnitureLen caps the rune length of a strippable line. Genuine
	// prose sentences repeated across chapters are longer than this.
	maxFurnitureLen = 60
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// CleaningError reports malformed input that the cleaner cannot repair.
type CleaningError struct {
	Reason string
}

func (e *CleaningError) Error() string {
	return "cleaner: " + e.Reason
}

// Clean produces normalized text from a raw chapter body. Lines inside a
// paragraph (not separated by a blank line) are joined with a single space;
// blank-line paragraph breaks are preserved as double newlines. A line
// ending in a hyphen followed by a lowercase continuation is a wrapped
// compound word and is rejoined without the hyphen; continuations starting
// with an uppercase letter, digit, or whitespace keep the hyphen.
//
// Clean(Clean(x)) == Clean(x) for all x.
func Clean(raw string) (string, error) {
	if !utf8.ValidString(raw) {
		return "", &CleaningError{Reason: "input is not valid UTF-8"}
	}

	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	raw = norm.NFC.String(raw)

	var paragraphs []string
	var buffer []string

	for _, line := range strings.Split(raw, "\n") {
		line = normalizeLine(line)
		if line == "" {
			if len(buffer) > 0 {
				paragraphs = append(paragraphs, mergeWrapped(buffer))
				buffer = nil
			}
			continue
		}
		buffer = append(buffer, line)
	}
	if len(buffer) > 0 {
		paragraphs = append(paragraphs, mergeWrapped(buffer))
	}

	return strings.TrimSpace(strings.Join(paragraphs, "\n\n")), nil
}

// normalizeLine collapses repeated whitespace, strips side spaces, and
// removes non-breaking spaces and BOMs.
func normalizeLine(line string) string {
	line = strings.ReplaceAll(line, "\u00A0", " ")
	line = strings.ReplaceAll(line, "\uFEFF", "")
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(line), " ")
}

// mergeWrapped joins the lines of one paragraph, repairing hyphenated
// line-wrap breaks along the way.
func mergeWrapped(lines []string) string {
	var parts []string
	for _, line := range lines {
		if len(parts) > 0 && strings.HasSuffix(parts[len(parts)-1], "-") && startsLower(line) {
			prev := parts[len(parts)-1]
			parts[len(parts)-1] = prev[:len(prev)-1] + line
			continue
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, " ")
}

func startsLower(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return unicode.IsLower(r)
}

// StripRecurring removes page furniture from a set of raw unit bodies. A
// normalized line no longer than maxFurnitureLen runes that recurs verbatim
// in at least recurThreshold distinct units (the unit itself plus two
// others) is removed from every unit. The returned slice is positionally
// aligned with texts.
func StripRecurring(texts []string) []string {
	seen := make(map[string]int)
	for _, text := range texts {
		inUnit := make(map[string]bool)
		for _, line := range strings.Split(text, "\n") {
			key := furnitureKey(line)
			if key == "" || inUnit[key] {
				continue
			}
			inUnit[key] = true
			seen[key]++
		}
	}

	out := make([]string, len(texts))
	for i, text := range texts {
		var kept []string
		for _, line := range strings.Split(text, "\n") {
			if key := furnitureKey(line); key != "" && seen[key] >= recurThreshold {
				continue
			}
			kept = append(kept, line)
		}
		out[i] = strings.Join(kept, "\n")
	}
	return out
}

// furnitureKey returns the comparison key for a candidate furniture line,
// or "" when the line is blank or too long to be furniture.
func furnitureKey(line string) string {
	key := normalizeLine(line)
	if key == "" || len([]rune(key)) > maxFurnitureLen {
		return ""
	}
	return key
}

// MustClean is Clean for inputs already known to be valid UTF-8, such as
// test fixtures and literals. It panics on a cleaning failure.
func MustClean(raw string) string {
	out, err := Clean(raw)
	if err != nil {
		panic(fmt.Sprintf("cleaner: %v", err))
	}
	return out
}
