package segmenter

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// titlePattern matches a conventionally punctuated chapter title line.
var titlePattern = regexp.MustCompile(`^[A-Z][A-Za-z0-9 ,\-'()/:&]+$`)

// NumberedStrategy recognizes the two-line heading form found in page-based
// text extractions: a bare chapter number on its own line, preceded by a
// blank line or the stream start, immediately followed by a title-like line.
//
// A line is title-like when it is 1..MaxTitleLen runes, does not start with
// "www", and either matches titlePattern or has every alphabetic word
// capitalized. This is deliberately conservative: a bare number inside prose
// (an enumeration, a page reference) is almost never preceded by a blank
// line and followed by a capitalized short line at the same time.
type NumberedStrategy struct {
	MaxTitleLen int
}

// NewNumberedStrategy returns a NumberedStrategy with an 80-rune title cap.
func NewNumberedStrategy() *NumberedStrategy {
	return &NumberedStrategy{MaxTitleLen: 80}
}

// Match implements Strategy. A match consumes two lines: the number line
// and the title line.
func (s *NumberedStrategy) Match(prev, line, next string) (Heading, int, bool) {
	if prev != "" {
		return Heading{}, 0, false
	}
	if line == "" || !isDigits(line) {
		return Heading{}, 0, false
	}
	number, err := strconv.Atoi(line)
	if err != nil || number <= 0 {
		return Heading{}, 0, false
	}
	if !s.looksLikeTitle(next) {
		return Heading{}, 0, false
	}
	return Heading{Number: number, Title: next}, 2, true
}

func (s *NumberedStrategy) looksLikeTitle(line string) bool {
	if line == "" {
		return false
	}
	maxLen := s.MaxTitleLen
	if maxLen <= 0 {
		maxLen = 80
	}
	if len([]rune(line)) > maxLen {
		return false
	}
	if strings.HasPrefix(strings.ToLower(line), "www") {
		return false
	}
	words := strings.Fields(line)
	if len(words) == 0 {
		return false
	}
	if titlePattern.MatchString(line) {
		return true
	}
	for _, word := range words {
		if !hasAlpha(word) {
			continue
		}
		first := []rune(word)[0]
		if !unicode.IsUpper(first) {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func hasAlpha(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
