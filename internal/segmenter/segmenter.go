// Package segmenter splits a continuous text stream into ordered chapter
// units using pluggable heading detection. The package enforces the global
// invariants (at least one heading, strictly increasing numbers); the
// per-line recognition heuristic is delegated to a Strategy.
package segmenter

import (
	"fmt"
	"strings"

	"github.com/valpere/codextran/internal"
)

// Heading is an extracted chapter heading.
type Heading struct {
	Number int
	Title  string
}

// Strategy decides whether a line, in its surrounding context, is a chapter
// heading. prev and next are the trimmed neighbouring lines ("" at the
// stream edges). consumed reports how many input lines the heading spans
// starting at line, so the segmenter can skip past it.
type Strategy interface {
	Match(prev, line, next string) (h Heading, consumed int, ok bool)
}

// DetectionError reports a document-level segmentation failure: either no
// headings were found, or the heading number sequence regressed. Line
// numbers are 1-based positions in the input stream.
type DetectionError struct {
	Reason     string
	Number     int
	Line       int
	PrevNumber int
	PrevLine   int
}

func (e *DetectionError) Error() string {
	if e.Line == 0 {
		return "segmenter: " + e.Reason
	}
	return fmt.Sprintf("segmenter: %s: heading %d at line %d (previous heading %d at line %d)",
		e.Reason, e.Number, e.Line, e.PrevNumber, e.PrevLine)
}

// Segment scans text line by line and partitions it into chapter units.
// Each unit's RawText spans from the line after its heading to the line
// before the next heading, or to the end of the document for the last unit.
// A heading on the very first line is valid. Content before the first
// heading (front matter) is discarded.
//
// Segment returns *DetectionError when no headings are found, or when a
// heading number is a duplicate of or lower than its predecessor.
func Segment(text string, strat Strategy) ([]internal.ChapterUnit, error) {
	if strat == nil {
		strat = NewNumberedStrategy()
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")

	var units []internal.ChapterUnit
	var current *internal.ChapterUnit
	var body []string
	lastNumber, lastLine := 0, 0

	flush := func() {
		if current == nil {
			return
		}
		current.RawText = strings.Trim(strings.Join(body, "\n"), "\n")
		units = append(units, *current)
	}

	i := 0
	for i < len(lines) {
		var prev, next string
		if i > 0 {
			prev = strings.TrimSpace(lines[i-1])
		}
		if i+1 < len(lines) {
			next = strings.TrimSpace(lines[i+1])
		}
		line := strings.TrimSpace(lines[i])

		if h, consumed, ok := strat.Match(prev, line, next); ok {
			if lastLine > 0 && h.Number <= lastNumber {
				reason := "heading number decreased"
				if h.Number == lastNumber {
					reason = "duplicate heading number"
				}
				return nil, &DetectionError{
					Reason:     reason,
					Number:     h.Number,
					Line:       i + 1,
					PrevNumber: lastNumber,
					PrevLine:   lastLine,
				}
			}
			flush()
			current = &internal.ChapterUnit{
				Number: h.Number,
				Title:  h.Title,
				Slug:   internal.Slugify(fmt.Sprintf("%d-%s", h.Number, h.Title)),
				Status: internal.StatusPending,
			}
			body = nil
			lastNumber, lastLine = h.Number, i+1
			if consumed < 1 {
				consumed = 1
			}
			i += consumed
			continue
		}

		if current != nil {
			body = append(body, lines[i])
		}
		i++
	}
	flush()

	if len(units) == 0 {
		return nil, &DetectionError{Reason: "no chapter headings detected"}
	}
	return units, nil
}
