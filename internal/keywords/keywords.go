// Package keywords extracts ranked candidate phrases from free text using
// degree-to-frequency co-occurrence scoring, and pairs each retained phrase
// with its translated form.
package keywords

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultTopK is the default number of retained keyword phrases.
const DefaultTopK = 10

// minPhraseLen drops trivially short candidates ("a b", "ok").
const minPhraseLen = 4

var tokenRe = regexp.MustCompile(`[A-Za-z0-9']+`)

// Candidate is a scored keyword phrase. Offset is the byte offset of the
// phrase's first occurrence in the analyzed text, used for tie-breaking.
type Candidate struct {
	Phrase string
	Score  float64
	Offset int
}

// Config controls extraction. Zero values fall back to DefaultStopWords
// and DefaultTopK.
type Config struct {
	StopWords map[string]struct{}
	TopK      int
}

type token struct {
	text   string
	lower  string
	offset int
}

// Extract tokenizes text, builds maximal runs of non-stop-words (candidate
// phrases broken at stop words, punctuation, and digit tokens), scores each
// word as co-occurrence degree divided by frequency, and ranks phrases by
// the sum of their member word scores. Phrases are deduplicated
// case-insensitively with scores summed across occurrences; the first-seen
// casing and offset are kept. Results are sorted by score descending, ties
// broken by ascending offset, and truncated to TopK.
//
// Empty or stop-word-only text yields an empty slice.
func Extract(text string, cfg Config) []Candidate {
	stops := cfg.StopWords
	if stops == nil {
		stops = DefaultStopWords()
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	phrases := candidatePhrases(text, stops)
	if len(phrases) == 0 {
		return nil
	}

	wordScores := scoreWords(phrases)

	// Deduplicate case-insensitively, summing scores and keeping the
	// first-seen casing and offset.
	type agg struct {
		display string
		score   float64
		offset  int
	}
	index := make(map[string]*agg)
	var order []string

	for _, phrase := range phrases {
		var score float64
		lowers := make([]string, len(phrase))
		displays := make([]string, len(phrase))
		for i, tok := range phrase {
			score += wordScores[tok.lower]
			lowers[i] = tok.lower
			displays[i] = tok.text
		}
		key := strings.Join(lowers, " ")
		if len(key) < minPhraseLen {
			continue
		}
		if a, ok := index[key]; ok {
			a.score += score
			continue
		}
		index[key] = &agg{
			display: strings.Join(displays, " "),
			score:   score,
			offset:  phrase[0].offset,
		}
		order = append(order, key)
	}

	candidates := make([]Candidate, 0, len(index))
	for _, key := range order {
		a := index[key]
		candidates = append(candidates, Candidate{Phrase: a.display, Score: a.score, Offset: a.offset})
	}

	if len(candidates) == 0 {
		candidates = frequencyFallback(phrases)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Offset < candidates[j].Offset
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates
}

// candidatePhrases splits text into maximal runs of non-stop-words. A run
// breaks at a stop word, at a digit-only token, and at any punctuation
// between adjacent tokens.
func candidatePhrases(text string, stops map[string]struct{}) [][]token {
	matches := tokenRe.FindAllStringIndex(text, -1)

	var phrases [][]token
	var current []token
	prevEnd := -1

	flush := func() {
		if len(current) > 0 {
			phrases = append(phrases, current)
			current = nil
		}
	}

	for _, m := range matches {
		word := text[m[0]:m[1]]
		lower := strings.ToLower(word)

		if prevEnd >= 0 && hasPunctuation(text[prevEnd:m[0]]) {
			flush()
		}
		prevEnd = m[1]

		if isDigits(word) {
			flush()
			continue
		}
		if _, stop := stops[lower]; stop {
			flush()
			continue
		}
		current = append(current, token{text: word, lower: lower, offset: m[0]})
	}
	flush()
	return phrases
}

// scoreWords computes degree(word)/freq(word) over all phrases. Degree
// counts, for every occurrence of a word, one edge to each member of the
// containing phrase including itself, so a single-word phrase contributes a
// self-edge.
func scoreWords(phrases [][]token) map[string]float64 {
	freq := make(map[string]int)
	degree := make(map[string]int)

	for _, phrase := range phrases {
		for _, tok := range phrase {
			freq[tok.lower]++
			degree[tok.lower] += len(phrase)
		}
	}

	scores := make(map[string]float64, len(freq))
	for word, f := range freq {
		scores[word] = float64(degree[word]) / float64(f)
	}
	return scores
}

// frequencyFallback ranks bare words by frequency when every candidate
// phrase was filtered out (degenerate input of very short fragments).
func frequencyFallback(phrases [][]token) []Candidate {
	freq := make(map[string]int)
	first := make(map[string]token)
	var order []string

	for _, phrase := range phrases {
		for _, tok := range phrase {
			if _, ok := first[tok.lower]; !ok {
				first[tok.lower] = tok
				order = append(order, tok.lower)
			}
			freq[tok.lower]++
		}
	}

	out := make([]Candidate, 0, len(order))
	for _, lower := range order {
		if len(lower) < minPhraseLen {
			continue
		}
		tok := first[lower]
		out = append(out, Candidate{Phrase: tok.text, Score: float64(freq[lower]), Offset: tok.offset})
	}
	return out
}

func hasPunctuation(gap string) bool {
	return strings.ContainsAny(gap, ".!?,;:()[]\"—–\n")
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
