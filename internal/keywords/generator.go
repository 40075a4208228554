package keywords

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/valpere/codextran/internal"
)

// AnnotationPrefix is the fixed prefix of the keyword summary line appended
// to each target-language text artifact.
const AnnotationPrefix = "Keywords: "

var annotationRe = regexp.MustCompile(`(?s)\n\n` + AnnotationPrefix + `.*\z`)

// KeywordError reports an unexpected extraction or pairing failure for one
// unit. Empty input is not an error and yields an empty keyword list.
type KeywordError struct {
	Unit int
	Err  error
}

func (e *KeywordError) Error() string {
	return fmt.Sprintf("keywords: unit %d: %v", e.Unit, e.Err)
}

func (e *KeywordError) Unwrap() error { return e.Err }

// PhraseTranslator translates a single short phrase. It is satisfied by
// translator.Engine.
type PhraseTranslator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Generator extracts ranked keyword candidates and pairs each with its
// translated form.
type Generator struct {
	translator PhraseTranslator
	cfg        Config
}

// NewGenerator builds a Generator. cfg zero values use package defaults.
func NewGenerator(tr PhraseTranslator, cfg Config) *Generator {
	return &Generator{translator: tr, cfg: cfg}
}

// Generate extracts candidates from cleaned source text and translates the
// retained phrases. A phrase translation failure fails the whole unit; a
// text with no candidates returns an empty list and no error.
func (g *Generator) Generate(ctx context.Context, unit int, cleanedText string) ([]internal.KeywordPair, error) {
	candidates := Extract(cleanedText, g.cfg)
	if len(candidates) == 0 {
		return nil, nil
	}

	pairs := make([]internal.KeywordPair, 0, len(candidates))
	for _, c := range candidates {
		translated, err := g.translator.Translate(ctx, c.Phrase)
		if err != nil {
			return nil, &KeywordError{Unit: unit, Err: fmt.Errorf("translate phrase %q: %w", c.Phrase, err)}
		}
		pairs = append(pairs, internal.KeywordPair{
			SourcePhrase: c.Phrase,
			TargetPhrase: strings.TrimSpace(translated),
			Score:        c.Score,
			Offset:       c.Offset,
		})
	}
	return pairs, nil
}

// AnnotationLine formats the ranked keyword summary appended to a unit's
// target-language text: `Keywords: target (source), target (source), ...`.
// An empty pair list yields "".
func AnnotationLine(pairs []internal.KeywordPair) string {
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = fmt.Sprintf("%s (%s)", p.TargetPhrase, p.SourcePhrase)
	}
	return AnnotationPrefix + strings.Join(parts, ", ")
}

// StripAnnotation removes a trailing keyword summary line if present, so
// re-running the keywords stage does not stack annotations.
func StripAnnotation(text string) string {
	if strings.HasPrefix(text, AnnotationPrefix) && !strings.Contains(text, "\n\n") {
		return ""
	}
	return annotationRe.ReplaceAllString(text, "")
}

// Annotate appends the keyword summary line to target-language text,
// replacing any previous one. With no pairs the text is returned with any
// stale annotation removed.
func Annotate(text string, pairs []internal.KeywordPair) string {
	text = strings.TrimSpace(StripAnnotation(text))
	line := AnnotationLine(pairs)
	if line == "" {
		return text
	}
	if text == "" {
		return line
	}
	return text + "\n\n" + line
}
